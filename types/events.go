package types

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

const (
	EventMemberJoinedType     = "member_joined"
	EventMemberLeftType       = "member_left"
	EventProposalCreatedType  = "proposal_created"
	EventVotedType            = "voted"
	EventProposalExecutedType = "proposal_executed"
)

type EventAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Index bool   `json:"index"`
}

// Event is the governance ledger's attribute-list event record. Typed
// events encode into it and the indexer decodes them back.
type Event struct {
	Type       string           `json:"type"`
	Attributes []EventAttribute `json:"attributes"`
}

type EventMemberJoined struct {
	Address string `json:"address"`
	Role    string `json:"role"`
	Stake   uint64 `json:"stake"`
	Weight  uint64 `json:"weight"`
}

func EncodeEventMemberJoined(event *EventMemberJoined) Event {
	return Event{
		Type: EventMemberJoinedType,
		Attributes: []EventAttribute{
			{Key: "address", Value: event.Address, Index: true},
			{Key: "role", Value: event.Role, Index: false},
			{Key: "stake", Value: fmt.Sprintf("%v", event.Stake), Index: false},
			{Key: "weight", Value: fmt.Sprintf("%v", event.Weight), Index: false},
		},
	}
}

func DecodeEventMemberJoined(originEvent Event) *EventMemberJoined {
	event := &EventMemberJoined{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "address":
			event.Address = v.Value
		case "role":
			event.Role = v.Value
		case "stake":
			stake, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Stake = stake
		case "weight":
			weight, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Weight = weight
		}
	}
	return event
}

type EventMemberLeft struct {
	Address string `json:"address"`
	Refund  uint64 `json:"refund"`
}

func EncodeEventMemberLeft(event *EventMemberLeft) Event {
	return Event{
		Type: EventMemberLeftType,
		Attributes: []EventAttribute{
			{Key: "address", Value: event.Address, Index: true},
			{Key: "refund", Value: fmt.Sprintf("%v", event.Refund), Index: false},
		},
	}
}

func DecodeEventMemberLeft(originEvent Event) *EventMemberLeft {
	event := &EventMemberLeft{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "address":
			event.Address = v.Value
		case "refund":
			refund, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Refund = refund
		}
	}
	return event
}

type EventProposalCreated struct {
	ProposalID common.Hash `json:"proposalId"`
	Proposer   string      `json:"proposer"`
	Amount     uint64      `json:"amount"`
	Deadline   int64       `json:"deadline"`
}

func EncodeEventProposalCreated(event *EventProposalCreated) Event {
	return Event{
		Type: EventProposalCreatedType,
		Attributes: []EventAttribute{
			{Key: "proposal", Value: event.ProposalID.Hex(), Index: true},
			{Key: "proposer", Value: event.Proposer, Index: true},
			{Key: "amount", Value: fmt.Sprintf("%v", event.Amount), Index: false},
			{Key: "deadline", Value: fmt.Sprintf("%v", event.Deadline), Index: false},
		},
	}
}

func DecodeEventProposalCreated(originEvent Event) *EventProposalCreated {
	event := &EventProposalCreated{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			event.ProposalID = common.HexToHash(v.Value)
		case "proposer":
			event.Proposer = v.Value
		case "amount":
			amount, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Amount = amount
		case "deadline":
			deadline, err := strconv.ParseInt(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Deadline = deadline
		}
	}
	return event
}

type EventVoted struct {
	ProposalID common.Hash `json:"proposalId"`
	Voter      string      `json:"voter"`
	Support    bool        `json:"support"`
	Weight     uint64      `json:"weight"`
}

func EncodeEventVoted(event *EventVoted) Event {
	return Event{
		Type: EventVotedType,
		Attributes: []EventAttribute{
			{Key: "proposal", Value: event.ProposalID.Hex(), Index: true},
			{Key: "voter", Value: event.Voter, Index: true},
			{Key: "support", Value: fmt.Sprintf("%v", event.Support), Index: false},
			{Key: "weight", Value: fmt.Sprintf("%v", event.Weight), Index: false},
		},
	}
}

func DecodeEventVoted(originEvent Event) *EventVoted {
	event := &EventVoted{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			event.ProposalID = common.HexToHash(v.Value)
		case "voter":
			event.Voter = v.Value
		case "support":
			support, err := strconv.ParseBool(v.Value)
			if err != nil {
				return nil
			}
			event.Support = support
		case "weight":
			weight, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Weight = weight
		}
	}
	return event
}

type EventProposalExecuted struct {
	ProposalID  common.Hash `json:"proposalId"`
	Beneficiary string      `json:"beneficiary"`
	Amount      uint64      `json:"amount"`
}

func EncodeEventProposalExecuted(event *EventProposalExecuted) Event {
	return Event{
		Type: EventProposalExecutedType,
		Attributes: []EventAttribute{
			{Key: "proposal", Value: event.ProposalID.Hex(), Index: true},
			{Key: "beneficiary", Value: event.Beneficiary, Index: false},
			{Key: "amount", Value: fmt.Sprintf("%v", event.Amount), Index: false},
		},
	}
}

func DecodeEventProposalExecuted(originEvent Event) *EventProposalExecuted {
	event := &EventProposalExecuted{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			event.ProposalID = common.HexToHash(v.Value)
		case "beneficiary":
			event.Beneficiary = v.Value
		case "amount":
			amount, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Amount = amount
		}
	}
	return event
}
