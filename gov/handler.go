package gov

import (
	"time"

	"github.com/narasim-teja/tars/types"
)

func handleJoinVerifier(st *State, btx *Tx, now time.Time) ([]types.Event, error) {
	stx, ok := btx.Tx.(*JoinVerifierTx)
	if !ok {
		return nil, ErrInvalidTx
	}
	event, err := st.JoinVerifier(btx.Sender, stx, now)
	if err != nil {
		return nil, err
	}
	return []types.Event{types.EncodeEventMemberJoined(event)}, nil
}

func handleJoinAgent(st *State, btx *Tx, now time.Time) ([]types.Event, error) {
	if _, ok := btx.Tx.(*JoinAgentTx); !ok {
		return nil, ErrInvalidTx
	}
	event, err := st.JoinAgent(btx.Sender, now)
	if err != nil {
		return nil, err
	}
	return []types.Event{types.EncodeEventMemberJoined(event)}, nil
}

func handleLeave(st *State, btx *Tx, now time.Time) ([]types.Event, error) {
	if _, ok := btx.Tx.(*LeaveTx); !ok {
		return nil, ErrInvalidTx
	}
	event, err := st.Leave(btx.Sender, now)
	if err != nil {
		return nil, err
	}
	return []types.Event{types.EncodeEventMemberLeft(event)}, nil
}

func handleCreateProposal(st *State, btx *Tx, now time.Time) ([]types.Event, error) {
	stx, ok := btx.Tx.(*CreateProposalTx)
	if !ok {
		return nil, ErrInvalidTx
	}
	event, err := st.CreateProposal(btx.Sender, stx, now)
	if err != nil {
		return nil, err
	}
	return []types.Event{types.EncodeEventProposalCreated(event)}, nil
}

func handleVote(st *State, btx *Tx, now time.Time) ([]types.Event, error) {
	stx, ok := btx.Tx.(*VoteTx)
	if !ok {
		return nil, ErrInvalidTx
	}
	event, err := st.Vote(btx.Sender, stx, now)
	if err != nil {
		return nil, err
	}
	return []types.Event{types.EncodeEventVoted(event)}, nil
}

func handleExecute(st *State, btx *Tx, now time.Time) ([]types.Event, error) {
	stx, ok := btx.Tx.(*ExecuteTx)
	if !ok {
		return nil, ErrInvalidTx
	}
	event, err := st.Execute(btx.Sender, stx, now)
	if err != nil {
		return nil, err
	}
	return []types.Event{types.EncodeEventProposalExecuted(event)}, nil
}

func handleDeposit(st *State, btx *Tx, now time.Time) ([]types.Event, error) {
	stx, ok := btx.Tx.(*DepositTx)
	if !ok {
		return nil, ErrInvalidTx
	}
	if err := st.Deposit(btx.Sender, stx); err != nil {
		return nil, err
	}
	return nil, nil
}
