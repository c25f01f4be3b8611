package gov

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type Role string

const (
	RoleVerifier Role = "verifier"
	RoleAgent    Role = "agent"
)

// AgentWeight is the fixed voting weight granted to stakeless agent
// members.
const AgentWeight = 1

// GweiPerVote converts staked gwei into verifier voting weight.
const GweiPerVote = 1000000000

// MinVerifierStake is the minimum stake to join as a verifier: one full
// vote worth of gwei.
const MinVerifierStake = GweiPerVote

func VotingWeight(stake uint64) uint64 {
	return stake / GweiPerVote
}

var (
	ErrNotMember         = errors.New("not a member")
	ErrAlreadyMember     = errors.New("already a member")
	ErrInsufficientStake = errors.New("insufficient stake")
	ErrVotesPending      = errors.New("unresolved votes on active proposals")
	ErrProposalNoexists  = errors.New("proposal noexists")
	ErrProposalExists    = errors.New("proposal already exists")
	ErrEmptyDescription  = errors.New("proposal description is empty")
	ErrVotingClosed      = errors.New("voting period over")
	ErrAlreadyVoted      = errors.New("member already voted")
	ErrNotPassed         = errors.New("proposal not passed")
	ErrAlreadyExecuted   = errors.New("proposal already executed")
	ErrInsufficientFunds = errors.New("insufficient treasury funds")
	ErrNonceInvalid      = errors.New("nonce invalid")
	ErrSigInvalid        = errors.New("signature invalid")
)

// Member is one staked participant of the DAO.
type Member struct {
	Address common.Address `json:"address"`
	Role    Role           `json:"role"`
	Stake   uint64         `json:"stake"`
	Weight  uint64         `json:"weight"`
	Nonce   uint64         `json:"nonce"`
	// proposal ids this member has voted on; pruned of resolved
	// proposals when leaving is attempted
	ActiveVotes []common.Hash `json:"activeVotes,omitempty"`
	JoinedAt    int64         `json:"joinedAt"`
}

func (m *Member) Clone() *Member {
	n := *m
	n.ActiveVotes = append([]common.Hash(nil), m.ActiveVotes...)
	return &n
}

type ProposalStatus string

const (
	ProposalStatusActive   ProposalStatus = "active"
	ProposalStatusPassed   ProposalStatus = "passed"
	ProposalStatusRejected ProposalStatus = "rejected"
	ProposalStatusExecuted ProposalStatus = "executed"
)

// Proposal is one on-chain governance proposal. Created once, mutated only
// by vote and execute transactions, never deleted.
type Proposal struct {
	ID           common.Hash     `json:"id"`
	ContentRef   common.Hash     `json:"contentRef"`
	Description  string          `json:"description"`
	Proposer     common.Address  `json:"proposer"`
	Beneficiary  common.Address  `json:"beneficiary"`
	Amount       uint64          `json:"amount"`
	ForVotes     uint64          `json:"forVotes"`
	AgainstVotes uint64          `json:"againstVotes"`
	CreatedAt    int64           `json:"createdAt"`
	Deadline     int64           `json:"deadline"`
	Executed     bool            `json:"executed"`
	Voted        map[string]bool `json:"voted,omitempty"`
}

// Status is derived at read time, never stored: passed iff the deadline
// has elapsed and for-votes strictly exceed against-votes.
func (p *Proposal) Status(now time.Time) ProposalStatus {
	if p.Executed {
		return ProposalStatusExecuted
	}
	if now.Unix() <= p.Deadline {
		return ProposalStatusActive
	}
	if p.ForVotes > p.AgainstVotes {
		return ProposalStatusPassed
	}
	return ProposalStatusRejected
}

func (p *Proposal) HasVoted(addr common.Address) bool {
	return p.Voted[addr.Hex()]
}
