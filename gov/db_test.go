package gov

import (
	"crypto/ecdsa"
	"sync"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"
	eth_crypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/narasim-teja/tars/types"
)

const testWindow = time.Hour

func newTestGov(t *testing.T) *StateDB {
	t.Helper()
	db, err := NewStateDB(t.TempDir(), "test-chain", testWindow, log.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

type actor struct {
	key   *ecdsa.PrivateKey
	addr  common.Address
	nonce uint64
}

func newActor(t *testing.T) *actor {
	t.Helper()
	key, err := eth_crypto.GenerateKey()
	require.NoError(t, err)
	return &actor{key: key, addr: eth_crypto.PubkeyToAddress(key.PublicKey)}
}

func (a *actor) apply(t *testing.T, db *StateDB, typ TxType, payload any, now time.Time) ([]types.Event, error) {
	t.Helper()
	btx := &Tx{
		Version: TxVersion1,
		Type:    typ,
		Nonce:   a.nonce,
		Sender:  a.addr,
		Tx:      payload,
	}
	require.NoError(t, btx.Sign([]byte(db.ChainId()), a.key))
	events, err := db.Apply(btx, now)
	if err == nil && typ != TxTypeJoinVerifier && typ != TxTypeJoinAgent && typ != TxTypeLeave {
		a.nonce++
	}
	return events, err
}

func (a *actor) join(t *testing.T, db *StateDB, stake uint64, now time.Time) {
	t.Helper()
	_, err := a.apply(t, db, TxTypeJoinVerifier, &JoinVerifierTx{Stake: stake}, now)
	require.NoError(t, err)
}

func TestJoinVerifierStakeAndWeight(t *testing.T) {
	require := require.New(t)
	db := newTestGov(t)
	a := newActor(t)
	now := time.Now()

	_, err := a.apply(t, db, TxTypeJoinVerifier, &JoinVerifierTx{Stake: MinVerifierStake - 1}, now)
	require.ErrorIs(err, ErrInsufficientStake)

	events, err := a.apply(t, db, TxTypeJoinVerifier, &JoinVerifierTx{Stake: 3 * GweiPerVote}, now)
	require.NoError(err)
	require.Len(events, 1)
	joined := types.DecodeEventMemberJoined(events[0])
	require.Equal(uint64(3), joined.Weight)

	m, err := db.GetMember(a.addr)
	require.NoError(err)
	require.Equal(RoleVerifier, m.Role)
	require.Equal(uint64(3*GweiPerVote), m.Stake)
	require.Equal(uint64(3), m.Weight)
	require.Equal(uint64(3*GweiPerVote), db.Header().StakePool)

	_, err = a.apply(t, db, TxTypeJoinVerifier, &JoinVerifierTx{Stake: 5 * GweiPerVote}, now)
	require.ErrorIs(err, ErrAlreadyMember)
}

func TestJoinAgentFixedWeight(t *testing.T) {
	require := require.New(t)
	db := newTestGov(t)
	a := newActor(t)

	_, err := a.apply(t, db, TxTypeJoinAgent, &JoinAgentTx{}, time.Now())
	require.NoError(err)

	m, err := db.GetMember(a.addr)
	require.NoError(err)
	require.Equal(RoleAgent, m.Role)
	require.Equal(uint64(0), m.Stake)
	require.Equal(uint64(AgentWeight), m.Weight)
	require.Equal(uint64(0), db.Header().StakePool)
}

func TestLeaveRefundsFullStake(t *testing.T) {
	require := require.New(t)
	db := newTestGov(t)
	a := newActor(t)
	now := time.Now()

	a.join(t, db, 2*GweiPerVote, now)
	_, err := a.apply(t, db, TxTypeDeposit, &DepositTx{Amount: 100}, now)
	require.NoError(err)

	events, err := a.apply(t, db, TxTypeLeave, &LeaveTx{}, now)
	require.NoError(err)
	left := types.DecodeEventMemberLeft(events[0])
	require.Equal(uint64(2*GweiPerVote), left.Refund)

	ok, err := db.IsMember(a.addr)
	require.NoError(err)
	require.False(ok)
	// the stake pool empties, the treasury is untouched
	require.Equal(uint64(0), db.Header().StakePool)
	require.Equal(uint64(100), db.Treasury())
}

func TestLeaveBlockedWhileVotesUnresolved(t *testing.T) {
	require := require.New(t)
	db := newTestGov(t)
	a := newActor(t)
	now := time.Now()

	a.join(t, db, GweiPerVote, now)
	_, err := a.apply(t, db, TxTypeCreateProposal, &CreateProposalTx{
		Description: "test proposal",
		ContentRef:  common.HexToHash("0x01"),
		CreatedAt:   now.Unix(),
	}, now)
	require.NoError(err)
	id := ProposalID(common.HexToHash("0x01"), now.Unix())

	_, err = a.apply(t, db, TxTypeVote, &VoteTx{Proposal: id, Support: true}, now)
	require.NoError(err)

	_, err = a.apply(t, db, TxTypeLeave, &LeaveTx{}, now)
	require.ErrorIs(err, ErrVotesPending)

	after := now.Add(testWindow + time.Second)
	_, err = a.apply(t, db, TxTypeLeave, &LeaveTx{}, after)
	require.NoError(err)
}

func TestProposalLifecycle(t *testing.T) {
	require := require.New(t)
	db := newTestGov(t)
	proposer := newActor(t)
	against := newActor(t)
	agent := newActor(t)
	now := time.Now()

	proposer.join(t, db, 3*GweiPerVote, now)
	against.join(t, db, GweiPerVote, now)
	_, err := agent.apply(t, db, TxTypeJoinAgent, &JoinAgentTx{}, now)
	require.NoError(err)

	_, err = proposer.apply(t, db, TxTypeDeposit, &DepositTx{Amount: 1000}, now)
	require.NoError(err)

	ref := common.HexToHash("0xabc")
	_, err = proposer.apply(t, db, TxTypeCreateProposal, &CreateProposalTx{
		Description: "culvert repair",
		Beneficiary: proposer.addr,
		Amount:      600,
		ContentRef:  ref,
		CreatedAt:   now.Unix(),
	}, now)
	require.NoError(err)
	id := ProposalID(ref, now.Unix())

	p, status, err := db.GetProposal(id, now)
	require.NoError(err)
	require.Equal(ProposalStatusActive, status)
	require.Equal(now.Unix()+int64(testWindow/time.Second), p.Deadline)

	_, err = proposer.apply(t, db, TxTypeVote, &VoteTx{Proposal: id, Support: true}, now)
	require.NoError(err)
	_, err = against.apply(t, db, TxTypeVote, &VoteTx{Proposal: id, Support: false}, now)
	require.NoError(err)
	_, err = agent.apply(t, db, TxTypeVote, &VoteTx{Proposal: id, Support: true}, now)
	require.NoError(err)

	p, _, err = db.GetProposal(id, now)
	require.NoError(err)
	require.Equal(uint64(4), p.ForVotes)
	require.Equal(uint64(1), p.AgainstVotes)

	// before the deadline nothing can be executed
	_, err = proposer.apply(t, db, TxTypeExecute, &ExecuteTx{Proposal: id}, now)
	require.ErrorIs(err, ErrNotPassed)

	after := now.Add(testWindow + time.Second)
	_, status, err = db.GetProposal(id, after)
	require.NoError(err)
	require.Equal(ProposalStatusPassed, status)

	events, err := proposer.apply(t, db, TxTypeExecute, &ExecuteTx{Proposal: id}, after)
	require.NoError(err)
	executed := types.DecodeEventProposalExecuted(events[0])
	require.Equal(uint64(600), executed.Amount)
	require.Equal(uint64(400), db.Treasury())

	_, err = proposer.apply(t, db, TxTypeExecute, &ExecuteTx{Proposal: id}, after)
	require.ErrorIs(err, ErrAlreadyExecuted)

	_, status, err = db.GetProposal(id, after)
	require.NoError(err)
	require.Equal(ProposalStatusExecuted, status)
}

func TestExecuteInsufficientTreasury(t *testing.T) {
	require := require.New(t)
	db := newTestGov(t)
	a := newActor(t)
	now := time.Now()

	a.join(t, db, GweiPerVote, now)
	ref := common.HexToHash("0x07")
	_, err := a.apply(t, db, TxTypeCreateProposal, &CreateProposalTx{
		Description: "unfunded",
		Amount:      50,
		ContentRef:  ref,
		CreatedAt:   now.Unix(),
	}, now)
	require.NoError(err)
	id := ProposalID(ref, now.Unix())
	_, err = a.apply(t, db, TxTypeVote, &VoteTx{Proposal: id, Support: true}, now)
	require.NoError(err)

	after := now.Add(testWindow + time.Second)
	_, err = a.apply(t, db, TxTypeExecute, &ExecuteTx{Proposal: id}, after)
	require.ErrorIs(err, ErrInsufficientFunds)

	// member stakes are never spendable by execution
	require.Equal(uint64(GweiPerVote), db.Header().StakePool)
}

func TestVoteRules(t *testing.T) {
	require := require.New(t)
	db := newTestGov(t)
	a := newActor(t)
	outsider := newActor(t)
	now := time.Now()

	a.join(t, db, GweiPerVote, now)
	ref := common.HexToHash("0x09")
	_, err := a.apply(t, db, TxTypeCreateProposal, &CreateProposalTx{
		Description: "d",
		ContentRef:  ref,
		CreatedAt:   now.Unix(),
	}, now)
	require.NoError(err)
	id := ProposalID(ref, now.Unix())

	_, err = outsider.apply(t, db, TxTypeVote, &VoteTx{Proposal: id, Support: true}, now)
	require.ErrorIs(err, ErrNotMember)

	_, err = a.apply(t, db, TxTypeVote, &VoteTx{Proposal: id, Support: true}, now)
	require.NoError(err)
	_, err = a.apply(t, db, TxTypeVote, &VoteTx{Proposal: id, Support: false}, now)
	require.ErrorIs(err, ErrAlreadyVoted)

	voted, err := db.HasVoted(id, a.addr)
	require.NoError(err)
	require.True(voted)

	b := newActor(t)
	b.join(t, db, GweiPerVote, now)
	after := now.Add(testWindow + time.Second)
	_, err = b.apply(t, db, TxTypeVote, &VoteTx{Proposal: id, Support: true}, after)
	require.ErrorIs(err, ErrVotingClosed)

	_, err = a.apply(t, db, TxTypeVote, &VoteTx{Proposal: common.HexToHash("0xff"), Support: true}, now)
	require.ErrorIs(err, ErrProposalNoexists)
}

func TestCreateProposalValidation(t *testing.T) {
	require := require.New(t)
	db := newTestGov(t)
	a := newActor(t)
	outsider := newActor(t)
	now := time.Now()

	a.join(t, db, GweiPerVote, now)

	_, err := outsider.apply(t, db, TxTypeCreateProposal, &CreateProposalTx{
		Description: "d", ContentRef: common.HexToHash("0x01"), CreatedAt: now.Unix(),
	}, now)
	require.ErrorIs(err, ErrNotMember)

	_, err = a.apply(t, db, TxTypeCreateProposal, &CreateProposalTx{
		ContentRef: common.HexToHash("0x01"), CreatedAt: now.Unix(),
	}, now)
	require.ErrorIs(err, ErrEmptyDescription)

	create := &CreateProposalTx{
		Description: "d", ContentRef: common.HexToHash("0x01"), CreatedAt: now.Unix(),
	}
	_, err = a.apply(t, db, TxTypeCreateProposal, create, now)
	require.NoError(err)
	_, err = a.apply(t, db, TxTypeCreateProposal, create, now)
	require.ErrorIs(err, ErrProposalExists)
}

func TestTxAuthentication(t *testing.T) {
	require := require.New(t)
	db := newTestGov(t)
	a := newActor(t)
	now := time.Now()

	a.join(t, db, GweiPerVote, now)

	// stale nonce
	btx := &Tx{Version: TxVersion1, Type: TxTypeDeposit, Nonce: a.nonce + 5, Sender: a.addr, Tx: &DepositTx{Amount: 1}}
	require.NoError(btx.Sign([]byte(db.ChainId()), a.key))
	_, err := db.Apply(btx, now)
	require.ErrorIs(err, ErrNonceInvalid)

	// sender not matching the signature
	other := newActor(t)
	btx = &Tx{Version: TxVersion1, Type: TxTypeDeposit, Nonce: 0, Sender: other.addr, Tx: &DepositTx{Amount: 1}}
	require.NoError(btx.Sign([]byte(db.ChainId()), a.key))
	_, err = db.Apply(btx, now)
	require.ErrorIs(err, ErrSigInvalid)

	// missing signature
	btx = &Tx{Version: TxVersion1, Type: TxTypeDeposit, Nonce: 0, Sender: a.addr, Tx: &DepositTx{Amount: 1}}
	_, err = db.Apply(btx, now)
	require.ErrorIs(err, ErrSigInvalid)

	// wrong chain id salt invalidates the signature
	btx = &Tx{Version: TxVersion1, Type: TxTypeDeposit, Nonce: a.nonce, Sender: a.addr, Tx: &DepositTx{Amount: 1}}
	require.NoError(btx.Sign([]byte("other-chain"), a.key))
	_, err = db.Apply(btx, now)
	require.ErrorIs(err, ErrSigInvalid)
}

func TestProposalIDDeterministic(t *testing.T) {
	require := require.New(t)
	ref := common.HexToHash("0x42")

	require.Equal(ProposalID(ref, 1700000000), ProposalID(ref, 1700000000))
	require.NotEqual(ProposalID(ref, 1700000000), ProposalID(ref, 1700000001))
	require.NotEqual(ProposalID(ref, 1700000000), ProposalID(common.HexToHash("0x43"), 1700000000))
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	db, err := NewStateDB(dir, "persist-chain", testWindow, log.NewNopLogger())
	require.NoError(err)

	a := newActor(t)
	now := time.Now()
	a.join(t, db, 2*GweiPerVote, now)
	_, err = a.apply(t, db, TxTypeCreateProposal, &CreateProposalTx{
		Description: "survives restart",
		ContentRef:  common.HexToHash("0x55"),
		CreatedAt:   now.Unix(),
	}, now)
	require.NoError(err)
	require.NoError(db.Close())

	db, err = NewStateDB(dir, "ignored-on-reload", testWindow, log.NewNopLogger())
	require.NoError(err)
	defer db.Close()

	require.Equal("persist-chain", db.ChainId())
	m, err := db.GetMember(a.addr)
	require.NoError(err)
	require.Equal(uint64(2), m.Weight)

	proposals, err := db.ListProposals()
	require.NoError(err)
	require.Len(proposals, 1)
	require.Equal("survives restart", proposals[0].Description)
}

func TestConcurrentMemberReadsAfterReopen(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	db, err := NewStateDB(dir, "read-chain", testWindow, log.NewNopLogger())
	require.NoError(err)

	a := newActor(t)
	a.join(t, db, 2*GweiPerVote, time.Now())
	require.NoError(db.Close())

	// fresh open means a cold member cache; parallel queries must not
	// trip over each other filling it
	db, err = NewStateDB(dir, "read-chain", testWindow, log.NewNopLogger())
	require.NoError(err)
	defer db.Close()

	const readers = 8
	var wg sync.WaitGroup
	errs := make([]error, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := db.IsMember(a.addr)
			if err == nil && !ok {
				err = ErrNotMember
			}
			if err == nil {
				_, err = db.GetMember(a.addr)
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(err)
	}
}

func TestTxMarshalRoundTrip(t *testing.T) {
	require := require.New(t)
	a := newActor(t)

	btx := &Tx{
		Version: TxVersion1,
		Type:    TxTypeVote,
		Nonce:   7,
		Sender:  a.addr,
		Tx:      &VoteTx{Proposal: common.HexToHash("0x99"), Support: true},
	}
	require.NoError(btx.Sign([]byte("chain"), a.key))

	dat, err := MarshalTx(btx)
	require.NoError(err)
	got, err := UnmarshalTx(dat)
	require.NoError(err)
	require.Equal(btx.Nonce, got.Nonce)
	require.Equal(btx.Sender, got.Sender)
	require.NoError(got.VerifySig([]byte("chain")))

	vt, ok := got.Tx.(*VoteTx)
	require.True(ok)
	require.True(vt.Support)
	require.Equal(common.HexToHash("0x99"), vt.Proposal)
}
