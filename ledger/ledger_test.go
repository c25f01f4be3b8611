package ledger

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/narasim-teja/tars/types"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := NewLedger(filepath.Join(t.TempDir(), "ledger.db"), log.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestClaimOncePerHash(t *testing.T) {
	require := require.New(t)
	l := newTestLedger(t)
	hash := common.HexToHash("0x11")

	claimed, prior, err := l.Claim(hash)
	require.NoError(err)
	require.True(claimed)
	require.Nil(prior)

	claimed, prior, err = l.Claim(hash)
	require.NoError(err)
	require.False(claimed)
	require.NotNil(prior)
	require.Equal("pending", prior.Outcome)
}

func TestClaimDuplicateAfterSuccess(t *testing.T) {
	require := require.New(t)
	l := newTestLedger(t)
	hash := common.HexToHash("0x22")
	proposal := common.HexToHash("0xaa")

	claimed, _, err := l.Claim(hash)
	require.NoError(err)
	require.True(claimed)
	require.NoError(l.MarkSuccess(hash, proposal, "0xtx"))

	claimed, prior, err := l.Claim(hash)
	require.NoError(err)
	require.False(claimed)
	require.Equal("success", prior.Outcome)
	require.Equal(proposal.Hex(), prior.ProposalId)
	require.Equal("0xtx", prior.TxRef)

	done, err := l.IsProcessed(hash)
	require.NoError(err)
	require.True(done)
}

func TestRecordTimestampsAreUnixSeconds(t *testing.T) {
	require := require.New(t)
	l := newTestLedger(t)
	hash := common.HexToHash("0x66")

	before := time.Now().Unix()
	claimed, _, err := l.Claim(hash)
	require.NoError(err)
	require.True(claimed)
	require.NoError(l.MarkSuccess(hash, common.HexToHash("0xcc"), "0xtx"))

	// the row must scan back with numeric timestamps, not whatever the
	// ORM would write for its own managed columns
	rec, err := l.GetRecord(hash)
	require.NoError(err)
	require.GreaterOrEqual(rec.CreatedUnix, before)
	require.GreaterOrEqual(rec.UpdatedUnix, rec.CreatedUnix)
}

func TestFailedHashIsReclaimable(t *testing.T) {
	require := require.New(t)
	l := newTestLedger(t)
	hash := common.HexToHash("0x33")

	claimed, _, err := l.Claim(hash)
	require.NoError(err)
	require.True(claimed)
	require.NoError(l.MarkFailed(hash, "publish: connection refused"))

	rec, err := l.GetRecord(hash)
	require.NoError(err)
	require.Equal("failed", rec.Outcome)
	require.Equal("publish: connection refused", rec.Reason)

	claimed, prior, err := l.Claim(hash)
	require.NoError(err)
	require.True(claimed)
	require.Nil(prior)

	// re-claim cleared the retained reason
	rec, err = l.GetRecord(hash)
	require.NoError(err)
	require.Equal("pending", rec.Outcome)
	require.Empty(rec.Reason)
}

func TestMarkWithoutClaim(t *testing.T) {
	require := require.New(t)
	l := newTestLedger(t)
	hash := common.HexToHash("0x44")

	require.ErrorIs(l.MarkSuccess(hash, common.Hash{}, ""), ErrNotClaimed)
	require.ErrorIs(l.MarkFailed(hash, "x"), ErrNotClaimed)

	// a resolved claim cannot be resolved again
	claimed, _, err := l.Claim(hash)
	require.NoError(err)
	require.True(claimed)
	require.NoError(l.MarkFailed(hash, "x"))
	require.ErrorIs(l.MarkSuccess(hash, common.Hash{}, ""), ErrNotClaimed)
}

func TestConcurrentClaimsResolveToOne(t *testing.T) {
	require := require.New(t)
	l := newTestLedger(t)
	hash := common.HexToHash("0x55")

	const workers = 8
	var wg sync.WaitGroup
	results := make([]bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			claimed, _, err := l.Claim(hash)
			if err != nil {
				return
			}
			results[i] = claimed
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, ok := range results {
		if ok {
			winners++
		}
	}
	require.Equal(1, winners)
}

func TestGetRecordsPagination(t *testing.T) {
	require := require.New(t)
	l := newTestLedger(t)

	for i := 0; i < 5; i++ {
		claimed, _, err := l.Claim(common.BytesToHash([]byte{byte(i + 1)}))
		require.NoError(err)
		require.True(claimed)
	}

	recs, total, err := l.GetRecords(1, 2)
	require.NoError(err)
	require.Equal(uint64(5), total)
	require.Len(recs, 2)

	recs, _, err = l.GetRecords(3, 2)
	require.NoError(err)
	require.Len(recs, 1)
}

func TestAppendAndQueryEvents(t *testing.T) {
	require := require.New(t)
	l := newTestLedger(t)

	proposal := common.HexToHash("0xbb")
	voter := common.HexToAddress("0x09")
	events := []types.Event{
		types.EncodeEventMemberJoined(&types.EventMemberJoined{
			Address: voter.Hex(), Role: "verifier", Stake: 2000000000, Weight: 2,
		}),
		types.EncodeEventVoted(&types.EventVoted{
			ProposalID: proposal, Voter: voter.Hex(), Support: true, Weight: 2,
		}),
	}
	require.NoError(l.AppendEvents(events))

	rows, total, err := l.GetEvents(types.EventVotedType, 1, 10)
	require.NoError(err)
	require.Equal(uint64(1), total)
	require.Equal(proposal.Hex(), rows[0].Proposal)
	require.Equal(voter.Hex(), rows[0].Member)

	rows, total, err = l.GetEvents("", 1, 10)
	require.NoError(err)
	require.Equal(uint64(2), total)
	require.Len(rows, 2)
}
