package gov

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"

	"github.com/narasim-teja/tars/types"
)

// DefaultVotingWindow is the fixed voting period granted to every new
// proposal.
const DefaultVotingWindow = 72 * time.Hour

// TxHandler applies one transaction type to the working state.
type TxHandler func(st *State, btx *Tx, now time.Time) ([]types.Event, error)

// StateDB is the host ledger for the governance contract. Its mutex is
// the native write serialization every state-changing call relies on; the
// contract code itself adds no further locking.
type StateDB struct {
	mtx sync.RWMutex

	dir     string
	logger  log.Logger
	backing dbm.DB
	db      *iavl.MutableTree

	state   *State
	txHdlrs map[TxType]TxHandler
}

func NewStateDB(dir, chainId string, votingWindow time.Duration, logger log.Logger) (*StateDB, error) {
	logger = logger.With("module", "govdb")
	ldb, err := dbm.NewDB("gov", "goleveldb", dir)
	if err != nil {
		return nil, err
	}
	tdb := iavl.NewMutableTree(ldb, 128, true, logger)
	version, err := tdb.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("load db success", "version", version)
	if votingWindow <= 0 {
		votingWindow = DefaultVotingWindow
	}
	st := newState(tdb, votingWindow, logger)
	if err = st.load(); err != nil {
		logger.Error("load state fail", "err", err)
		return nil, err
	}
	if st.header.ChainId == "" {
		st.SetChainId(chainId)
	}
	db := &StateDB{
		dir:     dir,
		logger:  logger,
		backing: ldb,
		db:      tdb,
		state:   st,
	}
	db.registerTxHandlers()
	return db, nil
}

// Close releases the tree and the backing store. The tree alone leaves
// the store open, which would keep the leveldb lock held across reopen.
func (db *StateDB) Close() error {
	if err := db.db.Close(); err != nil {
		return err
	}
	return db.backing.Close()
}

func (db *StateDB) registerTxHandlers() {
	db.txHdlrs = map[TxType]TxHandler{
		TxTypeJoinVerifier:   handleJoinVerifier,
		TxTypeJoinAgent:      handleJoinAgent,
		TxTypeLeave:          handleLeave,
		TxTypeCreateProposal: handleCreateProposal,
		TxTypeVote:           handleVote,
		TxTypeExecute:        handleExecute,
		TxTypeDeposit:        handleDeposit,
	}
}

// Apply verifies, applies and commits one transaction. Serialized by the
// ledger mutex.
func (db *StateDB) Apply(btx *Tx, now time.Time) ([]types.Event, error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()

	st := db.state
	if err := st.Verify(btx); err != nil {
		return nil, err
	}
	h, ok := db.txHdlrs[btx.Type]
	if !ok {
		return nil, ErrUnsupportedTxType
	}
	events, err := h(st, btx, now)
	if err != nil {
		return nil, err
	}
	if btx.Type != TxTypeJoinVerifier && btx.Type != TxTypeJoinAgent && btx.Type != TxTypeLeave {
		st.bumpNonce(btx.Sender)
	}
	if _, err = st.Update(); err != nil {
		return nil, err
	}
	if _, err = st.save(); err != nil {
		return nil, err
	}
	return events, nil
}

func (db *StateDB) ChainId() string {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.state.header.ChainId
}

func (db *StateDB) Header() StateHeader {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return *db.state.header
}

// Treasury is the spendable contract balance, excluding member stakes.
func (db *StateDB) Treasury() uint64 {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.state.header.Treasury
}

// GetProposal returns the proposal with its derived status at now.
func (db *StateDB) GetProposal(id common.Hash, now time.Time) (*Proposal, ProposalStatus, error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	p, err := db.state.getProposal(id)
	if err != nil {
		return nil, "", err
	}
	return p, p.Status(now), nil
}

func (db *StateDB) HasVoted(id common.Hash, addr common.Address) (bool, error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	p, err := db.state.getProposal(id)
	if err != nil {
		return false, err
	}
	return p.HasVoted(addr), nil
}

func (db *StateDB) IsMember(addr common.Address) (bool, error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	m, err := db.state.readMember(addr)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

func (db *StateDB) GetMember(addr common.Address) (*Member, error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	m, err := db.state.readMember(addr)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotMember
	}
	return m.Clone(), nil
}

// ListProposals walks the proposal keyspace.
func (db *StateDB) ListProposals() ([]*Proposal, error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	start := []byte(fmt.Sprintf(KeyProposalBody, ""))
	end := PrefixEndBytes(start)
	it, err := db.state.db.Iterator(start, end, false)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var proposals []*Proposal
	for ; it.Valid(); it.Next() {
		p := new(Proposal)
		if err := json.Unmarshal(it.Value(), p); err != nil {
			return nil, err
		}
		proposals = append(proposals, p)
	}
	return proposals, nil
}

// ListMembers walks the member keyspace.
func (db *StateDB) ListMembers() ([]*Member, error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	start := []byte(fmt.Sprintf(KeyMemberBody, ""))
	end := PrefixEndBytes(start)
	it, err := db.state.db.Iterator(start, end, false)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var members []*Member
	for ; it.Valid(); it.Next() {
		m := new(Member)
		if err := json.Unmarshal(it.Value(), m); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}
