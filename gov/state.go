package gov

import (
	"encoding/json"
	"fmt"
	"time"

	"cosmossdk.io/log"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/common"
	eth_crypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/narasim-teja/tars/types"
)

const (
	ModifiedFlagNew = 1 << 0
	ModifiedFlagMod = 1 << 1
	ModifiedFlagDel = 1 << 2
)

var (
	KeyState        = "s"
	KeyMemberBody   = "m%x"
	KeyProposalBody = "p%x"
)

// StateHeader is the committed root record of the governance ledger.
type StateHeader struct {
	ChainId   string `json:"chainId"`
	Height    uint64 `json:"height"`
	Treasury  uint64 `json:"treasury"`
	StakePool uint64 `json:"stakePool"`
	Hash      []byte `json:"hash"`
	RootHash  []byte `json:"rootHash"`
}

// ProposalID derives a proposal id from the content reference and the
// creation timestamp. Deterministic, not random: two creations of the
// same evidence at different times stay distinguishable, while a caller
// honoring the dedup ledger never derives two ids for one hash.
func ProposalID(contentRef common.Hash, createdAt int64) common.Hash {
	enc, _ := rlp.EncodeToBytes(uint64(createdAt))
	return eth_crypto.Keccak256Hash(contentRef.Bytes(), enc)
}

// State holds the working view over the versioned tree. All mutating
// operations validate fully before touching any cache, so a failed
// operation leaves nothing to roll back.
type State struct {
	logger log.Logger
	db     *iavl.MutableTree
	dbVer  int64

	header          *StateHeader
	members         map[common.Address]*Member
	modifiedMembers map[common.Address]uint32
	modProposals    map[common.Hash]*Proposal

	votingWindow time.Duration
}

func newState(db *iavl.MutableTree, votingWindow time.Duration, logger log.Logger) *State {
	return &State{
		logger:          logger,
		db:              db,
		dbVer:           0,
		header:          new(StateHeader),
		members:         make(map[common.Address]*Member),
		modifiedMembers: make(map[common.Address]uint32),
		modProposals:    make(map[common.Hash]*Proposal),
		votingWindow:    votingWindow,
	}
}

func (s *State) load() error {
	val, err := s.db.Get([]byte(KeyState))
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil
		}
		return err
	}
	if val != nil {
		if err = json.Unmarshal(val, s.header); err != nil {
			return err
		}
		if h := s.db.Hash(); h != nil {
			s.calcHash(h, true)
		}
	}
	return nil
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = eth_crypto.Keccak256Hash(rootHash)
	if update {
		s.header.RootHash = append([]byte(nil), rootHash...)
		s.header.Hash = append([]byte(nil), h[:]...)
	}
	return
}

// Update writes the pending member and proposal modifications plus the
// header into the working tree.
func (s *State) Update() (h common.Hash, err error) {
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	val, err := json.Marshal(s.header)
	if err != nil {
		return
	}
	if _, err = s.db.Set([]byte(KeyState), val); err != nil {
		return
	}

	for addr, flag := range s.modifiedMembers {
		key := []byte(fmt.Sprintf(KeyMemberBody, addr.Bytes()))
		if flag&ModifiedFlagDel == ModifiedFlagDel {
			if _, _, err = s.db.Remove(key); err != nil {
				return
			}
			continue
		}
		m := s.members[addr]
		val, err = json.Marshal(m)
		if err != nil {
			return
		}
		if _, err = s.db.Set(key, val); err != nil {
			return
		}
	}

	for id, proposal := range s.modProposals {
		key := []byte(fmt.Sprintf(KeyProposalBody, id.Bytes()))
		val, err = json.Marshal(proposal)
		if err != nil {
			return
		}
		if _, err = s.db.Set(key, val); err != nil {
			return
		}
	}

	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	s.modifiedMembers = make(map[common.Address]uint32)
	s.modProposals = make(map[common.Hash]*Proposal)
	return
}

func (s *State) save() (h common.Hash, err error) {
	hash, ver, err := s.db.SaveVersion()
	if err != nil {
		return h, err
	}
	s.dbVer = ver
	s.header.Height += 1
	h = s.calcHash(hash, true)
	return
}

// FindMember loads a member into the working cache. Mutating handlers
// depend on the cached pointer, so only call this under the write lock.
func (s *State) FindMember(addr common.Address) (*Member, error) {
	m, err := s.readMember(addr)
	if err != nil || m == nil {
		return m, err
	}
	s.members[addr] = m
	return m, nil
}

// readMember resolves a member without touching the cache, safe for
// callers holding only the read lock.
func (s *State) readMember(addr common.Address) (*Member, error) {
	if flag, ok := s.modifiedMembers[addr]; ok && flag&ModifiedFlagDel == ModifiedFlagDel {
		return nil, nil
	}
	if m, ok := s.members[addr]; ok {
		return m, nil
	}
	key := []byte(fmt.Sprintf(KeyMemberBody, addr.Bytes()))
	val, err := s.db.Get(key)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	if val == nil {
		return nil, nil
	}
	m := new(Member)
	if err = json.Unmarshal(val, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *State) getProposal(id common.Hash) (*Proposal, error) {
	if p, ok := s.modProposals[id]; ok {
		return p, nil
	}
	key := []byte(fmt.Sprintf(KeyProposalBody, id.Bytes()))
	val, err := s.db.Get(key)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, ErrProposalNoexists
		}
		return nil, err
	}
	if val == nil {
		return nil, ErrProposalNoexists
	}
	p := new(Proposal)
	if err = json.Unmarshal(val, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *State) Header() *StateHeader {
	return s.header
}

func (s *State) SetChainId(chainId string) {
	s.header.ChainId = chainId
}

func (s *State) Hash() (h common.Hash) {
	if s.header.Hash != nil {
		copy(h[:], s.header.Hash)
	}
	return
}

// JoinVerifier admits a new staked member with stake-derived voting
// weight. The stake is held in the stake pool, never in the treasury.
func (s *State) JoinVerifier(sender common.Address, tx *JoinVerifierTx, now time.Time) (*types.EventMemberJoined, error) {
	s.logger.Debug("apply join verifier", "sender", sender.Hex(), "stake", tx.Stake)
	m, err := s.FindMember(sender)
	if err != nil {
		return nil, err
	}
	if m != nil {
		return nil, ErrAlreadyMember
	}
	if tx.Stake < MinVerifierStake {
		return nil, ErrInsufficientStake
	}
	m = &Member{
		Address:  sender,
		Role:     RoleVerifier,
		Stake:    tx.Stake,
		Weight:   VotingWeight(tx.Stake),
		JoinedAt: now.Unix(),
	}
	s.members[sender] = m
	s.modifiedMembers[sender] = ModifiedFlagNew
	s.header.StakePool += tx.Stake
	return &types.EventMemberJoined{
		Address: sender.Hex(),
		Role:    string(RoleVerifier),
		Stake:   tx.Stake,
		Weight:  m.Weight,
	}, nil
}

// JoinAgent admits a stakeless member with the fixed agent weight.
func (s *State) JoinAgent(sender common.Address, now time.Time) (*types.EventMemberJoined, error) {
	s.logger.Debug("apply join agent", "sender", sender.Hex())
	m, err := s.FindMember(sender)
	if err != nil {
		return nil, err
	}
	if m != nil {
		return nil, ErrAlreadyMember
	}
	m = &Member{
		Address:  sender,
		Role:     RoleAgent,
		Weight:   AgentWeight,
		JoinedAt: now.Unix(),
	}
	s.members[sender] = m
	s.modifiedMembers[sender] = ModifiedFlagNew
	return &types.EventMemberJoined{
		Address: sender.Hex(),
		Role:    string(RoleAgent),
		Weight:  AgentWeight,
	}, nil
}

// Leave refunds the full recorded stake and removes the member. Refused
// while the member has voted on any proposal whose deadline has not yet
// passed; that blocks stake-and-flee manipulation of quorum.
func (s *State) Leave(sender common.Address, now time.Time) (*types.EventMemberLeft, error) {
	s.logger.Debug("apply leave", "sender", sender.Hex())
	m, err := s.FindMember(sender)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotMember
	}
	for _, pid := range m.ActiveVotes {
		p, err := s.getProposal(pid)
		if err != nil {
			return nil, err
		}
		if p.Status(now) == ProposalStatusActive {
			return nil, ErrVotesPending
		}
	}
	refund := m.Stake
	s.header.StakePool -= refund
	delete(s.members, sender)
	s.modifiedMembers[sender] = ModifiedFlagDel
	return &types.EventMemberLeft{
		Address: sender.Hex(),
		Refund:  refund,
	}, nil
}

// CreateProposal records a new proposal with a deterministic id and a
// deadline one voting window from creation.
func (s *State) CreateProposal(sender common.Address, tx *CreateProposalTx, now time.Time) (*types.EventProposalCreated, error) {
	m, err := s.FindMember(sender)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotMember
	}
	if tx.Description == "" {
		return nil, ErrEmptyDescription
	}
	createdAt := tx.CreatedAt
	if createdAt == 0 {
		createdAt = now.Unix()
	}
	id := ProposalID(tx.ContentRef, createdAt)
	if _, err := s.getProposal(id); err == nil {
		return nil, ErrProposalExists
	} else if err != ErrProposalNoexists {
		return nil, err
	}
	p := &Proposal{
		ID:          id,
		ContentRef:  tx.ContentRef,
		Description: tx.Description,
		Proposer:    sender,
		Beneficiary: tx.Beneficiary,
		Amount:      tx.Amount,
		CreatedAt:   createdAt,
		Deadline:    createdAt + int64(s.votingWindow/time.Second),
		Voted:       map[string]bool{},
	}
	s.modProposals[id] = p
	s.logger.Debug("apply create proposal", "proposal", id.Hex(), "proposer", sender.Hex(), "deadline", p.Deadline)
	return &types.EventProposalCreated{
		ProposalID: id,
		Proposer:   sender.Hex(),
		Amount:     tx.Amount,
		Deadline:   p.Deadline,
	}, nil
}

// Vote tallies one member's vote with their current voting weight. Only
// before the deadline, only once per member per proposal.
func (s *State) Vote(sender common.Address, tx *VoteTx, now time.Time) (*types.EventVoted, error) {
	m, err := s.FindMember(sender)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotMember
	}
	p, err := s.getProposal(tx.Proposal)
	if err != nil {
		return nil, err
	}
	if now.Unix() > p.Deadline {
		return nil, ErrVotingClosed
	}
	if p.HasVoted(sender) {
		return nil, ErrAlreadyVoted
	}
	if tx.Support {
		p.ForVotes += m.Weight
	} else {
		p.AgainstVotes += m.Weight
	}
	if p.Voted == nil {
		p.Voted = map[string]bool{}
	}
	p.Voted[sender.Hex()] = true
	s.modProposals[tx.Proposal] = p

	m.ActiveVotes = append(m.ActiveVotes, tx.Proposal)
	s.members[sender] = m
	s.modifiedMembers[sender] |= ModifiedFlagMod

	s.logger.Debug("apply vote", "proposal", tx.Proposal.Hex(), "voter", sender.Hex(),
		"support", tx.Support, "weight", m.Weight)
	return &types.EventVoted{
		ProposalID: tx.Proposal,
		Voter:      sender.Hex(),
		Support:    tx.Support,
		Weight:     m.Weight,
	}, nil
}

// Execute releases the requested amount from the treasury for a passed,
// not-yet-executed proposal.
func (s *State) Execute(sender common.Address, tx *ExecuteTx, now time.Time) (*types.EventProposalExecuted, error) {
	m, err := s.FindMember(sender)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotMember
	}
	p, err := s.getProposal(tx.Proposal)
	if err != nil {
		return nil, err
	}
	switch p.Status(now) {
	case ProposalStatusExecuted:
		return nil, ErrAlreadyExecuted
	case ProposalStatusPassed:
	default:
		return nil, ErrNotPassed
	}
	if s.header.Treasury < p.Amount {
		return nil, ErrInsufficientFunds
	}
	s.header.Treasury -= p.Amount
	p.Executed = true
	s.modProposals[tx.Proposal] = p
	s.logger.Debug("apply execute", "proposal", tx.Proposal.Hex(), "amount", p.Amount)
	return &types.EventProposalExecuted{
		ProposalID:  tx.Proposal,
		Beneficiary: p.Beneficiary.Hex(),
		Amount:      p.Amount,
	}, nil
}

// Deposit credits the treasury.
func (s *State) Deposit(sender common.Address, tx *DepositTx) error {
	m, err := s.FindMember(sender)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrNotMember
	}
	s.header.Treasury += tx.Amount
	s.logger.Debug("apply deposit", "sender", sender.Hex(), "amount", tx.Amount)
	return nil
}

// Verify checks a tx signature and nonce against the sender's account.
// Join transactions have no account yet and only need a valid signature.
func (s *State) Verify(tx *Tx) error {
	if tx.Version != TxVersion1 {
		return ErrInvalidTx
	}
	if err := tx.VerifySig([]byte(s.header.ChainId)); err != nil {
		return err
	}
	if tx.Type == TxTypeJoinVerifier || tx.Type == TxTypeJoinAgent {
		return nil
	}
	m, err := s.FindMember(tx.Sender)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrNotMember
	}
	if m.Nonce != tx.Nonce {
		return ErrNonceInvalid
	}
	return nil
}

// bumpNonce advances the sender's account after a successful non-join
// application.
func (s *State) bumpNonce(sender common.Address) {
	m, ok := s.members[sender]
	if !ok {
		return
	}
	m.Nonce += 1
	s.modifiedMembers[sender] |= ModifiedFlagMod
}

func PrefixEndBytes(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}

	end := make([]byte, len(prefix))
	copy(end, prefix)

	for {
		if end[len(end)-1] != byte(255) {
			end[len(end)-1]++
			break
		}

		end = end[:len(end)-1]

		if len(end) == 0 {
			end = nil
			break
		}
	}

	return end
}
