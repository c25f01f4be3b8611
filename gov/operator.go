package gov

import (
	"context"
	"crypto/ecdsa"
	"sync"
	"time"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"
	eth_crypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/narasim-teja/tars/types"
)

// EventSink receives the events of each applied transaction, typically
// the query-side index.
type EventSink interface {
	AppendEvents(events []types.Event) error
}

// Operator signs and submits governance transactions for one key. It is
// the programmatic face of the contract surface. Its mutex spans the
// nonce read and the apply, so concurrent submissions for the same key
// draw consecutive nonces.
type Operator struct {
	mtx    sync.Mutex
	db     *StateDB
	key    *ecdsa.PrivateKey
	addr   common.Address
	sink   EventSink
	logger log.Logger
}

func NewOperator(db *StateDB, key *ecdsa.PrivateKey, sink EventSink, logger log.Logger) *Operator {
	return &Operator{
		db:     db,
		key:    key,
		addr:   eth_crypto.PubkeyToAddress(key.PublicKey),
		sink:   sink,
		logger: logger.With("module", "gov"),
	}
}

func (o *Operator) Address() common.Address {
	return o.addr
}

func (o *Operator) apply(txType TxType, payload any) (txRef string, events []types.Event, err error) {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	var nonce uint64
	if txType != TxTypeJoinVerifier && txType != TxTypeJoinAgent {
		m, err := o.db.GetMember(o.addr)
		if err != nil {
			return "", nil, err
		}
		nonce = m.Nonce
	}
	btx := &Tx{
		Version: TxVersion1,
		Type:    txType,
		Nonce:   nonce,
		Sender:  o.addr,
		Tx:      payload,
	}
	if err = btx.Sign([]byte(o.db.ChainId()), o.key); err != nil {
		return "", nil, err
	}
	dat, err := MarshalTx(btx)
	if err != nil {
		return "", nil, err
	}
	txRef = eth_crypto.Keccak256Hash(dat).Hex()
	events, err = o.db.Apply(btx, time.Now())
	if err != nil {
		o.logger.Error("apply tx fail", "type", txType, "err", err)
		return "", nil, err
	}
	if o.sink != nil && len(events) > 0 {
		if err := o.sink.AppendEvents(events); err != nil {
			o.logger.Error("index events fail", "err", err)
		}
	}
	return txRef, events, nil
}

func (o *Operator) JoinAsVerifier(stake uint64) (string, error) {
	txRef, _, err := o.apply(TxTypeJoinVerifier, &JoinVerifierTx{Stake: stake})
	return txRef, err
}

func (o *Operator) JoinAsAgent() (string, error) {
	txRef, _, err := o.apply(TxTypeJoinAgent, &JoinAgentTx{})
	return txRef, err
}

func (o *Operator) LeaveDAO() (string, error) {
	txRef, _, err := o.apply(TxTypeLeave, &LeaveTx{})
	return txRef, err
}

// CreateProposal submits the proposal transaction and reports the derived
// proposal id.
func (o *Operator) CreateProposal(ctx context.Context, description string, beneficiary common.Address, amount uint64, contentRef common.Hash) (common.Hash, string, error) {
	if err := ctx.Err(); err != nil {
		return common.Hash{}, "", err
	}
	createdAt := time.Now().Unix()
	txRef, _, err := o.apply(TxTypeCreateProposal, &CreateProposalTx{
		Description: description,
		Beneficiary: beneficiary,
		Amount:      amount,
		ContentRef:  contentRef,
		CreatedAt:   createdAt,
	})
	if err != nil {
		return common.Hash{}, "", err
	}
	return ProposalID(contentRef, createdAt), txRef, nil
}

func (o *Operator) Vote(proposal common.Hash, support bool) (string, error) {
	txRef, _, err := o.apply(TxTypeVote, &VoteTx{Proposal: proposal, Support: support})
	return txRef, err
}

func (o *Operator) ExecuteProposal(proposal common.Hash) (string, error) {
	txRef, _, err := o.apply(TxTypeExecute, &ExecuteTx{Proposal: proposal})
	return txRef, err
}

func (o *Operator) Deposit(amount uint64) (string, error) {
	txRef, _, err := o.apply(TxTypeDeposit, &DepositTx{Amount: amount})
	return txRef, err
}
