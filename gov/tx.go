package gov

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	eth_crypto "github.com/ethereum/go-ethereum/crypto"
)

type TxType uint8

const (
	TxTypeUnknown        TxType = 0
	TxTypeJoinVerifier   TxType = 1
	TxTypeJoinAgent      TxType = 2
	TxTypeLeave          TxType = 3
	TxTypeCreateProposal TxType = 4
	TxTypeVote           TxType = 5
	TxTypeExecute        TxType = 6
	TxTypeDeposit        TxType = 7
)

const (
	TxVersion1 uint8 = 1
)

var (
	ErrInvalidTx         = errors.New("invalid tx")
	ErrUnsupportedTxType = errors.New("unsupported tx type")
)

// Tx is the signed envelope every state-changing governance call travels
// in. The signature covers the JSON encoding with the chain id in place
// of the signature itself.
type Tx struct {
	Version uint8          `json:"version"`
	Type    TxType         `json:"type"`
	Nonce   uint64         `json:"nonce"`
	Sender  common.Address `json:"sender"`
	Tx      any            `json:"tx"`
	Sig     []byte         `json:"sig"`
}

type JoinVerifierTx struct {
	Stake uint64 `json:"stake"`
}

type JoinAgentTx struct{}

type LeaveTx struct{}

type CreateProposalTx struct {
	Description string         `json:"description"`
	Beneficiary common.Address `json:"beneficiary"`
	Amount      uint64         `json:"amount"`
	ContentRef  common.Hash    `json:"contentRef"`
	CreatedAt   int64          `json:"createdAt"`
}

type VoteTx struct {
	Proposal common.Hash `json:"proposal"`
	Support  bool        `json:"support"`
}

type ExecuteTx struct {
	Proposal common.Hash `json:"proposal"`
}

type DepositTx struct {
	Amount uint64 `json:"amount"`
}

type txTmpl[T any] struct {
	Version uint8          `json:"version"`
	Type    TxType         `json:"type"`
	Nonce   uint64         `json:"nonce"`
	Sender  common.Address `json:"sender"`
	Tx      T              `json:"tx"`
	Sig     []byte         `json:"sig"`
}

// SigData is the byte string a sender signs: the tx with the chain id
// substituted for the signature.
func (tx *Tx) SigData(chainID []byte) ([]byte, error) {
	ntx := *tx
	ntx.Sig = chainID
	return json.Marshal(ntx)
}

// Sign signs the tx with a secp256k1 private key and stores the
// recoverable signature.
func (tx *Tx) Sign(chainID []byte, key *ecdsa.PrivateKey) error {
	dat, err := tx.SigData(chainID)
	if err != nil {
		return err
	}
	sig, err := eth_crypto.Sign(eth_crypto.Keccak256(dat), key)
	if err != nil {
		return err
	}
	tx.Sig = sig
	return nil
}

// VerifySig recovers the signer from the signature and checks it matches
// the declared sender.
func (tx *Tx) VerifySig(chainID []byte) error {
	if len(tx.Sig) == 0 {
		return ErrSigInvalid
	}
	dat, err := tx.SigData(chainID)
	if err != nil {
		return err
	}
	pub, err := eth_crypto.SigToPub(eth_crypto.Keccak256(dat), tx.Sig)
	if err != nil {
		return ErrSigInvalid
	}
	if eth_crypto.PubkeyToAddress(*pub) != tx.Sender {
		return ErrSigInvalid
	}
	return nil
}

func parseTxType(dat []byte) TxType {
	var tx struct {
		Type TxType `json:"type"`
	}
	if err := json.Unmarshal(dat, &tx); err != nil {
		return TxTypeUnknown
	}
	return tx.Type
}

func unmarshalTx[T any](dat []byte) (*Tx, error) {
	var txt txTmpl[T]
	if err := json.Unmarshal(dat, &txt); err != nil {
		return nil, err
	}
	btx := &Tx{
		Version: txt.Version,
		Type:    txt.Type,
		Nonce:   txt.Nonce,
		Sender:  txt.Sender,
		Tx:      &txt.Tx,
		Sig:     txt.Sig,
	}
	return btx, nil
}

func UnmarshalTx(dat []byte) (*Tx, error) {
	switch parseTxType(dat) {
	case TxTypeJoinVerifier:
		return unmarshalTx[JoinVerifierTx](dat)
	case TxTypeJoinAgent:
		return unmarshalTx[JoinAgentTx](dat)
	case TxTypeLeave:
		return unmarshalTx[LeaveTx](dat)
	case TxTypeCreateProposal:
		return unmarshalTx[CreateProposalTx](dat)
	case TxTypeVote:
		return unmarshalTx[VoteTx](dat)
	case TxTypeExecute:
		return unmarshalTx[ExecuteTx](dat)
	case TxTypeDeposit:
		return unmarshalTx[DepositTx](dat)
	default:
		return nil, ErrUnsupportedTxType
	}
}

func MarshalTx(btx *Tx) ([]byte, error) {
	return json.Marshal(btx)
}
