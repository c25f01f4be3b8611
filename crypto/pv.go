package crypto

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	eth_crypto "github.com/ethereum/go-ethereum/crypto"
)

// PV holds the operator's secp256k1 signing key.
type PV struct {
	privateKey *ecdsa.PrivateKey
}

// GenerateFilePV creates a fresh key and writes it hex-encoded to
// keyFilePath.
func GenerateFilePV(keyFilePath string) (*PV, error) {
	priv, err := eth_crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	d := eth_crypto.FromECDSA(priv)
	key := hex.EncodeToString(d)
	if err := os.WriteFile(keyFilePath, []byte(key), 0o600); err != nil {
		return nil, fmt.Errorf("write private key: %w", err)
	}
	return &PV{privateKey: priv}, nil
}

// LoadFilePV reads a hex-encoded secp256k1 key from keyFilePath.
func LoadFilePV(keyFilePath string) (*PV, error) {
	keyBytes, err := os.ReadFile(keyFilePath)
	if err != nil {
		return nil, err
	}
	priv, err := eth_crypto.HexToECDSA(strings.TrimSpace(string(keyBytes)))
	if err != nil {
		return nil, fmt.Errorf("reading private key from %v: %w", keyFilePath, err)
	}
	return &PV{privateKey: priv}, nil
}

func (k *PV) Key() *ecdsa.PrivateKey {
	return k.privateKey
}

func (k *PV) Address() common.Address {
	return eth_crypto.PubkeyToAddress(k.privateKey.PublicKey)
}

func (k *PV) Sign(data []byte) ([]byte, error) {
	return eth_crypto.Sign(eth_crypto.Keccak256(data), k.privateKey)
}
