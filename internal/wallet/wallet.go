// Package wallet is the signing side of Sign-In with Ethereum.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrInvalidChainID = errors.New("wallet: chain id must be positive")

// Wallet is whatever holds the user's key: a browser extension, a hardware
// device or a local key. SignMessage must produce an EIP-191 personal_sign
// signature over the exact bytes given.
type Wallet interface {
	Address(ctx context.Context) (string, error)
	ChainID(ctx context.Context) (int64, error)
	SignMessage(ctx context.Context, message []byte) (string, error)
}

// LocalWallet signs with a private key held in memory.
type LocalWallet struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    int64
}

var _ Wallet = (*LocalWallet)(nil)

// Generate creates a new random wallet on chainID.
func Generate(chainID int64) (*LocalWallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	return fromKey(key, chainID)
}

// FromHex creates a wallet from a hex-encoded private key, with or without 0x.
func FromHex(hexKey string, chainID int64) (*LocalWallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return fromKey(key, chainID)
}

// FromKeyFile loads a wallet from a file holding a hex-encoded private key.
func FromKeyFile(path string, chainID int64) (*LocalWallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	return FromHex(string(data), chainID)
}

func fromKey(key *ecdsa.PrivateKey, chainID int64) (*LocalWallet, error) {
	if chainID <= 0 {
		return nil, ErrInvalidChainID
	}
	return &LocalWallet{
		privateKey: key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
		chainID:    chainID,
	}, nil
}

// Address returns the EIP-55 checksummed address.
func (w *LocalWallet) Address(context.Context) (string, error) {
	return w.address.Hex(), nil
}

func (w *LocalWallet) ChainID(context.Context) (int64, error) {
	return w.chainID, nil
}

// SignMessage signs message with personal_sign semantics. V is 27 or 28.
func (w *LocalWallet) SignMessage(ctx context.Context, message []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sig, err := crypto.Sign(accounts.TextHash(message), w.privateKey)
	if err != nil {
		return "", fmt.Errorf("signing message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// PrivateKeyHex returns the private key as hex without the 0x prefix.
func (w *LocalWallet) PrivateKeyHex() string {
	return common.Bytes2Hex(crypto.FromECDSA(w.privateKey))
}

// SaveKeyFile writes the private key to path, readable by the owner only.
func (w *LocalWallet) SaveKeyFile(path string) error {
	return os.WriteFile(path, []byte(w.PrivateKeyHex()+"\n"), 0o600)
}
