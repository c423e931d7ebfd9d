package siwe

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Recoverer recovers the signing account from a signature over message.
// Each account family (secp256k1 personal_sign, contract wallets, other
// chains) supplies its own implementation.
type Recoverer interface {
	Scheme() string
	Recover(message []byte, signature string) (string, error)
}

// EIP191Recoverer recovers Ethereum addresses from personal_sign
// signatures ("\x19Ethereum Signed Message:\n" + len + message).
type EIP191Recoverer struct{}

func (EIP191Recoverer) Scheme() string {
	return "eip191"
}

// Recover returns the EIP-55 address that produced signatureHex, a 0x-hex
// [R || S || V] signature with V in {0, 1, 27, 28}.
func (EIP191Recoverer) Recover(message []byte, signatureHex string) (string, error) {
	sig, err := hexutil.Decode(signatureHex)
	if err != nil || len(sig) != crypto.SignatureLength {
		return "", ErrInvalidSignature
	}

	// Normalize V if needed
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return "", fmt.Errorf("siwe: invalid signature recovery id %d", sig[crypto.RecoveryIDOffset])
	}

	hash := accounts.TextHash(message)

	pubKey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return "", fmt.Errorf("siwe: failed to recover public key: %w", err)
	}

	return crypto.PubkeyToAddress(*pubKey).Hex(), nil
}

// VerifySignature reports whether signatureHex over the text of m recovers
// to m.Address.
func (m *Message) VerifySignature(r Recoverer, signatureHex string) bool {
	recovered, err := r.Recover([]byte(m.Text()), signatureHex)
	if err != nil {
		return false
	}
	return sameAddress(recovered, m.Address)
}
