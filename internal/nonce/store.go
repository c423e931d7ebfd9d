// Package nonce issues and consumes single-use sign-in nonces.
package nonce

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// DefaultTTL is how long an issued nonce stays valid when the message
// carries no expiration time.
const DefaultTTL = 10 * time.Minute

// nonceBytes is the entropy of a generated nonce (128 bits).
const nonceBytes = 16

// MaxLength bounds a stored nonce; it matches the siwe_nonces column size.
const MaxLength = 64

var (
	ErrDuplicate = errors.New("nonce: already issued")
	ErrEmpty     = errors.New("nonce: value must not be empty")
	ErrTooLong   = errors.New("nonce: value is longer than 64 characters")
	ErrTTL       = errors.New("nonce: ttl must be positive")
)

// Store is the replay-protection backend. ConsumeIfValid must check and
// delete in a single atomic step so that two concurrent verifications of
// the same nonce cannot both succeed. SweepExpired must likewise delete only
// rows that are expired at the moment of deletion.
type Store interface {
	Issue(ctx context.Context, nonce string, ttl time.Duration) error
	ConsumeIfValid(ctx context.Context, nonce string) (bool, error)
	SweepExpired(ctx context.Context) (int64, error)
}

// Generate returns a fresh hex-encoded random nonce.
func Generate() (string, error) {
	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("nonce: failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ValidateIssue applies the argument checks shared by every Store
// implementation's Issue.
func ValidateIssue(nonce string, ttl time.Duration) error {
	if nonce == "" {
		return ErrEmpty
	}
	if len(nonce) > MaxLength {
		return ErrTooLong
	}
	if ttl <= 0 {
		return ErrTTL
	}
	return nil
}
