package siwe

import (
	"context"
	"fmt"
	"time"

	"github.com/BeArt-PDD/beart-labs/internal/nonce"
)

// Verifier checks signed SIWE messages. Cheap policy checks run before
// signature recovery, and the nonce is consumed only after the signature
// has been proven, so a forged attempt cannot burn a legitimate nonce.
type Verifier struct {
	store     nonce.Store
	recoverer Recoverer
	now       func() time.Time

	// maxAge bounds how long after IssuedAt a message is accepted, and how
	// far in the future IssuedAt may lie (plus clockSkew). Zero disables it.
	maxAge    time.Duration
	clockSkew time.Duration
}

type VerifierOption func(*Verifier)

func WithRecoverer(r Recoverer) VerifierOption {
	return func(v *Verifier) {
		v.recoverer = r
	}
}

func WithVerifierClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		v.now = now
	}
}

// WithMaxMessageAge rejects messages issued more than age ago, or more than
// skew in the future, even when they carry no expiration time.
func WithMaxMessageAge(age, skew time.Duration) VerifierOption {
	return func(v *Verifier) {
		v.maxAge = age
		v.clockSkew = skew
	}
}

func NewVerifier(store nonce.Store, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		store:     store,
		recoverer: EIP191Recoverer{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Scheme names the signature scheme signers are recovered with.
func (v *Verifier) Scheme() string {
	return v.recoverer.Scheme()
}

// Verify checks text and signature against the expected domain and chain.
// An empty claimedAddress means the address in the message is the claim.
// Every problem with the caller's input is reported as a rejected Result;
// the returned error is non-nil only when the nonce store fails.
func (v *Verifier) Verify(ctx context.Context, text, signature, claimedAddress, expectedDomain string, expectedChainID int64) (Result, error) {
	msg, err := ParseMessage(text)
	if err != nil {
		return rejected(ReasonMalformedMessage, err.Error()), nil
	}

	if msg.Domain != expectedDomain {
		return rejected(ReasonDomainMismatch, fmt.Sprintf("message domain %q does not match %q", msg.Domain, expectedDomain)), nil
	}

	if msg.ChainID != expectedChainID {
		return rejected(ReasonChainMismatch, fmt.Sprintf("message chain %d does not match %d", msg.ChainID, expectedChainID)), nil
	}

	now := v.now().UTC()
	if ok, reason := msg.ValidAt(now); !ok {
		return rejected(reason, fmt.Sprintf("message is not valid at %s", formatTime(now))), nil
	}

	if v.maxAge > 0 {
		if now.After(msg.IssuedAt.Add(v.maxAge)) {
			return rejected(ReasonExpired, "message was issued too long ago"), nil
		}
		if msg.IssuedAt.After(now.Add(v.clockSkew)) {
			return rejected(ReasonNotYetValid, "message was issued in the future"), nil
		}
	}

	if claimedAddress != "" && claimedAddress != msg.Address {
		return rejected(ReasonSignatureInvalid, "claimed address does not match message address"), nil
	}

	recovered, err := v.recoverer.Recover([]byte(text), signature)
	if err != nil {
		return rejected(ReasonSignatureInvalid, err.Error()), nil
	}
	if !sameAddress(recovered, msg.Address) {
		return rejected(ReasonSignatureInvalid, "signature does not match address in message"), nil
	}

	consumed, err := v.store.ConsumeIfValid(ctx, msg.Nonce)
	if err != nil {
		return Result{}, fmt.Errorf("siwe: nonce store unavailable: %w", err)
	}
	if !consumed {
		return rejected(ReasonNonceReplay, "nonce was not issued, has expired or was already used"), nil
	}

	return accepted(msg), nil
}
