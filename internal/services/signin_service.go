package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/BeArt-PDD/beart-labs/internal/config"
	"github.com/BeArt-PDD/beart-labs/internal/events"
	"github.com/BeArt-PDD/beart-labs/internal/metrics"
	"github.com/BeArt-PDD/beart-labs/internal/nonce"
	"github.com/BeArt-PDD/beart-labs/internal/siwe"
	"github.com/BeArt-PDD/beart-labs/internal/utils"
	"github.com/BeArt-PDD/beart-labs/internal/wallet"
)

var (
	ErrChainNotAccepted   = errors.New("signin: chain is not accepted by this service")
	ErrSessionUnavailable = errors.New("signin: session could not be issued")
)

// MessageRequest is what a client asks to sign in with. Zero values fall
// back to the configured relying-party defaults.
type MessageRequest struct {
	Address   string
	ChainID   int64
	Statement string
	RequestID string
	Resources []string
}

// SessionIssuer turns an accepted sign-in into a session. *SessionService
// implements it.
type SessionIssuer interface {
	Issue(result siwe.Result) (*Session, error)
}

// SignedMessage is a message together with the wallet's signature over it.
type SignedMessage struct {
	Message   string
	Signature string
	Nonce     string
}

// SignInService drives the whole sign-in flow for one relying party:
// message preparation, verification, session issuance and notification.
type SignInService struct {
	cfg       config.SIWEConfig
	store     nonce.Store
	builder   *siwe.Builder
	verifier  *siwe.Verifier
	sessions  SessionIssuer
	publisher events.Publisher
	chains    *utils.ChainRegistry
	now       func() time.Time
}

// NewSignInService creates a new SignInService instance. The builder and
// verifier share store, which is what makes nonces single-use.
func NewSignInService(cfg config.SIWEConfig, store nonce.Store, sessions SessionIssuer, publisher events.Publisher, chains *utils.ChainRegistry) *SignInService {
	return newSignInService(cfg, store, sessions, publisher, chains, time.Now)
}

func newSignInService(cfg config.SIWEConfig, store nonce.Store, sessions SessionIssuer, publisher events.Publisher, chains *utils.ChainRegistry, now func() time.Time) *SignInService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if chains == nil {
		chains = utils.GlobalChainRegistry
	}

	verifierOpts := []siwe.VerifierOption{siwe.WithVerifierClock(now)}
	if cfg.MaxMessageAge > 0 {
		verifierOpts = append(verifierOpts, siwe.WithMaxMessageAge(cfg.MaxMessageAge, cfg.ClockSkew))
	}

	return &SignInService{
		cfg:       cfg,
		store:     store,
		builder:   siwe.NewBuilder(store, siwe.WithDefaultTTL(cfg.NonceTTL), siwe.WithBuilderClock(now)),
		verifier:  siwe.NewVerifier(store, verifierOpts...),
		sessions:  sessions,
		publisher: publisher,
		chains:    chains,
		now:       now,
	}
}

// IssueNonce registers a bare nonce for clients that assemble the message
// themselves. The returned nonce must appear verbatim in that message.
func (s *SignInService) IssueNonce(ctx context.Context) (string, time.Time, error) {
	value, err := nonce.Generate()
	if err != nil {
		return "", time.Time{}, err
	}
	if err := s.store.Issue(ctx, value, s.cfg.NonceTTL); err != nil {
		metrics.NonceStoreErrors.WithLabelValues("issue").Inc()
		return "", time.Time{}, fmt.Errorf("signin: failed to issue nonce: %w", err)
	}
	return value, s.now().Add(s.cfg.NonceTTL), nil
}

// PrepareMessage builds the canonical message the wallet will be asked to sign
func (s *SignInService) PrepareMessage(ctx context.Context, req MessageRequest) (string, *siwe.Message, error) {
	chainID := req.ChainID
	if chainID == 0 {
		chainID = s.cfg.ChainID
	}
	if !s.cfg.AcceptsChain(chainID) {
		return "", nil, fmt.Errorf("%w: %d", ErrChainNotAccepted, chainID)
	}

	statement := req.Statement
	if statement == "" {
		statement = s.cfg.Statement
	}

	fields := siwe.Fields{
		Domain:    s.cfg.Domain,
		Address:   utils.NormalizeEvmAddress(req.Address),
		Statement: statement,
		URI:       s.cfg.URI,
		ChainID:   chainID,
		RequestID: req.RequestID,
		Resources: req.Resources,
	}
	if s.cfg.MessageTTL > 0 {
		expiration := s.now().Add(s.cfg.MessageTTL)
		fields.ExpirationTime = &expiration
	}

	text, msg, err := s.builder.Build(ctx, fields)
	if err != nil {
		if !errors.Is(err, siwe.ErrInvalidField) {
			metrics.NonceStoreErrors.WithLabelValues("issue").Inc()
		}
		return "", nil, err
	}

	metrics.MessagesIssued.WithLabelValues(s.chains.Name(chainID)).Inc()
	logrus.WithFields(logrus.Fields{
		"address": utils.ShortAddress(msg.Address),
		"chain":   chainID,
	}).Debug("📝 Prepared sign-in message")

	return text, msg, nil
}

// SignWithWallet is the client half of the flow: ask the wallet who it is,
// prepare a message for it and have it signed.
func (s *SignInService) SignWithWallet(ctx context.Context, w wallet.Wallet, statement string) (SignedMessage, error) {
	address, err := w.Address(ctx)
	if err != nil {
		return SignedMessage{}, fmt.Errorf("signin: wallet address: %w", err)
	}
	chainID, err := w.ChainID(ctx)
	if err != nil {
		return SignedMessage{}, fmt.Errorf("signin: wallet chain: %w", err)
	}

	text, msg, err := s.PrepareMessage(ctx, MessageRequest{
		Address:   address,
		ChainID:   chainID,
		Statement: statement,
	})
	if err != nil {
		return SignedMessage{}, err
	}

	signature, err := w.SignMessage(ctx, []byte(text))
	if err != nil {
		return SignedMessage{}, fmt.Errorf("signin: wallet refused to sign: %w", err)
	}

	return SignedMessage{Message: text, Signature: signature, Nonce: msg.Nonce}, nil
}

// Authenticate verifies a signed message and, when accepted, issues a
// session. Rejections come back as a Result with a nil error; the error is
// set only when the nonce store or token signing fails. A token signing
// failure leaves the nonce spent, so the client has to start over with a
// fresh message.
func (s *SignInService) Authenticate(ctx context.Context, text, signature, claimedAddress string) (siwe.Result, *Session, error) {
	expectedChain := s.expectedChain(text)

	start := time.Now()
	result, err := s.verifier.Verify(ctx, text, signature, claimedAddress, s.cfg.Domain, expectedChain)
	metrics.VerificationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.NonceStoreErrors.WithLabelValues("consume").Inc()
		logrus.WithError(err).Error("❌ Sign-in verification failed")
		return siwe.Result{}, nil, err
	}

	s.record(ctx, result, expectedChain)

	if !result.Accepted {
		return result, nil, nil
	}

	session, err := s.sessions.Issue(result)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"address": utils.ShortAddress(result.Address),
			"nonce":   result.Nonce,
		}).WithError(err).Error("❌ Session issue failed after the nonce was spent, client must sign in again")
		return result, nil, fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}
	metrics.SessionsIssued.Inc()
	return result, session, nil
}

// expectedChain is the chain a message is checked against: its own chain
// when that one is accepted, otherwise the default chain so the mismatch is
// reported.
func (s *SignInService) expectedChain(text string) int64 {
	if msg, err := siwe.ParseMessage(text); err == nil && s.cfg.AcceptsChain(msg.ChainID) {
		return msg.ChainID
	}
	return s.cfg.ChainID
}

func (s *SignInService) record(ctx context.Context, result siwe.Result, chainID int64) {
	outcome := "accepted"
	if !result.Accepted {
		outcome = "rejected"
	}
	chain := s.chains.Name(chainID)
	metrics.Verifications.WithLabelValues(chain, outcome, string(result.Reason)).Inc()

	fields := logrus.Fields{
		"result": outcome,
		"chain":  chainID,
		"scheme": s.verifier.Scheme(),
	}
	if result.Accepted {
		fields["address"] = utils.ShortAddress(result.Address)
		logrus.WithFields(fields).Info("✅ Sign-in accepted")
	} else {
		fields["reason"] = result.Reason
		fields["detail"] = result.Detail
		logrus.WithFields(fields).Warn("⚠️ Sign-in rejected")
	}

	event := events.SignInEvent{
		EventID:   uuid.NewString(),
		Accepted:  result.Accepted,
		Address:   result.Address,
		ChainID:   result.ChainID,
		Domain:    s.cfg.Domain,
		Nonce:     result.Nonce,
		Reason:    string(result.Reason),
		Scheme:    s.verifier.Scheme(),
		Timestamp: s.now().UTC(),
	}
	if err := s.publisher.PublishSignIn(ctx, event); err != nil {
		logrus.WithError(err).Warn("⚠️ Failed to publish sign-in event")
	}
}
