package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeArt-PDD/beart-labs/internal/config"
	"github.com/BeArt-PDD/beart-labs/internal/events"
	"github.com/BeArt-PDD/beart-labs/internal/nonce"
	"github.com/BeArt-PDD/beart-labs/internal/nonce/noncetest"
	"github.com/BeArt-PDD/beart-labs/internal/siwe"
	"github.com/BeArt-PDD/beart-labs/internal/wallet"
)

var testStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testSIWEConfig() config.SIWEConfig {
	return config.SIWEConfig{
		Domain:     "app.example",
		URI:        "https://app.example",
		ChainID:    1,
		Statement:  "Sign in to app.example",
		NonceTTL:   10 * time.Minute,
		MessageTTL: 5 * time.Minute,
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.SignInEvent
	err    error
}

func (p *recordingPublisher) PublishSignIn(_ context.Context, event events.SignInEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type signInFixture struct {
	clock     *noncetest.Clock
	store     *nonce.MemoryStore
	sessions  *SessionService
	publisher *recordingPublisher
	service   *SignInService
	wallet    *wallet.LocalWallet
}

func newSignInFixture(t *testing.T, cfg config.SIWEConfig) *signInFixture {
	t.Helper()

	clock := noncetest.NewClock(testStart)
	store := nonce.NewMemoryStoreWithClock(clock.Now)
	sessions := NewSessionService([]byte("test-secret"), "siwe-test", time.Hour).WithClock(clock.Now)
	publisher := &recordingPublisher{}

	w, err := wallet.Generate(cfg.ChainID)
	require.NoError(t, err)

	return &signInFixture{
		clock:     clock,
		store:     store,
		sessions:  sessions,
		publisher: publisher,
		service:   newSignInService(cfg, store, sessions, publisher, nil, clock.Now),
		wallet:    w,
	}
}

func TestSignInFlow(t *testing.T) {
	f := newSignInFixture(t, testSIWEConfig())
	ctx := context.Background()

	signed, err := f.service.SignWithWallet(ctx, f.wallet, "")
	require.NoError(t, err)
	assert.Contains(t, signed.Message, "Sign in to app.example")
	assert.Contains(t, signed.Message, "Expiration Time: 2025-06-01T12:05:00Z")

	result, session, err := f.service.Authenticate(ctx, signed.Message, signed.Signature, "")
	require.NoError(t, err)
	require.True(t, result.Accepted, result.Detail)
	require.NotNil(t, session)

	address, _ := f.wallet.Address(ctx)
	claims, err := f.sessions.Validate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, address, claims.Address)
	assert.Equal(t, int64(1), claims.ChainID)

	// Replaying the same signed message is refused and no session is issued.
	result, session, err = f.service.Authenticate(ctx, signed.Message, signed.Signature, "")
	require.NoError(t, err)
	assert.Equal(t, siwe.ReasonNonceReplay, result.Reason)
	assert.Nil(t, session)

	require.Len(t, f.publisher.events, 2)
	assert.True(t, f.publisher.events[0].Accepted)
	assert.Equal(t, signed.Nonce, f.publisher.events[0].Nonce)
	assert.False(t, f.publisher.events[1].Accepted)
	assert.Equal(t, "nonce_replay", f.publisher.events[1].Reason)
	assert.Equal(t, "eip191", f.publisher.events[0].Scheme)
}

func TestSignInOnEveryAllowedChain(t *testing.T) {
	cfg := testSIWEConfig()
	cfg.AllowedChains = []int64{11155111}

	for _, chainID := range []int64{1, 11155111} {
		f := newSignInFixture(t, cfg)
		w, err := wallet.Generate(chainID)
		require.NoError(t, err)

		signed, err := f.service.SignWithWallet(context.Background(), w, "")
		require.NoError(t, err)
		assert.Contains(t, signed.Message, "Chain ID: "+strconv.FormatInt(chainID, 10)+"\n")

		result, session, err := f.service.Authenticate(context.Background(), signed.Message, signed.Signature, "")
		require.NoError(t, err)
		require.True(t, result.Accepted, result.Detail)
		assert.Equal(t, chainID, result.ChainID)

		claims, err := f.sessions.Validate(session.Token)
		require.NoError(t, err)
		assert.Equal(t, chainID, claims.ChainID)
	}
}

func TestAuthenticateRejectsUnlistedChain(t *testing.T) {
	cfg := testSIWEConfig()
	cfg.AllowedChains = []int64{11155111}
	f := newSignInFixture(t, cfg)
	ctx := context.Background()

	w, err := wallet.Generate(56)
	require.NoError(t, err)
	_, err = f.service.SignWithWallet(ctx, w, "")
	require.ErrorIs(t, err, ErrChainNotAccepted)

	// A message built for chain 56 elsewhere, with a live nonce, still fails.
	address, _ := w.Address(ctx)
	text, _, err := siwe.NewBuilder(f.store, siwe.WithBuilderClock(f.clock.Now)).Build(ctx, siwe.Fields{
		Domain:  cfg.Domain,
		Address: address,
		URI:     cfg.URI,
		ChainID: 56,
	})
	require.NoError(t, err)
	signature, err := w.SignMessage(ctx, []byte(text))
	require.NoError(t, err)

	result, session, err := f.service.Authenticate(ctx, text, signature, "")
	require.NoError(t, err)
	assert.Equal(t, siwe.ReasonChainMismatch, result.Reason)
	assert.Nil(t, session)
}

type failingIssuer struct{}

func (failingIssuer) Issue(siwe.Result) (*Session, error) {
	return nil, errors.New("signing key unavailable")
}

func TestSessionFailureSpendsNonce(t *testing.T) {
	f := newSignInFixture(t, testSIWEConfig())
	service := newSignInService(testSIWEConfig(), f.store, failingIssuer{}, f.publisher, nil, f.clock.Now)
	ctx := context.Background()

	signed, err := service.SignWithWallet(ctx, f.wallet, "")
	require.NoError(t, err)

	result, session, err := service.Authenticate(ctx, signed.Message, signed.Signature, "")
	require.ErrorIs(t, err, ErrSessionUnavailable)
	assert.True(t, result.Accepted)
	assert.Nil(t, session)

	// The message cannot be retried; the client has to start over.
	result, _, err = f.service.Authenticate(ctx, signed.Message, signed.Signature, "")
	require.NoError(t, err)
	assert.Equal(t, siwe.ReasonNonceReplay, result.Reason)

	fresh, err := f.service.SignWithWallet(ctx, f.wallet, "")
	require.NoError(t, err)
	result, session, err = f.service.Authenticate(ctx, fresh.Message, fresh.Signature, "")
	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.NotNil(t, session)
}

func TestSignInPublishFailureDoesNotFailSignIn(t *testing.T) {
	f := newSignInFixture(t, testSIWEConfig())
	f.publisher.err = errors.New("nats: no servers available")

	signed, err := f.service.SignWithWallet(context.Background(), f.wallet, "custom statement")
	require.NoError(t, err)

	result, session, err := f.service.Authenticate(context.Background(), signed.Message, signed.Signature, "")
	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.NotNil(t, session)
}

func TestPrepareMessageRejectsOtherChains(t *testing.T) {
	f := newSignInFixture(t, testSIWEConfig())
	address, _ := f.wallet.Address(context.Background())

	_, _, err := f.service.PrepareMessage(context.Background(), MessageRequest{Address: address, ChainID: 56})
	assert.ErrorIs(t, err, ErrChainNotAccepted)

	_, _, err = f.service.PrepareMessage(context.Background(), MessageRequest{Address: "0x1234"})
	assert.ErrorIs(t, err, siwe.ErrInvalidField)
	assert.Equal(t, 0, f.store.Len())
}

func TestPrepareMessageAcceptsBareHexAddress(t *testing.T) {
	f := newSignInFixture(t, testSIWEConfig())

	_, msg, err := f.service.PrepareMessage(context.Background(), MessageRequest{
		Address: "196a28d05ba75c8dc35b0f6e71dd622d1ac82b7e",
	})
	require.NoError(t, err)
	assert.Equal(t, "0x196a28d05bA75C8dC35B0F6e71DD622D1aC82b7E", msg.Address)
	assert.Equal(t, "Sign in to app.example", *msg.Statement)
}

func TestAuthenticateExpiredMessage(t *testing.T) {
	f := newSignInFixture(t, testSIWEConfig())

	signed, err := f.service.SignWithWallet(context.Background(), f.wallet, "")
	require.NoError(t, err)

	f.clock.Advance(6 * time.Minute)

	result, session, err := f.service.Authenticate(context.Background(), signed.Message, signed.Signature, "")
	require.NoError(t, err)
	assert.Equal(t, siwe.ReasonExpired, result.Reason)
	assert.Nil(t, session)
}

func TestAuthenticateMaxMessageAge(t *testing.T) {
	cfg := testSIWEConfig()
	cfg.MessageTTL = 0
	cfg.MaxMessageAge = 2 * time.Minute
	f := newSignInFixture(t, cfg)

	signed, err := f.service.SignWithWallet(context.Background(), f.wallet, "")
	require.NoError(t, err)
	assert.NotContains(t, signed.Message, "Expiration Time")

	f.clock.Advance(3 * time.Minute)

	result, _, err := f.service.Authenticate(context.Background(), signed.Message, signed.Signature, "")
	require.NoError(t, err)
	assert.Equal(t, siwe.ReasonExpired, result.Reason)
}

func TestIssueNonce(t *testing.T) {
	f := newSignInFixture(t, testSIWEConfig())

	value, expiresAt, err := f.service.IssueNonce(context.Background())
	require.NoError(t, err)
	assert.Len(t, value, 32)
	assert.Equal(t, testStart.Add(10*time.Minute), expiresAt)

	ok, err := f.store.ConsumeIfValid(context.Background(), value)
	require.NoError(t, err)
	assert.True(t, ok)
}

type brokenStore struct{ nonce.Store }

func (brokenStore) Issue(context.Context, string, time.Duration) error {
	return errors.New("database is down")
}

func (brokenStore) ConsumeIfValid(context.Context, string) (bool, error) {
	return false, errors.New("database is down")
}

func (brokenStore) SweepExpired(context.Context) (int64, error) {
	return 0, errors.New("database is down")
}

func TestSignInStoreFailure(t *testing.T) {
	f := newSignInFixture(t, testSIWEConfig())
	signed, err := f.service.SignWithWallet(context.Background(), f.wallet, "")
	require.NoError(t, err)

	broken := newSignInService(testSIWEConfig(), brokenStore{}, f.sessions, f.publisher, nil, f.clock.Now)

	_, _, err = broken.Authenticate(context.Background(), signed.Message, signed.Signature, "")
	assert.Error(t, err)

	_, _, err = broken.IssueNonce(context.Background())
	assert.Error(t, err)

	_, err = broken.SignWithWallet(context.Background(), f.wallet, "")
	assert.Error(t, err)
}
