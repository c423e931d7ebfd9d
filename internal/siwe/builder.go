package siwe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BeArt-PDD/beart-labs/internal/nonce"
)

// Fields are the caller-supplied inputs of a sign-in message. Nonce and
// IssuedAt are filled in by the Builder when left empty.
type Fields struct {
	Domain         string
	Address        string
	Statement      string
	URI            string
	Version        string
	ChainID        int64
	Nonce          string
	IssuedAt       time.Time
	ExpirationTime *time.Time
	NotBefore      *time.Time
	RequestID      string
	Resources      []string
}

// Builder constructs canonical messages and registers their nonces.
type Builder struct {
	store      nonce.Store
	defaultTTL time.Duration
	now        func() time.Time
}

type BuilderOption func(*Builder)

// WithDefaultTTL sets the nonce lifetime used when a message has no
// expiration time.
func WithDefaultTTL(ttl time.Duration) BuilderOption {
	return func(b *Builder) {
		if ttl > 0 {
			b.defaultTTL = ttl
		}
	}
}

func WithBuilderClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

func NewBuilder(store nonce.Store, opts ...BuilderOption) *Builder {
	b := &Builder{
		store:      store,
		defaultTTL: nonce.DefaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build validates fields, registers the nonce as issued and returns the
// canonical text together with the structured message. Validation failures
// wrap ErrInvalidField; any other error comes from the nonce store.
func (b *Builder) Build(ctx context.Context, f Fields) (string, *Message, error) {
	msg, err := b.assemble(f)
	if err != nil {
		return "", nil, err
	}

	now := b.now().UTC()
	ttl := b.defaultTTL
	if msg.ExpirationTime != nil {
		ttl = msg.ExpirationTime.Sub(now)
		if ttl <= 0 {
			return "", nil, invalidField("expiration time", "is not in the future")
		}
	}

	if err := b.store.Issue(ctx, msg.Nonce, ttl); err != nil {
		return "", nil, fmt.Errorf("siwe: failed to register nonce: %w", err)
	}

	msg.raw = msg.String()
	return msg.raw, msg, nil
}

func (b *Builder) assemble(f Fields) (*Message, error) {
	if !IsValidDomain(f.Domain) {
		return nil, invalidField("domain", "is missing or not a valid authority")
	}

	address, ok := ChecksumAddress(f.Address)
	if !ok {
		return nil, invalidField("address", "is not a valid EIP-55 Ethereum address")
	}

	if f.URI == "" || !isValidURI(f.URI) {
		return nil, invalidField("uri", "is missing or not an absolute URI")
	}

	version := f.Version
	if version == "" {
		version = Version
	}
	if version != Version {
		return nil, invalidField("version", fmt.Sprintf("must be %q", Version))
	}

	if f.ChainID <= 0 {
		return nil, invalidField("chain id", "must be a positive integer")
	}

	msg := &Message{
		Domain:  f.Domain,
		Address: address,
		URI:     f.URI,
		Version: version,
		ChainID: f.ChainID,
	}

	if f.Statement != "" {
		if strings.ContainsAny(f.Statement, "\r\n") {
			return nil, invalidField("statement", "must be a single line")
		}
		statement := f.Statement
		msg.Statement = &statement
	}

	msg.Nonce = f.Nonce
	if msg.Nonce == "" {
		generated, err := nonce.Generate()
		if err != nil {
			return nil, err
		}
		msg.Nonce = generated
	} else if !isValidNonce(msg.Nonce) {
		return nil, invalidField("nonce", "must be 8 to 64 alphanumeric characters")
	}

	issuedAt := f.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = b.now()
	}
	msg.IssuedAt = truncate(issuedAt)

	if f.ExpirationTime != nil {
		expiration := truncate(*f.ExpirationTime)
		if !expiration.After(msg.IssuedAt) {
			return nil, invalidField("expiration time", "must be after issued at")
		}
		msg.ExpirationTime = &expiration
	}

	if f.NotBefore != nil {
		notBefore := truncate(*f.NotBefore)
		if msg.ExpirationTime != nil && notBefore.After(*msg.ExpirationTime) {
			return nil, invalidField("not before", "must not be after expiration time")
		}
		msg.NotBefore = &notBefore
	}

	if f.RequestID != "" {
		if strings.ContainsAny(f.RequestID, "\r\n") {
			return nil, invalidField("request id", "must be a single line")
		}
		requestID := f.RequestID
		msg.RequestID = &requestID
	}

	for i, resource := range f.Resources {
		if !isValidURI(resource) {
			return nil, invalidField(fmt.Sprintf("resource %d", i), "is not an absolute URI")
		}
	}
	if len(f.Resources) > 0 {
		msg.Resources = append([]string(nil), f.Resources...)
	}

	return msg, nil
}

func truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
