package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/BeArt-PDD/beart-labs/internal/siwe"
)

var (
	ErrSessionNotAccepted = errors.New("session: cannot issue a session for a rejected sign-in")
	ErrInvalidSession     = errors.New("session: invalid or expired token")
)

// SessionClaims JWT claims carried by a session token
type SessionClaims struct {
	Address string `json:"address"`
	ChainID int64  `json:"chain_id"`
	jwt.RegisteredClaims
}

// Session is a signed token handed back after a successful sign-in
type Session struct {
	Token     string
	ExpiresAt time.Time
	Claims    *SessionClaims
}

// SessionService issues and validates stateless HS256 session tokens.
// Nothing is persisted; revocation is by expiry only.
type SessionService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionService(secret []byte, issuer string, ttl time.Duration) *SessionService {
	return &SessionService{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

// Issue signs a session token for an accepted sign-in result
func (s *SessionService) Issue(result siwe.Result) (*Session, error) {
	if !result.Accepted {
		return nil, ErrSessionNotAccepted
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &SessionClaims{
		Address: result.Address,
		ChainID: result.ChainID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   result.Address,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("session: failed to sign token: %w", err)
	}

	return &Session{Token: token, ExpiresAt: expiresAt, Claims: claims}, nil
}

// Validate parses tokenString and returns its claims
func (s *SessionService) Validate(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	return claims, nil
}
