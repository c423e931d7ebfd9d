package nonce

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps nonces in a process-local map. It is suitable for a
// single instance; use the database-backed store when several instances
// share sign-in traffic.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time // nonce -> expiry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]time.Time),
		now:     now,
	}
}

func (s *MemoryStore) Issue(_ context.Context, nonce string, ttl time.Duration) error {
	if err := ValidateIssue(nonce, ttl); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiry, ok := s.entries[nonce]; ok && now.Before(expiry) {
		return ErrDuplicate
	}
	s.entries[nonce] = now.Add(ttl)
	return nil
}

func (s *MemoryStore) ConsumeIfValid(_ context.Context, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.entries[nonce]
	if !ok {
		return false, nil
	}
	delete(s.entries, nonce)

	return s.now().Before(expiry), nil
}

func (s *MemoryStore) SweepExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var swept int64
	for nonce, expiry := range s.entries {
		if !now.Before(expiry) {
			delete(s.entries, nonce)
			swept++
		}
	}
	return swept, nil
}

// Len returns the number of entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
