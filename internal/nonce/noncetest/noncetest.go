// Package noncetest holds behaviour tests shared by every nonce.Store
// implementation.
package noncetest

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BeArt-PDD/beart-labs/internal/nonce"
)

// Clock is a settable time source handed to the store under test.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Factory returns a fresh, empty store that reads time from clock.
type Factory func(t *testing.T, clock func() time.Time) nonce.Store

// Run exercises the Store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("consume once", func(t *testing.T) {
		ctx := context.Background()
		clock := NewClock(start)
		store := newStore(t, clock.Now)

		require.NoError(t, store.Issue(ctx, "abcdef0123456789", time.Minute))

		ok, err := store.ConsumeIfValid(ctx, "abcdef0123456789")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = store.ConsumeIfValid(ctx, "abcdef0123456789")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("unknown nonce", func(t *testing.T) {
		store := newStore(t, NewClock(start).Now)

		ok, err := store.ConsumeIfValid(context.Background(), "neverissued")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("expired nonce is not consumable", func(t *testing.T) {
		ctx := context.Background()
		clock := NewClock(start)
		store := newStore(t, clock.Now)

		require.NoError(t, store.Issue(ctx, "abcdef0123456789", time.Minute))
		clock.Advance(time.Minute)

		ok, err := store.ConsumeIfValid(ctx, "abcdef0123456789")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("invalid arguments", func(t *testing.T) {
		store := newStore(t, NewClock(start).Now)

		require.ErrorIs(t, store.Issue(context.Background(), "", time.Minute), nonce.ErrEmpty)
		require.ErrorIs(t, store.Issue(context.Background(), "abcdef0123456789", 0), nonce.ErrTTL)
		require.ErrorIs(t, store.Issue(context.Background(), strings.Repeat("a", nonce.MaxLength+1), time.Minute), nonce.ErrTooLong)
		require.NoError(t, store.Issue(context.Background(), strings.Repeat("a", nonce.MaxLength), time.Minute))
	})

	t.Run("duplicate issue", func(t *testing.T) {
		ctx := context.Background()
		clock := NewClock(start)
		store := newStore(t, clock.Now)

		require.NoError(t, store.Issue(ctx, "abcdef0123456789", time.Minute))
		require.ErrorIs(t, store.Issue(ctx, "abcdef0123456789", time.Minute), nonce.ErrDuplicate)

		// An expired entry may be reissued.
		clock.Advance(2 * time.Minute)
		require.NoError(t, store.Issue(ctx, "abcdef0123456789", time.Minute))

		ok, err := store.ConsumeIfValid(ctx, "abcdef0123456789")
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("sweep removes only expired entries", func(t *testing.T) {
		ctx := context.Background()
		clock := NewClock(start)
		store := newStore(t, clock.Now)

		require.NoError(t, store.Issue(ctx, "shortlived01", time.Minute))
		require.NoError(t, store.Issue(ctx, "shortlived02", time.Minute))
		require.NoError(t, store.Issue(ctx, "longlived001", time.Hour))

		clock.Advance(5 * time.Minute)

		swept, err := store.SweepExpired(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(2), swept)

		swept, err = store.SweepExpired(ctx)
		require.NoError(t, err)
		require.Zero(t, swept)

		ok, err := store.ConsumeIfValid(ctx, "longlived001")
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("concurrent consumers", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t, NewClock(start).Now)
		require.NoError(t, store.Issue(ctx, "abcdef0123456789", time.Minute))

		var wins int32
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := store.ConsumeIfValid(ctx, "abcdef0123456789")
				if err == nil && ok {
					atomic.AddInt32(&wins, 1)
				}
			}()
		}
		wg.Wait()

		require.Equal(t, int32(1), wins)
	})
}
