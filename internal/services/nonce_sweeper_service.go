// Nonce Sweeper Service
// Periodically removes expired sign-in nonces
package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BeArt-PDD/beart-labs/internal/metrics"
	"github.com/BeArt-PDD/beart-labs/internal/nonce"
)

// activeCounter is implemented by stores that can report their live size.
type activeCounter interface {
	CountActive(ctx context.Context) (int64, error)
}

// NonceSweeperService deletes expired nonces on a fixed interval
type NonceSweeperService struct {
	store    nonce.Store
	interval time.Duration
	stopChan chan struct{}
	done     chan struct{}
	started  atomic.Bool
	stopOnce sync.Once
}

// NewNonceSweeperService creates a new NonceSweeperService instance
func NewNonceSweeperService(store nonce.Store, interval time.Duration) *NonceSweeperService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &NonceSweeperService{
		store:    store,
		interval: interval,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the sweep loop in the background until ctx is cancelled or
// Stop is called.
func (s *NonceSweeperService) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	logrus.WithField("interval", s.interval).Info("🚀 Nonce sweeper starting")
	go s.run(ctx)
}

// Stop gracefully stops the sweep loop and waits for it to exit
func (s *NonceSweeperService) Stop() {
	s.stopOnce.Do(func() {
		logrus.Info("🛑 Stopping nonce sweeper...")
		close(s.stopChan)
	})
	if s.started.Load() {
		<-s.done
	}
}

func (s *NonceSweeperService) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, s.interval)
			_, _ = s.SweepNow(sweepCtx)
			cancel()

		case <-ctx.Done():
			logrus.Info("🛑 Nonce sweeper stopped (context done)")
			return

		case <-s.stopChan:
			logrus.Info("✅ Nonce sweeper stopped")
			return
		}
	}
}

// SweepNow removes expired nonces immediately and returns how many went.
func (s *NonceSweeperService) SweepNow(ctx context.Context) (int64, error) {
	swept, err := s.store.SweepExpired(ctx)
	if err != nil {
		metrics.NonceStoreErrors.WithLabelValues("sweep").Inc()
		logrus.WithError(err).Error("❌ Nonce sweep failed")
		return 0, err
	}

	metrics.NoncesSwept.Add(float64(swept))
	if swept > 0 {
		logrus.WithField("swept", swept).Info("🧹 Swept expired nonces")
	}

	if counter, ok := s.store.(activeCounter); ok {
		if active, err := counter.CountActive(ctx); err == nil {
			metrics.NoncesActive.Set(float64(active))
		}
	}
	return swept, nil
}
