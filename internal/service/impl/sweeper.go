package impl

import (
	"context"
	"log/slog"
	"time"

	"talks/internal/observability/metrics"
	"talks/internal/store"
)

// Sweeper periodically deletes unverified users whose signup code expired.
type Sweeper struct {
	store    *store.Store
	interval time.Duration
	now      func() time.Time
}

func NewSweeper(st *store.Store, interval time.Duration) *Sweeper {
	return &Sweeper{store: st, interval: interval, now: func() time.Time { return time.Now().UTC() }}
}

// SweepOnce runs a single purge and returns how many users were deleted.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.store.Users().DeleteExpiredUnverified(ctx, "", s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.UnverifiedPurgedTotal.Add(float64(n))
		slog.Info("purged unverified users", "count", n)
	}
	return n, nil
}

// Run sweeps every interval until ctx is done. A non-positive interval
// disables the sweeper.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				slog.Error("unverified sweep failed", "error", err)
			}
		}
	}
}
