// Package sweeper periodically deletes expired mappings from the store.
// Expired rows are already invisible to readers; sweeping only reclaims space.
package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// Purger deletes expired rows and reports how many were removed.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Sweeper runs a Purger on a fixed interval.
type Sweeper struct {
	purger   Purger
	interval time.Duration
}

// New returns a Sweeper. An interval <= 0 yields a Sweeper whose Run returns
// immediately.
func New(purger Purger, interval time.Duration) *Sweeper {
	return &Sweeper{purger: purger, interval: interval}
}

// Run sweeps once at startup and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		slog.Debug("expiry sweeper disabled")
		return
	}
	slog.Info("starting expiry sweeper", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("failed to purge expired shorters", "error", err)
		}
		return
	}
	if n > 0 {
		slog.Info("purged expired shorters", "count", n)
	}
}
