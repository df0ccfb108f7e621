// Package jobs holds scheduled maintenance work that runs alongside the
// HTTP server.
package jobs

import (
	"context"
	"log/slog"
	"time"
)

// SessionExpirer is the slice of the store the sweeper needs.
type SessionExpirer interface {
	ExpireStaleSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionSweeper periodically expires payment sessions whose hosted page
// token aged out without a gateway callback. Abandoned checkouts would
// otherwise sit in CREATED forever.
type SessionSweeper struct {
	store    SessionExpirer
	interval time.Duration
	maxAge   time.Duration
	logger   *slog.Logger
}

// NewSessionSweeper builds a sweeper. maxAge should exceed the hosted page
// expiry so a callback racing the sweep always wins.
func NewSessionSweeper(store SessionExpirer, interval, maxAge time.Duration, logger *slog.Logger) *SessionSweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionSweeper{
		store:    store,
		interval: interval,
		maxAge:   maxAge,
		logger:   logger,
	}
}

// Run sweeps on a ticker until ctx is cancelled. Errors are logged and the
// loop keeps going; a failed sweep retries on the next tick.
func (s *SessionSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *SessionSweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.maxAge)

	n, err := s.store.ExpireStaleSessions(ctx, cutoff)
	if err != nil {
		s.logger.Error("payment session sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("expired stale payment sessions", "count", n)
	}
}
