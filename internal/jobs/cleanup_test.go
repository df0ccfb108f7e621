package jobs

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeExpirer struct {
	mu      sync.Mutex
	cutoffs []time.Time
	n       int64
	err     error
}

func (f *fakeExpirer) ExpireStaleSessions(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.n, f.err
}

func (f *fakeExpirer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestSessionSweeperSweeps(t *testing.T) {
	store := &fakeExpirer{n: 3}
	sweeper := NewSessionSweeper(store, 10*time.Millisecond, time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return store.calls() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	// Cutoff sits maxAge in the past
	store.mu.Lock()
	cutoff := store.cutoffs[0]
	store.mu.Unlock()
	assert.WithinDuration(t, time.Now().Add(-time.Hour), cutoff, time.Minute)
}

func TestSessionSweeperSurvivesStoreErrors(t *testing.T) {
	store := &fakeExpirer{err: context.DeadlineExceeded}
	sweeper := NewSessionSweeper(store, 5*time.Millisecond, time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	// Keeps ticking past failures
	assert.Eventually(t, func() bool {
		return store.calls() >= 3
	}, time.Second, 2*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestNewSessionSweeperDefaults(t *testing.T) {
	s := NewSessionSweeper(&fakeExpirer{}, 0, 0, nil)
	assert.Equal(t, 5*time.Minute, s.interval)
	assert.Equal(t, time.Hour, s.maxAge)
	assert.NotNil(t, s.logger)
}
