package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tappay/wallet-api/internal/session"
)

func TestSweepOnceExpiresIdle(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	mgr := session.NewManager(session.WithIdleTTL(5*time.Minute), session.WithClock(clock))
	janitor := NewSessionJanitor(mgr)

	s := mgr.Create("a@x.com")
	assert.Zero(t, janitor.SweepOnce(context.Background()))

	now = now.Add(6 * time.Minute)
	assert.Equal(t, 1, janitor.SweepOnce(context.Background()))
	_, ok := mgr.Get(s.ID)
	assert.False(t, ok)
}

func TestRunStopsOnStop(t *testing.T) {
	mgr := session.NewManager()
	janitor := NewSessionJanitor(mgr).WithPollInterval(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := janitor.Run(ctx)
	time.Sleep(30 * time.Millisecond)
	stop()

	// A second stop would panic on a closed channel; the worker contract is
	// one Stop per Run.
	require.NotPanics(t, func() { janitor.SweepOnce(ctx) })
}
