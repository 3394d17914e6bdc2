package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/tappay/wallet-api/internal/observability"
	"github.com/tappay/wallet-api/internal/session"
	"go.uber.org/zap"
)

// SessionJanitor sweeps idle sessions in the background. It polls the
// session registry at regular intervals and expires sessions past their
// idle TTL.
type SessionJanitor struct {
	sessions     *session.Manager
	pollInterval time.Duration
	stopCh       chan struct{}
}

// NewSessionJanitor creates a janitor over the given registry.
func NewSessionJanitor(sessions *session.Manager) *SessionJanitor {
	return &SessionJanitor{
		sessions:     sessions,
		pollInterval: time.Minute,
		stopCh:       make(chan struct{}),
	}
}

// WithPollInterval sets the sweep interval.
func (j *SessionJanitor) WithPollInterval(interval time.Duration) *SessionJanitor {
	j.pollInterval = interval
	return j
}

// Start begins the sweep loop. It runs until Stop is called or the context
// is canceled.
func (j *SessionJanitor) Start(ctx context.Context) {
	zap.L().Info("session janitor starting", zap.Duration("interval", j.pollInterval))

	ticker := time.NewTicker(j.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("session janitor stopping: context canceled")
			return
		case <-j.stopCh:
			zap.L().Info("session janitor stopping: stop signal")
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

// Stop signals the janitor to stop.
func (j *SessionJanitor) Stop() {
	close(j.stopCh)
}

func (j *SessionJanitor) sweep(ctx context.Context) {
	expired := j.sessions.Sweep(ctx)
	if expired > 0 {
		zap.L().Info("swept idle sessions", zap.Int("expired", expired))
	}
	observability.IncrementWorkerRun("session_janitor", "ok")
}

// SweepOnce runs a single sweep immediately. Useful for tests and manual
// triggering.
func (j *SessionJanitor) SweepOnce(ctx context.Context) int {
	return j.sessions.Sweep(ctx)
}

// Run starts the janitor in a goroutine and returns a stop function.
func (j *SessionJanitor) Run(ctx context.Context) func() {
	go j.Start(ctx)
	return j.Stop
}

// String returns a short description of the janitor.
func (j *SessionJanitor) String() string {
	return fmt.Sprintf("SessionJanitor(interval=%v)", j.pollInterval)
}
