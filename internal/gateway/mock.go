package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// MockGateway simulates the processor. It waits a fixed delay per call and
// always accepts, matching the demo integration it stands in for. The delay
// is cosmetic: callers must tolerate any value, including zero.
type MockGateway struct {
	// Delay applied to each call before resolving.
	Delay time.Duration
}

// NewMockGateway creates a MockGateway with the demo's default latency.
func NewMockGateway() *MockGateway {
	return &MockGateway{Delay: 1500 * time.Millisecond}
}

// InitializeTransaction resolves after the configured delay with a synthetic
// reference, or fails early when the context is cancelled.
func (g *MockGateway) InitializeTransaction(ctx context.Context, email string, amount int64) (string, error) {
	zap.L().Debug("initializing gateway transaction",
		zap.String("email", email),
		zap.Int64("amount", amount),
	)
	if err := g.wait(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("T%09d", rand.Intn(1_000_000_000)), nil
}

// VerifyTransaction resolves after the configured delay and always accepts.
func (g *MockGateway) VerifyTransaction(ctx context.Context, reference string) (bool, error) {
	zap.L().Debug("verifying gateway transaction", zap.String("reference", reference))
	if err := g.wait(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (g *MockGateway) wait(ctx context.Context) error {
	if g.Delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(g.Delay):
		return nil
	case <-ctx.Done():
		return fmt.Errorf("gateway call canceled: %w", ctx.Err())
	}
}
