package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "tappay-wallet", cfg.JWTIssuer)
	assert.Equal(t, "tappay-api", cfg.JWTAudience)
	assert.Equal(t, 800*time.Millisecond, cfg.CheckDelay)
	assert.Equal(t, 2*time.Second, cfg.SettleDelay)
	assert.InDelta(t, 0.9, cfg.PaymentSuccessRate, 0.0001)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	assert.Equal(t, int64(125_400), cfg.SeedBalance)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "too-short")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadSuccessRate(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PAYMENT_SUCCESS_RATE", "1.5")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("TAPPAY_PORT", "9090")
	t.Setenv("SESSION_IDLE_TTL", "5m")
	t.Setenv("SEED_BALANCE", "1000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 5*time.Minute, cfg.SessionIdleTTL)
	assert.Equal(t, int64(1000), cfg.SeedBalance)
}
