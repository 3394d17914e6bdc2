package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration derived from environment variables.
type Config struct {
	HTTPPort            string
	RedisURL            string
	DatabaseURL         string
	JWTSecret           string
	JWTIssuer           string
	JWTAudience         string
	CheckDelay          time.Duration
	SettleDelay         time.Duration
	GatewayDelay        time.Duration
	PaymentSuccessRate  float64
	SessionIdleTTL      time.Duration
	SessionTokenTTL     time.Duration
	JanitorInterval     time.Duration
	SeedBalance         int64
	PublicRateLimitRPS  int
	SessionRateLimitRPS int
	LogLevel            string
}

// Load reads environment variables using viper and returns a typed config.
// RedisURL and DatabaseURL are optional: without redis the credential store
// is in-memory, without a database no session archive is kept.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	bindEnv(v, "port", "PORT", "TAPPAY_PORT")
	bindEnv(v, "redis_url", "REDIS_URL", "TAPPAY_REDIS_URL")
	bindEnv(v, "database_url", "DATABASE_URL", "TAPPAY_DATABASE_URL")
	bindEnv(v, "jwt_secret", "JWT_SECRET", "TAPPAY_JWT_SECRET")
	bindEnv(v, "jwt_issuer", "JWT_ISSUER", "TAPPAY_JWT_ISSUER")
	bindEnv(v, "jwt_audience", "JWT_AUDIENCE", "TAPPAY_JWT_AUDIENCE")
	bindEnv(v, "check_delay", "CHECK_DELAY", "TAPPAY_CHECK_DELAY")
	bindEnv(v, "settle_delay", "SETTLE_DELAY", "TAPPAY_SETTLE_DELAY")
	bindEnv(v, "gateway_delay", "GATEWAY_DELAY", "TAPPAY_GATEWAY_DELAY")
	bindEnv(v, "payment_success_rate", "PAYMENT_SUCCESS_RATE", "TAPPAY_PAYMENT_SUCCESS_RATE")
	bindEnv(v, "session_idle_ttl", "SESSION_IDLE_TTL", "TAPPAY_SESSION_IDLE_TTL")
	bindEnv(v, "session_token_ttl", "SESSION_TOKEN_TTL", "TAPPAY_SESSION_TOKEN_TTL")
	bindEnv(v, "janitor_interval", "JANITOR_INTERVAL", "TAPPAY_JANITOR_INTERVAL")
	bindEnv(v, "seed_balance", "SEED_BALANCE", "TAPPAY_SEED_BALANCE")
	bindEnv(v, "public_rate_limit_rps", "PUBLIC_RATE_LIMIT_RPS", "TAPPAY_PUBLIC_RATE_LIMIT_RPS")
	bindEnv(v, "session_rate_limit_rps", "SESSION_RATE_LIMIT_RPS", "TAPPAY_SESSION_RATE_LIMIT_RPS")
	bindEnv(v, "log_level", "LOG_LEVEL", "TAPPAY_LOG_LEVEL")

	v.SetDefault("port", "8080")
	v.SetDefault("redis_url", "")
	v.SetDefault("database_url", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_issuer", "tappay-wallet")
	v.SetDefault("jwt_audience", "tappay-api")
	v.SetDefault("check_delay", "800ms")
	v.SetDefault("settle_delay", "2s")
	v.SetDefault("gateway_delay", "1500ms")
	v.SetDefault("payment_success_rate", 0.9)
	v.SetDefault("session_idle_ttl", "30m")
	v.SetDefault("session_token_ttl", "24h")
	v.SetDefault("janitor_interval", "1m")
	v.SetDefault("seed_balance", 125400)
	v.SetDefault("public_rate_limit_rps", 10)
	v.SetDefault("session_rate_limit_rps", 100)
	v.SetDefault("log_level", "info")

	checkDelay, err := time.ParseDuration(v.GetString("check_delay"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHECK_DELAY: %w", err)
	}
	settleDelay, err := time.ParseDuration(v.GetString("settle_delay"))
	if err != nil {
		return nil, fmt.Errorf("invalid SETTLE_DELAY: %w", err)
	}
	gatewayDelay, err := time.ParseDuration(v.GetString("gateway_delay"))
	if err != nil {
		return nil, fmt.Errorf("invalid GATEWAY_DELAY: %w", err)
	}
	idleTTL, err := time.ParseDuration(v.GetString("session_idle_ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_IDLE_TTL: %w", err)
	}
	tokenTTL, err := time.ParseDuration(v.GetString("session_token_ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TOKEN_TTL: %w", err)
	}
	janitorInterval, err := time.ParseDuration(v.GetString("janitor_interval"))
	if err != nil {
		return nil, fmt.Errorf("invalid JANITOR_INTERVAL: %w", err)
	}

	cfg := &Config{
		HTTPPort:            v.GetString("port"),
		RedisURL:            v.GetString("redis_url"),
		DatabaseURL:         v.GetString("database_url"),
		JWTSecret:           v.GetString("jwt_secret"),
		JWTIssuer:           v.GetString("jwt_issuer"),
		JWTAudience:         v.GetString("jwt_audience"),
		CheckDelay:          checkDelay,
		SettleDelay:         settleDelay,
		GatewayDelay:        gatewayDelay,
		PaymentSuccessRate:  v.GetFloat64("payment_success_rate"),
		SessionIdleTTL:      idleTTL,
		SessionTokenTTL:     tokenTTL,
		JanitorInterval:     janitorInterval,
		SeedBalance:         v.GetInt64("seed_balance"),
		PublicRateLimitRPS:  max(v.GetInt("public_rate_limit_rps"), 1),
		SessionRateLimitRPS: max(v.GetInt("session_rate_limit_rps"), 1),
		LogLevel:            v.GetString("log_level"),
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if strings.TrimSpace(cfg.JWTIssuer) == "" {
		return nil, fmt.Errorf("JWT_ISSUER is required")
	}
	if strings.TrimSpace(cfg.JWTAudience) == "" {
		return nil, fmt.Errorf("JWT_AUDIENCE is required")
	}
	if cfg.PaymentSuccessRate < 0 || cfg.PaymentSuccessRate > 1 {
		return nil, fmt.Errorf("PAYMENT_SUCCESS_RATE must be between 0 and 1")
	}
	if cfg.SeedBalance < 0 {
		return nil, fmt.Errorf("SEED_BALANCE must not be negative")
	}
	if cfg.SessionIdleTTL <= 0 {
		return nil, fmt.Errorf("SESSION_IDLE_TTL must be positive")
	}

	return cfg, nil
}

func bindEnv(v *viper.Viper, key string, names ...string) {
	args := append([]string{key}, names...)
	_ = v.BindEnv(args...)
}
