package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/tappay/wallet-api/internal/api"
	"github.com/tappay/wallet-api/internal/api/middleware"
	"github.com/tappay/wallet-api/internal/archive"
	"github.com/tappay/wallet-api/internal/config"
	"github.com/tappay/wallet-api/internal/credential"
	"github.com/tappay/wallet-api/internal/db"
	"github.com/tappay/wallet-api/internal/flows"
	"github.com/tappay/wallet-api/internal/gateway"
	"github.com/tappay/wallet-api/internal/observability"
	"github.com/tappay/wallet-api/internal/session"
	"github.com/tappay/wallet-api/internal/worker"
	"go.uber.org/zap"
)

// Run bootstraps the HTTP server and session janitor, blocking until
// shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()
	middleware.SetJWTSecret(cfg.JWTSecret)
	middleware.SetJWTValidation(cfg.JWTIssuer, cfg.JWTAudience)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var creds credential.Store
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = newRedisClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()
		creds = credential.NewRedis(redisClient)
		logger.Info("credential store: redis")
	} else {
		creds = credential.NewMemory()
		logger.Info("credential store: in-memory")
	}

	sessionOpts := []session.Option{
		session.WithIdleTTL(cfg.SessionIdleTTL),
		session.WithSeedBalance(cfg.SeedBalance),
		session.WithFlowConfig(flows.Config{
			SettleDelay:    cfg.SettleDelay,
			PaymentOutcome: flows.RandomOutcome{SuccessRate: cfg.PaymentSuccessRate},
		}),
	}

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		archiveStore, err := archive.NewStore(ctx, pool)
		if err != nil {
			return fmt.Errorf("init archive: %w", err)
		}
		sessionOpts = append(sessionOpts, session.WithArchiver(archiveStore))
		logger.Info("session archive enabled")
	}

	sessions := session.NewManager(sessionOpts...)

	janitor := worker.NewSessionJanitor(sessions).WithPollInterval(cfg.JanitorInterval)
	stopJanitor := janitor.Run(ctx)
	logger.Info("session janitor started", zap.Duration("interval", cfg.JanitorInterval))

	mockGateway := gateway.NewMockGateway()
	mockGateway.Delay = cfg.GatewayDelay

	var redisCmd redis.Cmdable
	if redisClient != nil {
		redisCmd = redisClient
	}
	router := api.NewRouter(cfg, logger, pool, redisCmd, creds, sessions, mockGateway)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("stopping session janitor")
	stopJanitor()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
