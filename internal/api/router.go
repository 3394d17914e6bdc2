package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/tappay/wallet-api/internal/api/handler"
	"github.com/tappay/wallet-api/internal/api/middleware"
	"github.com/tappay/wallet-api/internal/api/spec"
	"github.com/tappay/wallet-api/internal/authflow"
	"github.com/tappay/wallet-api/internal/config"
	"github.com/tappay/wallet-api/internal/credential"
	"github.com/tappay/wallet-api/internal/domain"
	"github.com/tappay/wallet-api/internal/gateway"
	"github.com/tappay/wallet-api/internal/service"
	"github.com/tappay/wallet-api/internal/session"
	"go.uber.org/zap"
)

// Router wires the HTTP surface: public auth-flow routes, the authenticated
// wallet surface and the operational endpoints.
type Router struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *pgxpool.Pool
	redis    redis.Cmdable
	creds    credential.Store
	sessions *session.Manager
	gateway  gateway.Gateway
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *pgxpool.Pool,
	redisClient redis.Cmdable,
	creds credential.Store,
	sessions *session.Manager,
	gw gateway.Gateway,
) *Router {
	return &Router{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		redis:    redisClient,
		creds:    creds,
		sessions: sessions,
		gateway:  gw,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)

	// Services
	metricsSvc := service.NewMetricsService(api.sessions)

	// Handlers
	authHandler := handler.NewAuthFlowHandler(
		api.creds,
		api.sessions,
		api.cfg.SessionTokenTTL,
		authflow.WithCheckDelay(api.cfg.CheckDelay),
	)
	walletHandler := handler.NewWalletHandler(api.gateway)
	flowHandler := handler.NewFlowHandler()
	profileHandler := handler.NewProfileHandler(api.sessions)
	adminHandler := handler.NewAdminHandler(metricsSvc)
	healthHandler := handler.NewHealthHandler(api.db, api.redis)

	// Operational endpoints
	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", spec.OpenAPIHandler())

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))

		r.Post("/v1/auth/flows", authHandler.Create)
		r.Get("/v1/auth/flows/{id}", authHandler.Get)
		r.Post("/v1/auth/flows/{id}/mode", authHandler.Mode)
		r.Post("/v1/auth/flows/{id}/identifier", authHandler.Identifier)
		r.Post("/v1/auth/flows/{id}/forgot", authHandler.Forgot)
		r.Post("/v1/auth/flows/{id}/pin", authHandler.PIN)
		r.Post("/v1/auth/flows/{id}/otp", authHandler.OTP)
		r.Post("/v1/auth/flows/{id}/resend", authHandler.Resend)
		r.Post("/v1/auth/flows/{id}/back", authHandler.Back)
		r.Post("/v1/auth/flows/{id}/biometrics", authHandler.Biometrics)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(api.sessions))
		r.Use(middleware.SessionRateLimiter(api.cfg.SessionRateLimitRPS))

		// Wallet
		r.Get("/v1/wallet", walletHandler.Profile)
		r.Get("/v1/wallet/transactions", walletHandler.Transactions)
		r.Get("/v1/wallet/transactions/{id}", walletHandler.Transaction)
		r.Get("/v1/wallet/alerts", walletHandler.Alerts)
		r.Post("/v1/wallet/topup", walletHandler.TopUp)

		// Money movement
		r.Post("/v1/payments", flowHandler.CreatePayment)
		r.Get("/v1/payments/{id}", flowHandler.GetPayment)
		r.Post("/v1/payments/{id}/retry", flowHandler.RetryPayment)
		r.Delete("/v1/payments/{id}", flowHandler.CancelPayment)
		r.Get("/v1/transfers/recipients", flowHandler.Recipients)
		r.Post("/v1/transfers", flowHandler.CreateTransfer)
		r.Post("/v1/withdrawals", flowHandler.CreateWithdrawal)
		r.With(middleware.RequireRole(domain.RoleMerchant)).Post("/v1/collections", flowHandler.CreateCollection)

		// Profile
		r.Put("/v1/profile/role", profileHandler.SetRole)
		r.Put("/v1/profile/biometrics", profileHandler.SetBiometrics)
		r.Post("/v1/profile/kyc", profileHandler.SubmitKYC)
		r.Post("/v1/logout", profileHandler.Logout)

		// Admin
		r.With(middleware.RequireRole(domain.RoleAdmin)).Get("/v1/admin/metrics", adminHandler.Metrics)
	})

	return r
}
