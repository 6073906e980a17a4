// Package main is the entrypoint for the Voyapay gateway API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/voyapay/voyapay/internal/auth"
	"github.com/voyapay/voyapay/internal/config"
	"github.com/voyapay/voyapay/internal/docstore"
	"github.com/voyapay/voyapay/internal/handler"
	"github.com/voyapay/voyapay/internal/idempotency"
	"github.com/voyapay/voyapay/internal/metrics"
	"github.com/voyapay/voyapay/internal/middleware"
	"github.com/voyapay/voyapay/internal/payments"
	"github.com/voyapay/voyapay/internal/profile"
	"github.com/voyapay/voyapay/internal/server"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Document store: PostgreSQL when configured, in-memory otherwise.
	var store docstore.Store
	var dbChecker handler.HealthChecker
	if cfg.DatabaseURL != "" {
		pg, err := docstore.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pg.Close()
		store = pg
		dbChecker = pg
		logger.Info("connected to database")
	} else {
		store = docstore.NewMemory()
		logger.Warn("DATABASE_URL not set, using in-memory document store")
	}

	// Idempotency replay store: Redis when configured, in-memory otherwise.
	var replays idempotency.Store
	var cacheChecker handler.HealthChecker
	if cfg.RedisURL != "" {
		rds, err := idempotency.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer rds.Close()
		replays = rds
		cacheChecker = rds
		logger.Info("connected to Redis")
	} else {
		replays = idempotency.NewMemory()
		logger.Warn("REDIS_URL not set, using in-memory idempotency store")
	}

	metricsRecorder := metrics.NewNoop()
	sc := payments.NewStripeClient(cfg.StripeSecretKey)
	paymentService := payments.NewService(sc, store, metricsRecorder, logger)
	profileService := profile.NewService(store, logger)

	verifier := auth.NewTokenVerifier([]byte(cfg.AuthTokenSecret), cfg.AuthIssuer, cfg.AuthAudience)

	healthHandler := handler.NewHealthHandler(dbChecker, cacheChecker)
	paymentHandler := handler.NewPaymentHandler(paymentService, replays, metricsRecorder, logger)
	hookHandler := handler.NewHookHandler(profileService, cfg.AccountHookSecret, logger)

	r := setupRouter(healthHandler, paymentHandler, hookHandler, verifier, cfg, logger)

	srv := server.New(
		r,
		fmt.Sprintf(":%d", cfg.APIPort),
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting gateway",
		"port", cfg.APIPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	healthHandler *handler.HealthHandler,
	paymentHandler *handler.PaymentHandler,
	hookHandler *handler.HookHandler,
	verifier auth.Verifier,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.GetCORSAllowedOrigins())))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	// Signed by the identity provider, not bearer-authenticated.
	r.Post("/hooks/account-created", hookHandler.AccountCreated)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(middleware.AuthConfig{Logger: logger, Verifier: verifier}))
		r.Post("/create-payment-intent", paymentHandler.CreatePaymentIntent)
		r.Get("/payment-methods", paymentHandler.ListPaymentMethods)
	})

	return r
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
