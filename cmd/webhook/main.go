// Package main is the entrypoint for the Stripe webhook receiver.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/voyapay/voyapay/internal/config"
	"github.com/voyapay/voyapay/internal/docstore"
	"github.com/voyapay/voyapay/internal/handler"
	"github.com/voyapay/voyapay/internal/metrics"
	"github.com/voyapay/voyapay/internal/middleware"
	"github.com/voyapay/voyapay/internal/payments"
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

	if cfg.StripeWebhookSecret == "" {
		logger.Warn("STRIPE_WEBHOOK_SECRET not set, all deliveries will be rejected")
	}

	metricsRecorder := metrics.NewNoop()
	processor := payments.NewEventProcessor(store, metricsRecorder, logger)

	healthHandler := handler.NewHealthHandler(dbChecker, nil)
	webhookHandler := handler.NewStripeWebhookHandler(processor, cfg.StripeWebhookSecret, metricsRecorder, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Post("/", webhookHandler.Receive)

	srv := server.New(
		r,
		fmt.Sprintf(":%d", cfg.WebhookPort),
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting webhook receiver",
		"port", cfg.WebhookPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
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
