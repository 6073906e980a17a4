// Package main is the entrypoint for the device key bridge, a loopback
// listener exposing the biometric method channel to local clients.
package main

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/voyapay/voyapay/internal/biometric"
	"github.com/voyapay/voyapay/internal/bridge"
	"github.com/voyapay/voyapay/internal/config"
	"github.com/voyapay/voyapay/internal/handler"
	"github.com/voyapay/voyapay/internal/keystore"
	"github.com/voyapay/voyapay/internal/metrics"
	"github.com/voyapay/voyapay/internal/middleware"
	"github.com/voyapay/voyapay/internal/server"
	"github.com/voyapay/voyapay/internal/settings"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Keys are sealed to disk when a passphrase is configured. Otherwise
	// they live in process memory and vanish on restart, which is fine for
	// development but means every restart forces re-registration.
	var keys keystore.Store
	if cfg.KeystorePassphrase != "" {
		fileStore, err := keystore.NewFile(cfg.KeystoreDir, cfg.KeystorePassphrase)
		if err != nil {
			logger.Error("failed to open keystore", slog.String("error", err.Error()))
			os.Exit(1)
		}
		keys = fileStore
		logger.Info("using file keystore", slog.String("dir", cfg.KeystoreDir))
	} else {
		keys = keystore.NewMemory()
		logger.Warn("KEYSTORE_PASSPHRASE not set, using in-memory keystore")
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "local"
	}
	authenticator := biometric.NewStaticAuthenticator(hostname)

	opener := settings.NewOpener(settings.CommandActions(cfg.GetSettingsCommands()), logger)
	b := bridge.New(keys, authenticator, opener, metrics.NewNoop(), logger)

	healthHandler := handler.NewHealthHandler(nil, nil)
	channelHandler := handler.NewChannelHandler(b, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/healthz", healthHandler.Healthz)
	r.Post("/channel", channelHandler.Invoke)

	srv := server.New(
		r,
		cfg.BridgeAddr,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting bridge",
		"addr", cfg.BridgeAddr,
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
