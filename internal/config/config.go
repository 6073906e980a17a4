// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds configuration for all three binaries (api, webhook, bridge).
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
	APIPort     int    `env:"API_PORT" envDefault:"8080"`
	WebhookPort int    `env:"WEBHOOK_PORT" envDefault:"8081"`
	BridgeAddr  string `env:"BRIDGE_ADDR" envDefault:"127.0.0.1:9200"`

	// Document store (PostgreSQL). When empty, an in-memory store is used so
	// the service still mounts in local/emulator setups.
	DatabaseURL string `env:"DATABASE_URL"`

	// Idempotency replay store (Redis). When empty, an in-memory store is used.
	RedisURL string `env:"REDIS_URL"`

	// Stripe. A missing secret key degrades to a dummy client so endpoints
	// still mount; a missing webhook secret makes the receiver reject all
	// deliveries with 400.
	StripeSecretKey     string `env:"STRIPE_SECRET"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`

	// Bearer token verification
	AuthTokenSecret string `env:"AUTH_TOKEN_SECRET"`
	AuthIssuer      string `env:"AUTH_ISSUER" envDefault:"voyapay-auth"`
	AuthAudience    string `env:"AUTH_AUDIENCE" envDefault:"voyapay-api"`

	// Account-creation hook (HMAC signed by the identity provider)
	AccountHookSecret string `env:"ACCOUNT_HOOK_SECRET"`

	// Device key bridge
	KeystoreDir        string `env:"KEYSTORE_DIR" envDefault:".voyapay/keys"`
	KeystorePassphrase string `env:"KEYSTORE_PASSPHRASE"`
	// Comma-separated launcher command lines tried in order by
	// openBiometricSettings.
	SettingsCommands string `env:"BRIDGE_SETTINGS_COMMANDS" envDefault:"gnome-control-center fingerprint,gnome-control-center privacy,gnome-control-center"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// CORS configuration
	// Comma-separated list of allowed origins. The mobile clients call the
	// gateway from webviews, so the permissive default mirrors what they expect.
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Request body size limit in bytes (payment payloads are small)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"65536"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// GetSettingsCommands parses the launcher command list for the bridge.
// Each entry is a space-separated command line; entries are tried in order.
func (c *Config) GetSettingsCommands() [][]string {
	if c.SettingsCommands == "" {
		return nil
	}

	var result [][]string
	for _, entry := range strings.Split(c.SettingsCommands, ",") {
		fields := strings.Fields(entry)
		if len(fields) > 0 {
			result = append(result, fields)
		}
	}
	return result
}

// Load parses environment variables and returns a Config.
// Returns an error if a variable fails to parse; absent optional secrets are
// left empty and handled by the components that need them.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
