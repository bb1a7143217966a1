// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the back-office configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/olegiv/ocms-backoffice/internal/auth"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	JWTSecret     string        `env:"BACKOFFICE_JWT_SECRET"`
	JWTIssuer     string        `env:"BACKOFFICE_JWT_ISSUER" envDefault:"ocms-backoffice"`
	TokenTTL      time.Duration `env:"BACKOFFICE_TOKEN_TTL" envDefault:"24h"`
	ResetTokenTTL time.Duration `env:"BACKOFFICE_RESET_TOKEN_TTL" envDefault:"15m"`
	CookieName    string        `env:"BACKOFFICE_COOKIE_NAME" envDefault:"token"`

	DBDriver string `env:"BACKOFFICE_DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"BACKOFFICE_DB_DSN" envDefault:"./data/backoffice.db"`

	ServerHost string `env:"BACKOFFICE_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"BACKOFFICE_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"BACKOFFICE_ENV" envDefault:"development"`
	LogLevel   string `env:"BACKOFFICE_LOG_LEVEL" envDefault:"info"`
	UploadsDir string `env:"BACKOFFICE_UPLOADS_DIR" envDefault:"./uploads"`

	// Cache configuration (config values only)
	RedisURL    string `env:"BACKOFFICE_REDIS_URL"`
	CachePrefix string `env:"BACKOFFICE_CACHE_PREFIX" envDefault:"backoffice:"`
	CacheTTL    int    `env:"BACKOFFICE_CACHE_TTL" envDefault:"300"`

	AuditTimeout time.Duration `env:"BACKOFFICE_AUDIT_TIMEOUT" envDefault:"5s"`

	RequestTimeout  time.Duration `env:"BACKOFFICE_REQUEST_TIMEOUT" envDefault:"30s"`
	APIRateLimit    float64       `env:"BACKOFFICE_API_RATE_LIMIT" envDefault:"10"`
	APIRateBurst    int           `env:"BACKOFFICE_API_RATE_BURST" envDefault:"20"`
	PublishSchedule string        `env:"BACKOFFICE_PUBLISH_SCHEDULE" envDefault:"* * * * *"`

	BaseURL  string `env:"BACKOFFICE_BASE_URL" envDefault:"http://localhost:8080"`
	DemoMode bool   `env:"BACKOFFICE_DEMO_MODE" envDefault:"false"`

	FirstAdminEmail    string `env:"BACKOFFICE_FIRST_ADMIN_EMAIL"`
	FirstAdminPassword string `env:"BACKOFFICE_FIRST_ADMIN_PASSWORD"`
}

// MinJWTSecretLength is the minimum accepted length of the signing secret.
const MinJWTSecretLength = 32

// Load parses environment variables and returns a Config struct.
// A missing or unusable signing secret is reported as auth.ErrMisconfiguration.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !hasMinimumEntropy(cfg.JWTSecret) {
		slog.Warn("BACKOFFICE_JWT_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// Validate checks settings that must hold before the server may start.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("%w: BACKOFFICE_JWT_SECRET is not set", auth.ErrMisconfiguration)
	}
	if len(c.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("%w: BACKOFFICE_JWT_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			auth.ErrMisconfiguration, MinJWTSecretLength, len(c.JWTSecret))
	}
	for _, weak := range knownWeakSecrets {
		if c.JWTSecret == weak {
			return fmt.Errorf("%w: BACKOFFICE_JWT_SECRET is a known default value", auth.ErrMisconfiguration)
		}
	}

	switch c.DBDriver {
	case "sqlite", "sqlite3", "mysql":
	default:
		return fmt.Errorf("%w: unsupported BACKOFFICE_DB_DRIVER %q", auth.ErrMisconfiguration, c.DBDriver)
	}

	if c.TokenTTL <= 0 || c.ResetTokenTTL <= 0 {
		return errors.Join(auth.ErrMisconfiguration, errors.New("token lifetimes must be positive"))
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the listen address.
func (c *Config) ServerAddr() string {
	return net.JoinHostPort(c.ServerHost, strconv.Itoa(c.ServerPort))
}

// UseRedisCache reports whether config values are cached in Redis.
func (c *Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
