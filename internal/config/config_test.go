// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/olegiv/ocms-backoffice/internal/auth"
)

const testSecret = "Test-secret-key-32-bytes-long!!!"

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	t.Setenv("BACKOFFICE_JWT_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q, want %q", cfg.DBDriver, "sqlite")
	}
	if cfg.DBDSN != "./data/backoffice.db" {
		t.Errorf("DBDSN = %q, want %q", cfg.DBDSN, "./data/backoffice.db")
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want 24h", cfg.TokenTTL)
	}
	if cfg.ResetTokenTTL != 15*time.Minute {
		t.Errorf("ResetTokenTTL = %v, want 15m", cfg.ResetTokenTTL)
	}
	if cfg.CookieName != "token" {
		t.Errorf("CookieName = %q, want %q", cfg.CookieName, "token")
	}
	if cfg.ServerAddr() != "localhost:8080" {
		t.Errorf("ServerAddr() = %q, want %q", cfg.ServerAddr(), "localhost:8080")
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true")
	}
	if cfg.UseRedisCache() {
		t.Error("UseRedisCache() = true, want false")
	}
	if cfg.DemoMode {
		t.Error("DemoMode = true, want false")
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
	if cfg.APIRateLimit != 10 || cfg.APIRateBurst != 20 {
		t.Errorf("API rate = %v/%d, want 10/20", cfg.APIRateLimit, cfg.APIRateBurst)
	}
	if cfg.PublishSchedule != "* * * * *" {
		t.Errorf("PublishSchedule = %q", cfg.PublishSchedule)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	t.Setenv("BACKOFFICE_JWT_SECRET", testSecret)
	t.Setenv("BACKOFFICE_DB_DRIVER", "mysql")
	t.Setenv("BACKOFFICE_DB_DSN", "user:pass@tcp(localhost:3306)/backoffice")
	t.Setenv("BACKOFFICE_SERVER_PORT", "3000")
	t.Setenv("BACKOFFICE_ENV", "production")
	t.Setenv("BACKOFFICE_TOKEN_TTL", "2h")
	t.Setenv("BACKOFFICE_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("BACKOFFICE_DEMO_MODE", "true")
	t.Setenv("BACKOFFICE_BASE_URL", "https://admin.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBDriver != "mysql" {
		t.Errorf("DBDriver = %q, want mysql", cfg.DBDriver)
	}
	if cfg.ServerPort != 3000 {
		t.Errorf("ServerPort = %d, want 3000", cfg.ServerPort)
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true, want false")
	}
	if cfg.TokenTTL != 2*time.Hour {
		t.Errorf("TokenTTL = %v, want 2h", cfg.TokenTTL)
	}
	if !cfg.UseRedisCache() {
		t.Error("UseRedisCache() = false, want true")
	}
	if !cfg.DemoMode {
		t.Error("DemoMode = false, want true")
	}
	if cfg.BaseURL != "https://admin.example.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	os.Clearenv()

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail without BACKOFFICE_JWT_SECRET")
	}
	if !errors.Is(err, auth.ErrMisconfiguration) {
		t.Errorf("error = %v, want ErrMisconfiguration", err)
	}
}

func TestLoad_InvalidSecrets(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{"too short", "short"},
		{"known weak", "change-me-to-32-byte-secret-key!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			t.Setenv("BACKOFFICE_JWT_SECRET", tt.secret)

			_, err := Load()
			if !errors.Is(err, auth.ErrMisconfiguration) {
				t.Errorf("Load() error = %v, want ErrMisconfiguration", err)
			}
		})
	}
}

func TestLoad_UnsupportedDriver(t *testing.T) {
	os.Clearenv()
	t.Setenv("BACKOFFICE_JWT_SECRET", testSecret)
	t.Setenv("BACKOFFICE_DB_DRIVER", "postgres")

	if _, err := Load(); !errors.Is(err, auth.ErrMisconfiguration) {
		t.Errorf("Load() error = %v, want ErrMisconfiguration", err)
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"abcABC123", true},
		{"abc123!!!", true},
		{"ABCDEFGH", false},
	}

	for _, tt := range tests {
		if got := hasMinimumEntropy(tt.secret); got != tt.want {
			t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.secret, got, tt.want)
		}
	}
}
