// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/ocms-backoffice/internal/auth"
	"github.com/olegiv/ocms-backoffice/internal/cache"
	"github.com/olegiv/ocms-backoffice/internal/config"
	"github.com/olegiv/ocms-backoffice/internal/handler"
	"github.com/olegiv/ocms-backoffice/internal/logging"
	"github.com/olegiv/ocms-backoffice/internal/metrics"
	"github.com/olegiv/ocms-backoffice/internal/middleware"
	"github.com/olegiv/ocms-backoffice/internal/scheduler"
	"github.com/olegiv/ocms-backoffice/internal/service"
	"github.com/olegiv/ocms-backoffice/internal/store"
	"github.com/olegiv/ocms-backoffice/internal/version"
)

// exitMisconfigured is returned when the process must not serve requests.
const exitMisconfigured = 2

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	envFile := flag.String("env-file", ".env", "Optional .env file loaded before the environment")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "backoffice - admin back-office API\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BACKOFFICE_JWT_SECRET   Token signing secret (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BACKOFFICE_DB_DRIVER    sqlite | sqlite3 | mysql (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BACKOFFICE_DB_DSN       Database file or DSN (default: ./data/backoffice.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BACKOFFICE_SERVER_PORT  Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BACKOFFICE_ENV          development | production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BACKOFFICE_REDIS_URL    Redis URL for the config cache (optional)\n")
	}
	flag.Parse()

	if *showVersion {
		_, _ = fmt.Printf("backoffice %s\n", version.Get())
		os.Exit(0)
	}

	if err := run(*envFile); err != nil {
		slog.Error("application error", "error", err)
		if errors.Is(err, auth.ErrMisconfiguration) {
			os.Exit(exitMisconfigured)
		}
		os.Exit(1)
	}
}

func run(envFile string) error {
	// Load .env file if present (development)
	_ = godotenv.Load(envFile)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLevel(cfg.LogLevel)
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(textHandler))

	if cfg.DBDriver != "mysql" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBDSN), 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	slog.Info("initializing database", "driver", cfg.DBDriver)
	db, err := store.NewDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}()

	if err := store.Migrate(db, cfg.DBDriver); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	st := store.NewStore(db)

	// Recorder failures bypass the audit mirror.
	recorder := service.NewAuditRecorder(st.Queries,
		service.WithAuditTimeout(cfg.AuditTimeout),
		service.WithAuditLogger(slog.New(textHandler)),
	)

	// WARN and ERROR records are mirrored into the audit trail from here on.
	logger := slog.New(logging.NewAuditLogHandler(textHandler, recorder))
	slog.SetDefault(logger)

	ctx := context.Background()
	if err := store.Seed(ctx, st, store.SeedOptions{
		AdminEmail:    cfg.FirstAdminEmail,
		AdminPassword: cfg.FirstAdminPassword,
	}); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}
	if cfg.DemoMode {
		if err := store.SeedDemo(ctx, st); err != nil {
			return fmt.Errorf("seeding demo content: %w", err)
		}
	}

	metrics.Register()

	configCache, err := cache.New(cache.Config{
		RedisURL: cfg.RedisURL,
		Prefix:   cfg.CachePrefix,
		TTL:      time.Duration(cfg.CacheTTL) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() { _ = configCache.Close() }()

	codec, err := auth.NewTokenCodec(cfg.JWTSecret,
		auth.WithAccessTTL(cfg.TokenTTL),
		auth.WithResetTTL(cfg.ResetTokenTTL),
		auth.WithIssuer(cfg.JWTIssuer),
	)
	if err != nil {
		return fmt.Errorf("initializing token codec: %w", err)
	}
	resolver := auth.NewResolver(codec, st.Queries, cfg.CookieName)
	users := service.NewUserService(st, cfg.UploadsDir)
	accounts := service.NewAccountService(st, users, codec, service.LogMailer{Logger: logger}, cfg.BaseURL)
	content := service.NewContentService(st)

	protection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer protection.Close()

	headers := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())
	router := handler.NewRouter(handler.RouterConfig{
		Guard: middleware.NewGuard(resolver, recorder),
		Auth: handler.NewAuthHandler(accounts, users, resolver, recorder, protection, handler.CookieSettings{
			Name:   cfg.CookieName,
			Secure: !cfg.IsDevelopment(),
			TTL:    codec.AccessTTL(),
		}),
		Users:           handler.NewUsersHandler(users, recorder),
		Roles:           handler.NewRolesHandler(service.NewRoleService(st), recorder),
		Audit:           handler.NewAuditHandler(st.Queries, recorder),
		Content:         handler.NewContentHandler(content, recorder),
		Config:          handler.NewConfigHandler(service.NewConfigService(st, configCache, time.Duration(cfg.CacheTTL)*time.Second), recorder),
		Health:          handler.NewHealthHandler(db, resolver, cfg.UploadsDir, configCache),
		LoginProtection: protection,
		RateLimiter:     middleware.NewRateLimiter(cfg.APIRateLimit, cfg.APIRateBurst),
		CSRF:            middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.JWTSecret), cfg.CookieName, cfg.IsDevelopment())),
		SecurityHeaders: &headers,
		RequestTimeout:  cfg.RequestTimeout,
		Metrics:         metrics.Handler(),
		AccessLog:       cfg.IsDevelopment(),
	})

	sched := scheduler.New(content, recorder, logger, cfg.PublishSchedule)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr, "version", version.Get().String(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-errCh:
		sched.Stop()
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	sched.Stop()
	if err := recorder.Close(shutdownCtx); err != nil {
		slog.Error("audit recorder did not drain", "error", err)
	}

	slog.Info("server stopped")
	return nil
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
