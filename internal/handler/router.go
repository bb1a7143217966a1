// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/ocms-backoffice/internal/auth"
	"github.com/olegiv/ocms-backoffice/internal/middleware"
)

// RouterConfig wires handlers and middleware into the HTTP router.
type RouterConfig struct {
	Guard *middleware.Guard

	Auth    *AuthHandler
	Users   *UsersHandler
	Roles   *RolesHandler
	Audit   *AuditHandler
	Content *ContentHandler
	Config  *ConfigHandler
	Health  *HealthHandler

	// Optional.
	LoginProtection *middleware.LoginProtection
	RateLimiter     *middleware.RateLimiter
	CSRF            func(http.Handler) http.Handler
	SecurityHeaders *middleware.SecurityHeadersConfig
	RequestTimeout  time.Duration
	Metrics         http.Handler
	AccessLog       bool
}

// NewRouter builds the back-office router. Every /api route except the
// public auth endpoints goes through the guard.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if cfg.AccessLog {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(middleware.Instrument)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	if cfg.SecurityHeaders != nil {
		r.Use(middleware.SecurityHeaders(*cfg.SecurityHeaders))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.Health)
		r.Get("/health/live", cfg.Health.Liveness)
		r.Get("/health/ready", cfg.Health.Readiness)
	}
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	g := cfg.Guard
	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware)
		}
		if cfg.CSRF != nil {
			r.Use(cfg.CSRF)
		}

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if cfg.LoginProtection != nil {
					r.Use(cfg.LoginProtection.Middleware)
				}
				r.Post("/login", cfg.Auth.Login)
				r.Post("/forgot-password", cfg.Auth.ForgotPassword)
				r.Post("/reset-password", cfg.Auth.ResetPassword)
				r.Post("/setup", cfg.Auth.Setup)
			})
			r.Post("/logout", cfg.Auth.Logout)
			r.Get("/me", g.Authenticated(cfg.Auth.Me))
			r.Put("/password", g.Authenticated(cfg.Auth.ChangePassword))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", g.Permission(auth.PermUserList, cfg.Users.List))
			r.Post("/", g.Permission(auth.PermUserCreate, cfg.Users.Create))
			r.Get("/{id}", g.Permission(auth.PermUserView, cfg.Users.Get))
			r.Put("/{id}", g.Permission(auth.PermUserEdit, cfg.Users.Update))
			r.Delete("/{id}", g.Permission(auth.PermUserDelete, cfg.Users.Delete))
			r.Put("/{id}/status", g.Permission(auth.PermUserEdit, cfg.Users.SetStatus))
			r.Put("/{id}/role", g.SuperRole(cfg.Users.AssignRole))
			r.Delete("/{id}/purge", g.SuperRole(cfg.Users.Purge))
		})

		r.Route("/roles", func(r chi.Router) {
			r.Get("/", g.Permission(auth.PermRoleList, cfg.Roles.List))
			r.Post("/", g.Permission(auth.PermRoleCreate, cfg.Roles.Create))
			r.Get("/{id}", g.Permission(auth.PermRoleView, cfg.Roles.Get))
			r.Put("/{id}", g.Permission(auth.PermRoleEdit, cfg.Roles.Update))
			r.Delete("/{id}", g.Permission(auth.PermRoleDelete, cfg.Roles.Delete))
			r.Get("/{id}/permissions", g.Permission(auth.PermRoleView, cfg.Roles.GetPermissions))
			r.Put("/{id}/permissions", g.SuperRole(cfg.Roles.ReplacePermissions))
		})

		r.Get("/permissions", g.Permission(auth.PermPermissionList, cfg.Roles.ListPermissions))
		r.Get("/audit-logs", g.Permission(auth.PermAuditLogList, cfg.Audit.List))

		r.Route("/pages", func(r chi.Router) {
			r.Get("/", g.Permission(auth.PermCMSList, cfg.Content.ListPages))
			r.Post("/", g.Permission(auth.PermCMSCreate, cfg.Content.CreatePage))
			r.Get("/{id}", g.Permission(auth.PermCMSView, cfg.Content.GetPage))
			r.Put("/{id}", g.Permission(auth.PermCMSEdit, cfg.Content.UpdatePage))
			r.Delete("/{id}", g.Permission(auth.PermCMSDelete, cfg.Content.DeletePage))
		})

		r.Route("/faqs", func(r chi.Router) {
			r.Get("/", g.Permission(auth.PermFAQList, cfg.Content.ListFaqs))
			r.Post("/", g.Permission(auth.PermFAQCreate, cfg.Content.CreateFaq))
			r.Get("/{id}", g.Permission(auth.PermFAQView, cfg.Content.GetFaq))
			r.Put("/{id}", g.Permission(auth.PermFAQEdit, cfg.Content.UpdateFaq))
			r.Delete("/{id}", g.Permission(auth.PermFAQDelete, cfg.Content.DeleteFaq))
		})

		r.Route("/email-templates", func(r chi.Router) {
			r.Get("/", g.Permission(auth.PermEmailTemplateList, cfg.Content.ListEmailTemplates))
			r.Post("/", g.Permission(auth.PermEmailTemplateCreate, cfg.Content.CreateEmailTemplate))
			r.Get("/{id}", g.Permission(auth.PermEmailTemplateView, cfg.Content.GetEmailTemplate))
			r.Put("/{id}", g.Permission(auth.PermEmailTemplateEdit, cfg.Content.UpdateEmailTemplate))
			r.Delete("/{id}", g.Permission(auth.PermEmailTemplateDelete, cfg.Content.DeleteEmailTemplate))
		})

		r.Route("/config", func(r chi.Router) {
			r.Get("/", g.Permission(auth.PermConfigList, cfg.Config.List))
			r.Get("/{key}", g.Permission(auth.PermConfigView, cfg.Config.Get))
			r.Put("/{key}", g.Permission(auth.PermConfigEdit, cfg.Config.Set))
		})
	})

	return r
}
