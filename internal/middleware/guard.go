// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/olegiv/ocms-backoffice/internal/auth"
	"github.com/olegiv/ocms-backoffice/internal/metrics"
	"github.com/olegiv/ocms-backoffice/internal/service"
)

// Decision labels for metrics.AuthDecisions.
const (
	DecisionAllowed         = "allowed"
	DecisionUnauthenticated = "unauthenticated"
	DecisionForbidden       = "forbidden"
	DecisionError           = "error"
)

// anonymousUser is the audit username for requests without an identity.
const anonymousUser = "anonymous"

// GuardedFunc is a handler that runs only after the request has been
// authenticated and authorized. The context is never nil.
type GuardedFunc func(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext)

// Guard runs the resolver and the access gate in front of a handler.
// A denied request never reaches the handler.
type Guard struct {
	resolver *auth.Resolver
	recorder *service.AuditRecorder
}

// NewGuard creates a guard. recorder may be nil.
func NewGuard(resolver *auth.Resolver, recorder *service.AuditRecorder) *Guard {
	return &Guard{resolver: resolver, recorder: recorder}
}

// Authenticated admits any active user.
func (g *Guard) Authenticated(fn GuardedFunc) http.HandlerFunc {
	return g.wrap("authenticated", func(*auth.AuthContext) error { return nil }, fn)
}

// Permission admits the super-role and any user whose permission set holds perm.
func (g *Guard) Permission(perm auth.Permission, fn GuardedFunc) http.HandlerFunc {
	return g.wrap(perm.String(), func(ac *auth.AuthContext) error {
		return auth.Authorize(ac, perm)
	}, fn)
}

// SuperRole admits only the super-role.
func (g *Guard) SuperRole(fn GuardedFunc) http.HandlerFunc {
	return g.wrap(auth.SuperRole, auth.RequireSuperRole, fn)
}

func (g *Guard) wrap(required string, check func(*auth.AuthContext) error, fn GuardedFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, err := g.resolver.Resolve(r.Context(), r)
		if err == nil {
			err = check(ac)
		}
		if err != nil {
			g.deny(w, r, ac, required, err)
			return
		}
		metrics.AuthDecisions.WithLabelValues(DecisionAllowed).Inc()
		fn(w, r, ac)
	}
}

func (g *Guard) deny(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext, required string, err error) {
	status, msg := AuthErrorStatus(err)
	result := decisionFor(err)
	metrics.AuthDecisions.WithLabelValues(result).Inc()

	attrs := []any{
		"status", status,
		"method", r.Method,
		"path", r.URL.Path,
		"required", required,
		"remote_addr", r.RemoteAddr,
		// The denial is audited below; keep the log mirror from duplicating it.
		"category", "audit",
	}
	if ac != nil {
		attrs = append(attrs, "user_id", ac.UserID, "user_role", ac.RoleName)
	}
	if result == DecisionError {
		slog.Error("identity resolution failed", append(attrs, "error", err)...)
	} else {
		slog.Warn("access denied", append(attrs, "reason", err.Error())...)
	}

	entry := service.EntryFor(ac, r, service.AuditAuthentication,
		fmt.Sprintf("Access denied (%s): %s %s requires %s", msg, r.Method, r.URL.Path, required))
	if ac == nil {
		entry.Username = anonymousUser
	}
	g.recorder.Record(r.Context(), entry)

	WriteJSONError(w, status, msg)
}

func decisionFor(err error) string {
	switch {
	case errors.Is(err, auth.ErrForbidden):
		return DecisionForbidden
	case errors.Is(err, auth.ErrUnauthenticated):
		return DecisionUnauthenticated
	default:
		return DecisionError
	}
}
