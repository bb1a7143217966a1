// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"

	"filippo.io/csrf/gorilla"
)

// MsgCSRF is returned when cross-origin protection rejects a request.
const MsgCSRF = "cross-origin request rejected"

// CSRFConfig holds configuration for cross-origin request protection.
// filippo.io/csrf/gorilla checks Fetch metadata and Origin headers, so no
// token has to be round-tripped by the client.
type CSRFConfig struct {
	// AuthKey is kept for API compatibility with gorilla/csrf.
	AuthKey []byte

	// CookieName is the session cookie. Requests that do not carry it are
	// authenticated by bearer header only and skip the check.
	CookieName string

	// TrustedOrigins are host:port values allowed to send cross-origin requests.
	TrustedOrigins []string
}

// DefaultCSRFConfig returns a config trusting the local dev origins when isDev.
func DefaultCSRFConfig(authKey []byte, cookieName string, isDev bool) CSRFConfig {
	cfg := CSRFConfig{
		AuthKey:    authKey,
		CookieName: cookieName,
	}
	if isDev {
		cfg.TrustedOrigins = []string{
			"localhost:8080",
			"127.0.0.1:8080",
		}
	}
	return cfg
}

// CSRF protects cookie-authenticated unsafe requests against cross-site
// submission. Bearer-only requests pass through unchecked.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	opts := []csrf.Option{csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler))}
	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}
	protect := csrf.Protect(cfg.AuthKey, opts...)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hasSessionCookie(r, cfg.CookieName) {
				r = csrf.UnsafeSkipCheck(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}

func hasSessionCookie(r *http.Request, name string) bool {
	if name == "" {
		return true
	}
	c, err := r.Cookie(name)
	return err == nil && c.Value != ""
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.Warn("CSRF validation failed",
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
	)
	WriteJSONError(w, http.StatusForbidden, MsgCSRF)
}
