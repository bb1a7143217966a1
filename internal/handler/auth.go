// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/olegiv/ocms-backoffice/internal/auth"
	"github.com/olegiv/ocms-backoffice/internal/metrics"
	"github.com/olegiv/ocms-backoffice/internal/middleware"
	"github.com/olegiv/ocms-backoffice/internal/service"
	"github.com/olegiv/ocms-backoffice/internal/store"
)

// Login attempt outcomes for metrics.LoginAttempts.
const (
	loginSuccess  = "success"
	loginFailed   = "failed"
	loginInactive = "inactive"
	loginLocked   = "locked"
)

const forgotPasswordReply = "if the account exists, a reset link has been sent"

// CookieSettings controls the session cookie set on login.
type CookieSettings struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// AuthHandler serves sign-in, sign-out and password endpoints.
type AuthHandler struct {
	accounts   *service.AccountService
	users      *service.UserService
	resolver   *auth.Resolver
	recorder   *service.AuditRecorder
	protection *middleware.LoginProtection
	cookie     CookieSettings
}

// NewAuthHandler creates an AuthHandler. protection may be nil.
func NewAuthHandler(accounts *service.AccountService, users *service.UserService, resolver *auth.Resolver,
	recorder *service.AuditRecorder, protection *middleware.LoginProtection, cookie CookieSettings) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = resolver.CookieName()
	}
	return &AuthHandler{
		accounts:   accounts,
		users:      users,
		resolver:   resolver,
		recorder:   recorder,
		protection: protection,
		cookie:     cookie,
	}
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
	Role      string       `json:"role"`
}

// attemptsWarningThreshold is the number of remaining attempts at which a
// failed login starts reporting them.
const attemptsWarningThreshold = 3

// LoginFailureResponse is the body of a rejected sign-in.
type LoginFailureResponse struct {
	Message           string `json:"message"`
	AttemptsRemaining *int   `json:"attemptsRemaining,omitempty"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email := store.NormalizeEmail(req.Email)

	if h.protection != nil {
		if locked, remaining := h.protection.IsAccountLocked(email); locked {
			metrics.LoginAttempts.WithLabelValues(loginLocked).Inc()
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(remaining.Seconds()))))
			writeMessage(w, http.StatusTooManyRequests, "account temporarily locked, try again later")
			return
		}
	}

	res, err := h.accounts.Login(r.Context(), email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidCredentials):
		metrics.LoginAttempts.WithLabelValues(loginFailed).Inc()
		body := LoginFailureResponse{Message: "invalid email or password"}
		if h.protection != nil {
			if locked, _ := h.protection.RecordFailedAttempt(email); !locked {
				if n := h.protection.RemainingAttempts(email); n <= attemptsWarningThreshold {
					body.AttemptsRemaining = &n
				}
			}
		}
		h.recorder.Record(r.Context(), entryAs(r, email, service.AuditAuthentication, "Failed login attempt"))
		writeJSON(w, http.StatusUnauthorized, body)
		return
	case errors.Is(err, auth.ErrInactiveAccount):
		metrics.LoginAttempts.WithLabelValues(loginInactive).Inc()
		entry := entryAs(r, email, service.AuditAuthentication, "Login rejected: account inactive")
		entry.UserID = sql.NullInt64{Int64: res.User.ID, Valid: res.User.ID > 0}
		h.recorder.Record(r.Context(), entry)
		middleware.WriteAuthError(w, err)
		return
	default:
		writeServiceError(w, r, err)
		return
	}

	metrics.LoginAttempts.WithLabelValues(loginSuccess).Inc()
	if h.protection != nil {
		h.protection.RecordSuccessfulLogin(email)
	}

	expiresAt := time.Now().Add(h.cookie.TTL)
	h.setSessionCookie(w, res.Token, h.cookie.TTL)

	ac := auth.NewAuthContext(res.User.ID, res.Role, res.User.Email)
	ac.FirstName, ac.LastName = res.User.FirstName, res.User.LastName
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditAuthentication, "Logged in")

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     res.Token,
		ExpiresAt: expiresAt.UTC(),
		User:      toUserResponse(res.User),
		Role:      res.Role,
	})
}

// Logout handles POST /api/auth/logout. It always clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, err := h.resolver.Resolve(r.Context(), r); err == nil {
		h.recorder.RecordFor(r.Context(), ac, r, service.AuditAuthentication, "Logged out")
	}
	h.setSessionCookie(w, "", -1)
	writeMessage(w, http.StatusOK, "logged out")
}

// MeResponse describes the caller.
type MeResponse struct {
	User        UserResponse `json:"user"`
	Role        string       `json:"role"`
	Permissions []string     `json:"permissions"`
	SuperRole   bool         `json:"superRole"`
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	u, err := h.users.Get(r.Context(), ac.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	perms := ac.PermissionNames()
	if perms == nil {
		perms = []string{}
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditView, "Viewed own profile")
	writeJSON(w, http.StatusOK, MeResponse{
		User:        toUserResponse(u),
		Role:        ac.RoleName,
		Permissions: perms,
		SuperRole:   ac.IsSuperRole(),
	})
}

// ForgotPassword handles POST /api/auth/forgot-password. The reply does not
// reveal whether the account exists.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	email := store.NormalizeEmail(req.Email)

	sent, err := h.accounts.ForgotPassword(r.Context(), email)
	if err != nil {
		slog.Error("password reset request failed", "error", err)
	}
	if sent {
		h.recorder.Record(r.Context(), entryAs(r, email+" (password reset)", service.AuditAuthentication, "Requested password reset"))
	}
	writeMessage(w, http.StatusOK, forgotPasswordReply)
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.accounts.ResetPassword(r.Context(), req.Token, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	entry := entryAs(r, fmt.Sprintf("%s (password reset)", u.Email), service.AuditUpdate, "Reset password via email link")
	entry.UserID = sql.NullInt64{Int64: u.ID, Valid: true}
	h.recorder.Record(r.Context(), entry)

	writeMessage(w, http.StatusOK, "password has been reset")
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.users.ChangePassword(r.Context(), ac.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditUpdate, "Changed own password")
	writeMessage(w, http.StatusOK, "password changed")
}

// Setup handles POST /api/auth/setup, creating the first administrator.
func (h *AuthHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var in service.CreateUserInput
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := h.accounts.Setup(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	entry := entryAs(r, u.Email, service.AuditCreate, "Completed initial setup")
	entry.UserID = sql.NullInt64{Int64: u.ID, Valid: true}
	h.recorder.Record(r.Context(), entry)

	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, value string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	} else {
		c.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, c)
}

// entryAs builds an audit entry for a request made without an identity.
func entryAs(r *http.Request, username, typ, activity string) service.AuditEntry {
	e := service.EntryFor(nil, r, typ, activity)
	e.Username = username
	return e
}
