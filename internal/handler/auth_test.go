// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-backoffice/internal/auth"
	"github.com/olegiv/ocms-backoffice/internal/middleware"
	"github.com/olegiv/ocms-backoffice/internal/service"
	"github.com/olegiv/ocms-backoffice/internal/testutil"
)

func TestLogin_SetsHttpOnlyCookie(t *testing.T) {
	ts := newTestServer(t)
	role := testutil.CreateRole(t, ts.store, "editor", auth.PermCMSList)
	testutil.CreateUser(t, ts.store, "editor@example.com", "password123", auth.StatusActive, role.ID)

	rr := ts.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "Editor@Example.com", Password: "password123"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decode[LoginResponse](t, rr)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "editor", resp.Role)
	assert.Equal(t, "editor@example.com", resp.User.Email)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "token", c.Name)
	assert.Equal(t, resp.Token, c.Value)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, int((24 * time.Hour).Seconds()), c.MaxAge)

	me := ts.do(http.MethodGet, "/api/auth/me", resp.Token, nil)
	require.Equal(t, http.StatusOK, me.Code)
	body := decode[MeResponse](t, me)
	assert.Equal(t, []string{"cms_list"}, body.Permissions)
	assert.False(t, body.SuperRole)

	trail := ts.auditTrail(service.AuditAuthentication)
	require.NotEmpty(t, trail)
	assert.Equal(t, "Logged in", trail[0].Activity)
}

func TestLogin_Failures(t *testing.T) {
	ts := newTestServer(t)
	testutil.CreateUser(t, ts.store, "active@example.com", "password123", auth.StatusActive, 0)
	testutil.CreateUser(t, ts.store, "inactive@example.com", "password123", auth.StatusInactive, 0)

	tests := []struct {
		name     string
		body     any
		wantCode int
	}{
		{"wrong password", LoginRequest{Email: "active@example.com", Password: "nope-nope"}, http.StatusUnauthorized},
		{"unknown email", LoginRequest{Email: "ghost@example.com", Password: "password123"}, http.StatusUnauthorized},
		{"inactive account", LoginRequest{Email: "inactive@example.com", Password: "password123"}, http.StatusForbidden},
		{"missing fields", LoginRequest{}, http.StatusUnprocessableEntity},
		{"malformed body", "{", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(http.MethodPost, "/api/auth/login", "", tt.body)
			assert.Equal(t, tt.wantCode, rr.Code, rr.Body.String())
			assert.Empty(t, rr.Result().Cookies())
		})
	}

	rr := ts.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "inactive@example.com", Password: "password123"})
	assert.Equal(t, middleware.MsgInactiveAccount, decode[MessageResponse](t, rr).Message)
}

func TestLogin_AccountLockout(t *testing.T) {
	lp := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit:       100,
		IPBurst:           100,
		MaxFailedAttempts: 2,
		LockoutDuration:   time.Minute,
	})
	t.Cleanup(lp.Close)
	ts := newTestServer(t, withLoginProtection(lp))
	testutil.CreateUser(t, ts.store, "a@example.com", "password123", auth.StatusActive, 0)

	rr := ts.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "a@example.com", Password: "wrong-password"})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	first := decode[LoginFailureResponse](t, rr)
	require.NotNil(t, first.AttemptsRemaining)
	assert.Equal(t, 1, *first.AttemptsRemaining)

	rr = ts.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "a@example.com", Password: "wrong-password"})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Nil(t, decode[LoginFailureResponse](t, rr).AttemptsRemaining, "the locking failure reports no count")

	rr = ts.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "a@example.com", Password: "password123"})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
}

func TestLogout_ClearsCookie(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.admin()

	rr := ts.do(http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)

	trail := ts.auditTrail(service.AuditAuthentication)
	require.Len(t, trail, 1)
	assert.Equal(t, "Logged out", trail[0].Activity)
}

func TestForgotPassword_DoesNotRevealAccounts(t *testing.T) {
	ts := newTestServer(t)
	testutil.CreateUser(t, ts.store, "known@example.com", "password123", auth.StatusActive, 0)

	known := ts.do(http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "known@example.com"})
	unknown := ts.do(http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "ghost@example.com"})

	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, http.StatusOK, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
	assert.Equal(t, 1, ts.mailer.count())

	trail := ts.auditTrail(service.AuditAuthentication)
	require.Len(t, trail, 1)
	assert.Equal(t, "known@example.com (password reset)", trail[0].Username)
	assert.False(t, trail[0].UserID.Valid)
}

func TestResetPassword(t *testing.T) {
	ts := newTestServer(t)
	u := testutil.CreateUser(t, ts.store, "reset@example.com", "password123", auth.StatusActive, 0)
	token, err := ts.codec.IssueReset(u.ID, u.Email, u.PasswordHash)
	require.NoError(t, err)

	rr := ts.do(http.MethodPost, "/api/auth/reset-password", "", map[string]string{"token": token, "password": "brand-new-pass"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	login := ts.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: u.Email, Password: "brand-new-pass"})
	assert.Equal(t, http.StatusOK, login.Code)

	rr = ts.do(http.MethodPost, "/api/auth/reset-password", "", map[string]string{"token": token, "password": "hijacked-pass"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "a reset token works once")
	login = ts.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: u.Email, Password: "brand-new-pass"})
	assert.Equal(t, http.StatusOK, login.Code)

	access, err := ts.codec.Issue(u.ID, "", u.Email)
	require.NoError(t, err)
	rr = ts.do(http.MethodPost, "/api/auth/reset-password", "", map[string]string{"token": access, "password": "another-pass"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "access tokens are not reset tokens")
}

func TestChangePassword(t *testing.T) {
	ts := newTestServer(t)
	u := testutil.CreateUser(t, ts.store, "me@example.com", "password123", auth.StatusActive, 0)
	token := ts.token(u)

	rr := ts.do(http.MethodPut, "/api/auth/password", token, map[string]string{"currentPassword": "wrong", "newPassword": "new-password-1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = ts.do(http.MethodPut, "/api/auth/password", token, map[string]string{"currentPassword": "password123", "newPassword": "new-password-1"})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = ts.do(http.MethodPut, "/api/auth/password", "", map[string]string{"currentPassword": "x", "newPassword": "y"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSetup_OnlyOnEmptyDatabase(t *testing.T) {
	ts := newTestServer(t)
	in := service.CreateUserInput{FirstName: "Root", LastName: "Admin", Email: "root@example.com", Password: "password123"}

	rr := ts.do(http.MethodPost, "/api/auth/setup", "", in)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[UserResponse](t, rr)
	require.NotNil(t, created.RoleID)

	rr = ts.do(http.MethodPost, "/api/auth/setup", "", in)
	assert.Equal(t, http.StatusConflict, rr.Code)

	login := ts.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "root@example.com", Password: "password123"})
	require.Equal(t, http.StatusOK, login.Code)
	assert.Equal(t, auth.SuperRole, decode[LoginResponse](t, login).Role)
}
