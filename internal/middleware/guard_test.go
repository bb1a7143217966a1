// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-backoffice/internal/auth"
	"github.com/olegiv/ocms-backoffice/internal/metrics"
	"github.com/olegiv/ocms-backoffice/internal/service"
	"github.com/olegiv/ocms-backoffice/internal/store"
	"github.com/olegiv/ocms-backoffice/internal/testutil"
)

const guardSecret = "guard-test-secret-0123456789-ABCDEF"

type guardFixture struct {
	store    *store.Store
	codec    *auth.TokenCodec
	guard    *Guard
	recorder *service.AuditRecorder
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()
	s := testutil.TestDB(t)
	codec, err := auth.NewTokenCodec(guardSecret)
	require.NoError(t, err)
	rec := service.NewAuditRecorder(s.Queries)
	return &guardFixture{
		store:    s,
		codec:    codec,
		guard:    NewGuard(auth.NewResolver(codec, s.Queries, "token"), rec),
		recorder: rec,
	}
}

func (f *guardFixture) tokenFor(t *testing.T, u store.User) string {
	t.Helper()
	tok, err := f.codec.Issue(u.ID, "", u.Email)
	require.NoError(t, err)
	return tok
}

func (f *guardFixture) auditTrail(t *testing.T) []store.AuditLog {
	t.Helper()
	f.recorder.Flush()
	page, err := service.ListAuditLogs(context.Background(), f.store.Queries,
		store.AuditLogFilter{Type: service.AuditAuthentication}, service.Pagination{Limit: 50})
	require.NoError(t, err)
	return page.Data
}

func serveGuarded(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodDelete, "/api/pages/9", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Message
}

func TestGuard_EditorScenario(t *testing.T) {
	f := newGuardFixture(t)
	role := testutil.CreateRole(t, f.store, "editor", auth.PermCMSList, auth.PermCMSEdit)
	user := testutil.CreateUser(t, f.store, "editor@example.com", "password123", auth.StatusActive, role.ID)
	token := f.tokenFor(t, user)

	var got *auth.AuthContext
	ok := func(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
		got = ac
		w.WriteHeader(http.StatusNoContent)
	}

	rr := serveGuarded(f.guard.Permission(auth.PermCMSEdit, ok), token)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.UserID)
	assert.Equal(t, "editor", got.RoleName)

	got = nil
	rr = serveGuarded(f.guard.Permission(auth.PermCMSDelete, ok), token)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Nil(t, got, "handler must not run on denial")
	assert.Equal(t, MsgForbidden, decodeMessage(t, rr))

	trail := f.auditTrail(t)
	require.Len(t, trail, 1)
	assert.Equal(t, user.ID, trail[0].UserID.Int64)
	assert.Contains(t, trail[0].Activity, "cms_delete")
}

func TestGuard_NullRoleIsForbidden(t *testing.T) {
	f := newGuardFixture(t)
	user := testutil.CreateUser(t, f.store, "norole@example.com", "password123", auth.StatusActive, 0)

	called := false
	h := f.guard.Permission(auth.PermCMSList, func(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
		called = true
	})

	rr := serveGuarded(h, f.tokenFor(t, user))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.False(t, called)
}

func TestGuard_EmptyPermissionSetIsForbidden(t *testing.T) {
	f := newGuardFixture(t)
	role := testutil.CreateRole(t, f.store, "viewer")
	user := testutil.CreateUser(t, f.store, "viewer@example.com", "password123", auth.StatusActive, role.ID)

	rr := serveGuarded(f.guard.Permission(auth.PermCMSList, func(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
		t.Error("handler reached")
	}), f.tokenFor(t, user))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestGuard_SuperRoleBypassesPermissions(t *testing.T) {
	f := newGuardFixture(t)
	admin := testutil.AdminRole(t, f.store)
	require.NoError(t, f.store.ReplaceRolePermissions(context.Background(), admin.ID, nil))
	user := testutil.CreateUser(t, f.store, "root@example.com", "password123", auth.StatusActive, admin.ID)
	token := f.tokenFor(t, user)

	ok := func(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
		w.WriteHeader(http.StatusOK)
	}
	assert.Equal(t, http.StatusOK, serveGuarded(f.guard.Permission(auth.PermCMSDelete, ok), token).Code)
	assert.Equal(t, http.StatusOK, serveGuarded(f.guard.SuperRole(ok), token).Code)
}

func TestGuard_SuperRoleGateRejectsGrantedEditor(t *testing.T) {
	f := newGuardFixture(t)
	role := testutil.CreateRole(t, f.store, "editor", auth.Catalog()...)
	user := testutil.CreateUser(t, f.store, "editor@example.com", "password123", auth.StatusActive, role.ID)

	rr := serveGuarded(f.guard.SuperRole(func(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
		t.Error("handler reached")
	}), f.tokenFor(t, user))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestGuard_Unauthenticated(t *testing.T) {
	f := newGuardFixture(t)
	h := f.guard.Authenticated(func(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
		t.Error("handler reached")
	})

	before := promtest.ToFloat64(metrics.AuthDecisions.WithLabelValues(DecisionUnauthenticated))

	tests := []struct {
		name  string
		token string
	}{
		{"no credentials", ""},
		{"garbage token", "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serveGuarded(h, tt.token)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, MsgUnauthenticated, decodeMessage(t, rr))
		})
	}

	after := promtest.ToFloat64(metrics.AuthDecisions.WithLabelValues(DecisionUnauthenticated))
	assert.Equal(t, before+2, after)

	trail := f.auditTrail(t)
	require.Len(t, trail, 2)
	assert.Equal(t, anonymousUser, trail[0].Username)
	assert.False(t, trail[0].UserID.Valid)
}

func TestGuard_InactiveUser(t *testing.T) {
	f := newGuardFixture(t)
	admin := testutil.AdminRole(t, f.store)
	user := testutil.CreateUser(t, f.store, "gone@example.com", "password123", auth.StatusInactive, admin.ID)

	rr := serveGuarded(f.guard.Authenticated(func(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
		t.Error("handler reached")
	}), f.tokenFor(t, user))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, MsgInactiveAccount, decodeMessage(t, rr))
}

func TestGuard_StorageFailureDenies(t *testing.T) {
	f := newGuardFixture(t)
	user := testutil.CreateUser(t, f.store, "a@example.com", "password123", auth.StatusActive, 0)
	token := f.tokenFor(t, user)
	require.NoError(t, f.store.DB().Close())

	rr := serveGuarded(f.guard.Authenticated(func(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
		t.Error("handler reached")
	}), token)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, MsgInternal, decodeMessage(t, rr))
	f.recorder.Flush()
}

func TestAuthErrorStatus(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantMsg    string
	}{
		{auth.ErrUnauthenticated, http.StatusUnauthorized, MsgUnauthenticated},
		{auth.ErrInvalidToken, http.StatusUnauthorized, MsgUnauthenticated},
		{auth.ErrInactiveAccount, http.StatusForbidden, MsgInactiveAccount},
		{auth.ErrInsufficientPermissions, http.StatusForbidden, MsgForbidden},
		{auth.ErrSuperRoleRequired, http.StatusForbidden, MsgForbidden},
		{context.DeadlineExceeded, http.StatusInternalServerError, MsgInternal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, msg := AuthErrorStatus(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}
