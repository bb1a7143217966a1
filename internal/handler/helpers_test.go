// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-backoffice/internal/auth"
	"github.com/olegiv/ocms-backoffice/internal/cache"
	"github.com/olegiv/ocms-backoffice/internal/middleware"
	"github.com/olegiv/ocms-backoffice/internal/service"
	"github.com/olegiv/ocms-backoffice/internal/store"
	"github.com/olegiv/ocms-backoffice/internal/testutil"
)

const testSecret = "handler-test-secret-0123456789-ABCDEF"

type captureMailer struct {
	mu   sync.Mutex
	sent []service.Message
}

func (m *captureMailer) Send(_ context.Context, msg service.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type testServer struct {
	t        *testing.T
	store    *store.Store
	codec    *auth.TokenCodec
	recorder *service.AuditRecorder
	mailer   *captureMailer
	handler  http.Handler
}

type serverOption func(*serverSetup)

type serverSetup struct {
	auditWriter service.AuditLogWriter
	protection  *middleware.LoginProtection
}

func withAuditWriter(w service.AuditLogWriter) serverOption {
	return func(s *serverSetup) { s.auditWriter = w }
}

func withLoginProtection(lp *middleware.LoginProtection) serverOption {
	return func(s *serverSetup) { s.protection = lp }
}

// newTestServer wires the full router on a fresh SQLite database.
func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	s := testutil.TestDB(t)

	setup := serverSetup{auditWriter: s.Queries}
	for _, o := range opts {
		o(&setup)
	}

	codec, err := auth.NewTokenCodec(testSecret)
	require.NoError(t, err)
	resolver := auth.NewResolver(codec, s.Queries, "token")
	recorder := service.NewAuditRecorder(setup.auditWriter, service.WithAuditLogger(testutil.TestLogger()))
	t.Cleanup(recorder.Flush)

	mailer := &captureMailer{}
	users := service.NewUserService(s, t.TempDir())
	accounts := service.NewAccountService(s, users, codec, mailer, "https://admin.example.com")

	configCache := cache.NewMemoryCache(cache.MemoryOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = configCache.Close() })

	h := NewRouter(RouterConfig{
		Guard:           middleware.NewGuard(resolver, recorder),
		Auth:            NewAuthHandler(accounts, users, resolver, recorder, setup.protection, CookieSettings{TTL: codec.AccessTTL()}),
		Users:           NewUsersHandler(users, recorder),
		Roles:           NewRolesHandler(service.NewRoleService(s), recorder),
		Audit:           NewAuditHandler(s.Queries, recorder),
		Content:         NewContentHandler(service.NewContentService(s), recorder),
		Config:          NewConfigHandler(service.NewConfigService(s, configCache, time.Minute), recorder),
		Health:          NewHealthHandler(s.DB(), resolver, "", configCache),
		LoginProtection: setup.protection,
	})

	return &testServer{t: t, store: s, codec: codec, recorder: recorder, mailer: mailer, handler: h}
}

// userWith creates an active user holding a role granted perms and returns
// a bearer token for it.
func (ts *testServer) userWith(email, roleName string, perms ...auth.Permission) (store.User, string) {
	ts.t.Helper()
	role := testutil.CreateRole(ts.t, ts.store, roleName, perms...)
	u := testutil.CreateUser(ts.t, ts.store, email, "password123", auth.StatusActive, role.ID)
	return u, ts.token(u)
}

func (ts *testServer) admin() (store.User, string) {
	ts.t.Helper()
	role := testutil.AdminRole(ts.t, ts.store)
	u := testutil.CreateUser(ts.t, ts.store, "admin@example.com", "password123", auth.StatusActive, role.ID)
	return u, ts.token(u)
}

func (ts *testServer) token(u store.User) string {
	ts.t.Helper()
	tok, err := ts.codec.Issue(u.ID, "", u.Email)
	require.NoError(ts.t, err)
	return tok
}

// do sends a request. body may be nil, a string (sent verbatim) or any
// value encoded as JSON.
func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(ts.t, err)
		rdr = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.RemoteAddr = "203.0.113.7:40000"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) auditTrail(typ string) []store.AuditLog {
	ts.t.Helper()
	ts.recorder.Flush()
	page, err := service.ListAuditLogs(context.Background(), ts.store.Queries,
		store.AuditLogFilter{Type: typ}, service.Pagination{Limit: 100})
	require.NoError(ts.t, err)
	return page.Data
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}
