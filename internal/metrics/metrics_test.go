// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterTwice(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	Register()
	AuthDecisions.WithLabelValues("forbidden").Inc()
	AuditWrites.WithLabelValues("ok").Inc()

	srv := httptest.NewServer(Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `backoffice_auth_decisions_total{result="forbidden"}`)
	assert.Contains(t, string(body), `backoffice_audit_writes_total{outcome="ok"}`)
	assert.Contains(t, string(body), "backoffice_build_info")
}

func TestAuthDecisionsCounter(t *testing.T) {
	before := promtest.ToFloat64(AuthDecisions.WithLabelValues("allowed"))
	AuthDecisions.WithLabelValues("allowed").Inc()
	assert.Equal(t, before+1, promtest.ToFloat64(AuthDecisions.WithLabelValues("allowed")))
}
