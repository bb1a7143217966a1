// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics exposes Prometheus collectors for the back-office.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/olegiv/ocms-backoffice/internal/version"
)

var (
	registerOnce sync.Once

	// AuthDecisions counts guard outcomes by result (allowed, unauthenticated, forbidden, error).
	AuthDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_auth_decisions_total",
			Help: "Access decisions taken by the request guard.",
		},
		[]string{"result"},
	)

	// AuditWrites counts audit entry writes by outcome (ok, failed).
	AuditWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_audit_writes_total",
			Help: "Audit log writes by outcome.",
		},
		[]string{"outcome"},
	)

	// LoginAttempts counts login attempts by outcome.
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_login_attempts_total",
			Help: "Login attempts by outcome.",
		},
		[]string{"outcome"},
	)

	HTTPInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "backoffice_http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backoffice_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "backoffice_build_info",
			Help: "Back-office build information.",
		},
		[]string{"version", "commit"},
	)
)

// Register adds all collectors to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			AuthDecisions,
			AuditWrites,
			LoginAttempts,
			HTTPInFlight,
			HTTPRequests,
			HTTPDuration,
			buildInfo,
		)
		info := version.Get()
		buildInfo.WithLabelValues(info.Version, info.GitCommit).Set(1)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
