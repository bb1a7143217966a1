// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/olegiv/ocms-backoffice/internal/auth"
	"github.com/olegiv/ocms-backoffice/internal/cache"
	"github.com/olegiv/ocms-backoffice/internal/version"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDegraded  = "degraded"
)

// healthCheckTimeout bounds the database ping.
const healthCheckTimeout = 2 * time.Second

// HealthHandler handles health check requests.
type HealthHandler struct {
	db         *sql.DB
	resolver   *auth.Resolver
	uploadsDir string
	cache      cache.Cache
	startTime  time.Time
}

// NewHealthHandler creates a health handler. resolver may be nil, in which
// case every caller gets the minimal response. c may be nil when caching is
// off.
func NewHealthHandler(db *sql.DB, resolver *auth.Resolver, uploadsDir string, c cache.Cache) *HealthHandler {
	return &HealthHandler{
		db:         db,
		resolver:   resolver,
		uploadsDir: uploadsDir,
		cache:      c,
		startTime:  time.Now(),
	}
}

// HealthStatusPublic is the minimal health response for unauthenticated callers.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus is the detailed response for super-role callers.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   version.Info     `json:"version"`
	Checks    map[string]Check `json:"checks"`
	Cache     *CacheInfo       `json:"cache,omitempty"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// CacheInfo reports the config value cache counters.
type CacheInfo struct {
	cache.Stats
	HitRate float64 `json:"hitRate"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains runtime information.
type SystemInfo struct {
	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutines"`
	NumCPU       int    `json:"numCpus"`
	MemAllocMB   uint64 `json:"memAllocMb"`
}

// Health handles GET /health. Only super-role callers see check details.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase(r.Context())
	uploadsCheck := h.checkUploadsDir()

	overall := statusHealthy
	code := http.StatusOK
	switch {
	case dbCheck.Status != statusHealthy:
		overall = statusUnhealthy
		code = http.StatusServiceUnavailable
	case uploadsCheck.Status != statusHealthy:
		overall = statusDegraded
	}

	if !h.isSuperRole(r) {
		writeJSON(w, code, HealthStatusPublic{Status: overall})
		return
	}

	status := HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   version.Get(),
		Checks: map[string]Check{
			"database": dbCheck,
			"uploads":  uploadsCheck,
		},
	}
	if h.cache != nil {
		stats := h.cache.Stats()
		status.Cache = &CacheInfo{Stats: stats, HitRate: stats.HitRate()}
	}
	if r.URL.Query().Get("verbose") == "true" {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		status.System = &SystemInfo{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			NumCPU:       runtime.NumCPU(),
			MemAllocMB:   m.Alloc / 1024 / 1024,
		}
	}
	writeJSON(w, code, status)
}

// Liveness handles GET /health/live.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.checkDatabase(r.Context()).Status != statusHealthy {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *HealthHandler) isSuperRole(r *http.Request) bool {
	if h.resolver == nil {
		return false
	}
	ac, err := h.resolver.Resolve(r.Context(), r)
	return err == nil && ac.IsSuperRole()
}

func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	start := time.Now()
	if err := h.db.PingContext(ctx); err != nil {
		return Check{Status: statusUnhealthy, Message: "database unreachable"}
	}
	return Check{Status: statusHealthy, Latency: time.Since(start).String()}
}

func (h *HealthHandler) checkUploadsDir() Check {
	if h.uploadsDir == "" {
		return Check{Status: statusHealthy, Message: "not configured"}
	}
	info, err := os.Stat(h.uploadsDir)
	if err != nil || !info.IsDir() {
		return Check{Status: statusUnhealthy, Message: "uploads directory missing"}
	}
	return Check{Status: statusHealthy}
}
