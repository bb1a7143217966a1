// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service holds the business operations behind the HTTP handlers:
// the audit trail, role and permission maintenance, user accounts and
// back-office content.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/olegiv/ocms-backoffice/internal/auth"
	"github.com/olegiv/ocms-backoffice/internal/metrics"
	"github.com/olegiv/ocms-backoffice/internal/store"
	"github.com/olegiv/ocms-backoffice/internal/util"
)

// Audit entry types.
const (
	AuditView           = "View"
	AuditCreate         = "Create"
	AuditUpdate         = "Update"
	AuditDelete         = "Delete"
	AuditAuthentication = "Authentication"
	AuditExport         = "Export"
	AuditError          = "Error"
)

// DefaultAuditTimeout bounds one detached write.
const DefaultAuditTimeout = 5 * time.Second

// AuditTypes lists the accepted type filter values.
func AuditTypes() []string {
	return []string{AuditView, AuditCreate, AuditUpdate, AuditDelete, AuditAuthentication, AuditExport, AuditError}
}

// IsAuditType reports whether t is one of AuditTypes.
func IsAuditType(t string) bool {
	for _, v := range AuditTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// AuditLogWriter is the storage side of the recorder.
type AuditLogWriter interface {
	CreateAuditLog(ctx context.Context, arg store.CreateAuditLogParams) (int64, error)
}

// AuditEntry is one action to append to the trail.
type AuditEntry struct {
	UserID    sql.NullInt64
	Username  string
	Type      string
	Activity  string
	IPAddress string
	UserAgent string
}

// EntryFor fills the actor and request fields of an entry from ac and r.
// Either may be nil.
func EntryFor(ac *auth.AuthContext, r *http.Request, typ, activity string) AuditEntry {
	e := AuditEntry{Type: typ, Activity: activity}
	if ac != nil {
		e.UserID = sql.NullInt64{Int64: ac.UserID, Valid: true}
		e.Username = ac.Username()
	}
	if r != nil {
		e.IPAddress = util.ClientIP(r)
		e.UserAgent = util.SummarizeUserAgent(r.UserAgent())
	}
	return e
}

// AuditRecorder appends audit entries on a detached goroutine. Record never
// blocks on storage and never reports failure to its caller; failures go to
// the operational log and the audit write counter.
type AuditRecorder struct {
	writer  AuditLogWriter
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger

	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// AuditOption configures an AuditRecorder.
type AuditOption func(*AuditRecorder)

// WithAuditTimeout sets the per-write deadline.
func WithAuditTimeout(d time.Duration) AuditOption {
	return func(r *AuditRecorder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithAuditClock overrides the clock that stamps entries.
func WithAuditClock(now func() time.Time) AuditOption {
	return func(r *AuditRecorder) { r.now = now }
}

// WithAuditLogger sets the logger used for write failures.
func WithAuditLogger(l *slog.Logger) AuditOption {
	return func(r *AuditRecorder) { r.logger = l }
}

// NewAuditRecorder creates a recorder writing through w.
func NewAuditRecorder(w AuditLogWriter, opts ...AuditOption) *AuditRecorder {
	r := &AuditRecorder{
		writer:  w,
		timeout: DefaultAuditTimeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record schedules e for writing and returns immediately. The write uses a
// context that survives cancellation of ctx but is bounded by the
// recorder's timeout. After Close, entries are dropped.
func (r *AuditRecorder) Record(ctx context.Context, e AuditEntry) {
	if r == nil {
		return
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.log().Warn("audit recorder closed, dropping entry", "category", "audit", "type", e.Type, "activity", e.Activity)
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	createdAt := r.now()
	go func() {
		defer r.wg.Done()
		r.write(detached, e, createdAt)
	}()
}

// RecordFor is shorthand for Record(ctx, EntryFor(ac, req, typ, activity)).
func (r *AuditRecorder) RecordFor(ctx context.Context, ac *auth.AuthContext, req *http.Request, typ, activity string) {
	r.Record(ctx, EntryFor(ac, req, typ, activity))
}

func (r *AuditRecorder) write(ctx context.Context, e AuditEntry, createdAt time.Time) {
	defer func() {
		if rec := recover(); rec != nil {
			metrics.AuditWrites.WithLabelValues("failed").Inc()
			r.log().Error("audit write panicked", "category", "audit", "panic", fmt.Sprint(rec), "type", e.Type)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.writer.CreateAuditLog(ctx, store.CreateAuditLogParams{
		UserID:    e.UserID,
		Username:  e.Username,
		Type:      e.Type,
		Activity:  e.Activity,
		IPAddress: e.IPAddress,
		UserAgent: e.UserAgent,
		CreatedAt: createdAt,
	})
	if err != nil {
		metrics.AuditWrites.WithLabelValues("failed").Inc()
		r.log().Error("audit write failed", "category", "audit", "error", err, "type", e.Type, "activity", e.Activity)
		return
	}
	metrics.AuditWrites.WithLabelValues("ok").Inc()
}

// Flush waits for every write scheduled so far.
func (r *AuditRecorder) Flush() {
	if r == nil {
		return
	}
	r.wg.Wait()
}

// Close stops accepting entries and drains in-flight writes, or gives up
// when ctx is done.
func (r *AuditRecorder) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("draining audit writes: %w", ctx.Err())
	}
}

func (r *AuditRecorder) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}

// AuditLogReader lists stored entries.
type AuditLogReader interface {
	CountAuditLogs(ctx context.Context, f store.AuditLogFilter) (int64, error)
	ListAuditLogs(ctx context.Context, f store.AuditLogFilter, limit, offset int64) ([]store.AuditLog, error)
}

// AuditPage is one page of the trail.
type AuditPage struct {
	Data        []store.AuditLog
	Total       int64
	TotalPages  int64
	CurrentPage int64
}

// ListAuditLogs counts and lists with the same filter so the total always
// matches the rows it paginates.
func ListAuditLogs(ctx context.Context, q AuditLogReader, f store.AuditLogFilter, p Pagination) (AuditPage, error) {
	if f.Type != "" && !IsAuditType(f.Type) {
		v := NewValidationError()
		v.Add("type", "unknown audit type")
		return AuditPage{}, v
	}
	total, err := q.CountAuditLogs(ctx, f)
	if err != nil {
		return AuditPage{}, fmt.Errorf("counting audit logs: %w", err)
	}
	rows, err := q.ListAuditLogs(ctx, f, p.Limit, p.Offset)
	if err != nil {
		return AuditPage{}, fmt.Errorf("listing audit logs: %w", err)
	}
	if rows == nil {
		rows = []store.AuditLog{}
	}
	return AuditPage{
		Data:        rows,
		Total:       total,
		TotalPages:  p.TotalPages(total),
		CurrentPage: p.Page(),
	}, nil
}
