// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that mirrors warnings and errors
// into the audit trail.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/olegiv/ocms-backoffice/internal/service"
)

const (
	// SystemUsername is stored as the actor of forwarded records.
	SystemUsername = "system"
	// AuditType is the audit entry type of forwarded records.
	AuditType = service.AuditError

	maxActivityLength = 1000
)

// Recorder schedules an audit entry and returns without waiting for the
// write. *service.AuditRecorder implements it.
type Recorder interface {
	Record(ctx context.Context, e service.AuditEntry)
}

// AuditLogHandler passes every record to inner and additionally hands
// records at or above its level to a Recorder. The logging call never waits
// on the audit store and never fails because of it. Records tagged
// category=audit are not forwarded, since they describe the audit trail
// itself failing.
type AuditLogHandler struct {
	inner    slog.Handler
	recorder Recorder
	level    slog.Level
	attrs    []slog.Attr
	group    string
}

// NewAuditLogHandler forwards WARN and above.
func NewAuditLogHandler(inner slog.Handler, rec Recorder) *AuditLogHandler {
	return &AuditLogHandler{inner: inner, recorder: rec, level: slog.LevelWarn}
}

// WithLevel returns a copy forwarding records at level and above.
func (h *AuditLogHandler) WithLevel(level slog.Level) *AuditLogHandler {
	c := *h
	c.level = level
	return &c
}

func (h *AuditLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *AuditLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level && !h.isAuditCategory(r) {
		h.forward(ctx, r)
	}
	return nil
}

func (h *AuditLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.inner = h.inner.WithAttrs(attrs)
	c.attrs = append(append([]slog.Attr(nil), h.attrs...), h.qualify(attrs)...)
	return &c
}

func (h *AuditLogHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.inner = h.inner.WithGroup(name)
	if name != "" {
		c.group = h.group + name + "."
	}
	return &c
}

func (h *AuditLogHandler) forward(ctx context.Context, r slog.Record) {
	h.recorder.Record(ctx, service.AuditEntry{
		Username: SystemUsername,
		Type:     AuditType,
		Activity: h.activity(r),
	})
}

// activity renders "LEVEL message key=value ..." capped at maxActivityLength.
func (h *AuditLogHandler) activity(r slog.Record) string {
	var sb strings.Builder
	sb.WriteString(r.Level.String())
	sb.WriteByte(' ')
	sb.WriteString(r.Message)

	write := func(prefix string, a slog.Attr) {
		if a.Key == "category" || a.Equal(slog.Attr{}) {
			return
		}
		fmt.Fprintf(&sb, " %s%s=%s", prefix, a.Key, a.Value.Resolve().String())
	}
	for _, a := range h.attrs {
		write("", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		write(h.group, a)
		return true
	})

	return truncate(sb.String(), maxActivityLength)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (h *AuditLogHandler) isAuditCategory(r slog.Record) bool {
	for _, a := range h.attrs {
		if a.Key == "category" && a.Value.String() == "audit" {
			return true
		}
	}
	found := false
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" && a.Value.String() == "audit" {
			found = true
			return false
		}
		return true
	})
	return found
}

func (h *AuditLogHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.group == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		a.Key = h.group + a.Key
		out[i] = a
	}
	return out
}
