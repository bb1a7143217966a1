// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cache provides the key/value cache behind configuration value
// reads. Authorization data is never cached.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values. Implementations are safe for concurrent use.
type Cache interface {
	// Get returns ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value; a zero ttl means the cache default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Clear drops every key owned by this cache.
	Clear(ctx context.Context) error
	// Stats reports the counters since creation.
	Stats() Stats
	Close() error
}

// Stats is a snapshot of hit/miss counters.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	Items  int   `json:"items"`
}

// HitRate is the hit percentage, 0 when nothing was read.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Error is a cache error constant.
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrCacheMiss   Error = "cache miss"
	ErrCacheClosed Error = "cache closed"
)
