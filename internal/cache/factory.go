// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// DefaultTTL applies when no TTL is configured.
const DefaultTTL = 5 * time.Minute

// Config selects and configures a backend.
type Config struct {
	RedisURL string
	Prefix   string
	TTL      time.Duration
}

// New returns a RedisCache when RedisURL is set and a MemoryCache
// otherwise. A Redis connection failure is returned, not papered over.
func New(cfg Config) (Cache, error) {
	if cfg.RedisURL != "" {
		c, err := NewRedisCache(RedisOptions{URL: cfg.RedisURL, Prefix: cfg.Prefix, DefaultTTL: cfg.TTL})
		if err != nil {
			return nil, err
		}
		slog.Info("using redis cache", "prefix", cfg.Prefix)
		return c, nil
	}
	return NewMemoryCache(MemoryOptions{DefaultTTL: cfg.TTL, MaxItems: 10000, CleanupInterval: time.Minute}), nil
}

// GetJSON decodes a cached value into dst. Undecodable entries count as misses.
func GetJSON(ctx context.Context, c Cache, key string, dst any) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		_ = c.Delete(ctx, key)
		return ErrCacheMiss
	}
	return nil
}

// SetJSON encodes v and stores it.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}
