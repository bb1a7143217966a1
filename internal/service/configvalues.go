// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/olegiv/ocms-backoffice/internal/cache"
	"github.com/olegiv/ocms-backoffice/internal/store"
)

const (
	configListKey   = "config:all"
	configKeyPrefix = "config:key:"
	maxConfigValue  = 64 * 1024
)

var configKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_.]{0,99}$`)

// ConfigValueInput is an upsert payload.
type ConfigValueInput struct {
	Value       string `json:"value"`
	Description string `json:"description"`
}

// ConfigService reads configuration values through a cache and
// invalidates it on every write. Cache failures degrade to database reads.
type ConfigService struct {
	store *store.Store
	cache cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewConfigService creates a ConfigService. c may be nil to disable caching.
func NewConfigService(s *store.Store, c cache.Cache, ttl time.Duration) *ConfigService {
	return &ConfigService{store: s, cache: c, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

func (s *ConfigService) List(ctx context.Context) ([]store.ConfigValue, error) {
	var values []store.ConfigValue
	if s.cache != nil {
		if err := cache.GetJSON(ctx, s.cache, configListKey, &values); err == nil {
			return values, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			slog.Warn("config cache read failed", "key", configListKey, "error", err)
		}
	}

	values, err := s.store.ListConfigValues(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing config values: %w", err)
	}
	s.fill(ctx, configListKey, values)
	return values, nil
}

func (s *ConfigService) Get(ctx context.Context, key string) (store.ConfigValue, error) {
	ck := configKeyPrefix + key
	var v store.ConfigValue
	if s.cache != nil {
		if err := cache.GetJSON(ctx, s.cache, ck, &v); err == nil {
			return v, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			slog.Warn("config cache read failed", "key", ck, "error", err)
		}
	}

	v, err := s.store.GetConfigValue(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ConfigValue{}, fmt.Errorf("config %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return store.ConfigValue{}, err
	}
	s.fill(ctx, ck, v)
	return v, nil
}

// Set upserts key and drops the cached copies.
func (s *ConfigService) Set(ctx context.Context, key string, in ConfigValueInput, actorID int64) (store.ConfigValue, error) {
	key = strings.TrimSpace(key)
	v := NewValidationError()
	if !configKeyPattern.MatchString(key) {
		v.Add("key", "key must start with a letter and contain only a-z, 0-9, '_' or '.'")
	}
	if len(in.Value) > maxConfigValue {
		v.Add("value", "value is too long")
	}
	if err := v.OrNil(); err != nil {
		return store.ConfigValue{}, err
	}

	err := s.store.ExecTx(ctx, func(q *store.Queries) error {
		return q.UpsertConfigValue(ctx, store.UpsertConfigValueParams{
			Key:         key,
			Value:       in.Value,
			Description: strings.TrimSpace(in.Description),
			UpdatedBy:   nullID(actorID),
			UpdatedAt:   s.now(),
		})
	})
	if err != nil {
		return store.ConfigValue{}, fmt.Errorf("saving config %q: %w", key, err)
	}
	s.invalidate(ctx, key)
	return s.store.GetConfigValue(ctx, key)
}

func (s *ConfigService) fill(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.cache, key, v, s.ttl); err != nil {
		slog.Warn("config cache write failed", "key", key, "error", err)
	}
}

func (s *ConfigService) invalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	for _, k := range []string{configListKey, configKeyPrefix + key} {
		if err := s.cache.Delete(ctx, k); err != nil {
			slog.Warn("config cache invalidation failed", "key", k, "error", err)
		}
	}
}
