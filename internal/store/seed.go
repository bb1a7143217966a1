// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/ocms-backoffice/internal/auth"
)

// SeedOptions controls optional seed steps.
type SeedOptions struct {
	// AdminEmail and AdminPassword create the first administrator when the
	// users table is empty. Both must be set.
	AdminEmail    string
	AdminPassword string
}

// Seed makes sure the permission catalog and the super-role exist, and
// optionally bootstraps the first administrator. It is idempotent.
func Seed(ctx context.Context, s *Store, opts SeedOptions) error {
	if err := EnsurePermissions(ctx, s.Queries); err != nil {
		return err
	}

	adminRole, err := EnsureSuperRole(ctx, s.Queries)
	if err != nil {
		return err
	}

	if opts.AdminEmail == "" || opts.AdminPassword == "" {
		return nil
	}

	n, err := s.CountAllUsers(ctx)
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if n > 0 {
		slog.Info("users already exist, skipping admin bootstrap")
		return nil
	}

	hash, err := auth.HashPassword(opts.AdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	user, err := s.CreateUser(ctx, CreateUserParams{
		FirstName:    "Administrator",
		Email:        opts.AdminEmail,
		PasswordHash: hash,
		Status:       auth.StatusActive,
		RoleID:       sql.NullInt64{Int64: adminRole.ID, Valid: true},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created bootstrap admin user", "id", user.ID, "email", user.Email)
	return nil
}

// EnsurePermissions inserts catalog permissions that are missing.
// Existing rows, including names outside the catalog, are left alone.
func EnsurePermissions(ctx context.Context, q *Queries) error {
	existing, err := q.ListPermissions(ctx)
	if err != nil {
		return fmt.Errorf("listing permissions: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, p := range existing {
		have[p.Name] = true
	}

	now := time.Now().UTC()
	added := 0
	for _, p := range auth.Catalog() {
		if have[string(p)] {
			continue
		}
		if _, err := q.CreatePermission(ctx, string(p), now); err != nil {
			return fmt.Errorf("creating permission %s: %w", p, err)
		}
		added++
	}
	if added > 0 {
		slog.Info("seeded permissions", "count", added)
	}
	return nil
}

// EnsureSuperRole returns the super-role, creating it if absent.
func EnsureSuperRole(ctx context.Context, q *Queries) (Role, error) {
	role, err := q.GetRoleByName(ctx, auth.SuperRole)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Role{}, fmt.Errorf("looking up %s role: %w", auth.SuperRole, err)
	}

	role, err = q.CreateRole(ctx, CreateRoleParams{
		Name:        auth.SuperRole,
		Description: "Full access to every back-office module",
		Status:      auth.StatusActive,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return Role{}, fmt.Errorf("creating %s role: %w", auth.SuperRole, err)
	}
	slog.Info("created super role", "id", role.ID, "name", role.Name)
	return role, nil
}
