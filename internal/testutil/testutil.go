// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the back-office.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/olegiv/ocms-backoffice/internal/auth"
	"github.com/olegiv/ocms-backoffice/internal/store"
)

// TestLogger creates a test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestDB creates a temporary SQLite database with migrations applied and
// the permission catalog seeded. The database is closed when the test ends.
func TestDB(t *testing.T) *store.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "backoffice-test.db")
	db, err := store.NewDB(store.DriverSQLite, path)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db, store.DriverSQLite); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	s := store.NewStore(db)
	if err := store.Seed(context.Background(), s, store.SeedOptions{}); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return s
}

// CreateRole creates an active role granted the named permissions.
func CreateRole(t *testing.T, s *store.Store, name string, perms ...auth.Permission) store.Role {
	t.Helper()
	ctx := context.Background()

	role, err := s.CreateRole(ctx, store.CreateRoleParams{
		Name:      name,
		Status:    auth.StatusActive,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateRole(%s): %v", name, err)
	}

	all, err := s.ListPermissions(ctx)
	if err != nil {
		t.Fatalf("ListPermissions: %v", err)
	}
	want := make(map[string]bool, len(perms))
	for _, p := range perms {
		want[string(p)] = true
	}
	var ids []int64
	for _, p := range all {
		if want[p.Name] {
			ids = append(ids, p.ID)
		}
	}
	if err := s.ReplaceRolePermissions(ctx, role.ID, ids); err != nil {
		t.Fatalf("ReplaceRolePermissions(%s): %v", name, err)
	}
	return role
}

// CreateUser creates a user with the given password, status and role.
// A zero roleID leaves the user without a role.
func CreateUser(t *testing.T, s *store.Store, email, password, status string, roleID int64) store.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	now := time.Now().UTC()
	u, err := s.CreateUser(context.Background(), store.CreateUserParams{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: hash,
		Status:       status,
		RoleID:       sql.NullInt64{Int64: roleID, Valid: roleID > 0},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return u
}

// AdminRole returns the seeded super-role.
func AdminRole(t *testing.T, s *store.Store) store.Role {
	t.Helper()
	role, err := s.GetRoleByName(context.Background(), auth.SuperRole)
	if err != nil {
		t.Fatalf("GetRoleByName(admin): %v", err)
	}
	return role
}
