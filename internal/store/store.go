// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Store bundles Queries with the *sql.DB needed to open transactions.
type Store struct {
	*Queries
	db *sql.DB
}

// NewStore returns a Store on db.
func NewStore(db *sql.DB) *Store {
	return &Store{Queries: New(db), db: db}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ExecTx runs fn inside a transaction, committing if fn returns nil.
func (s *Store) ExecTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(s.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ReplaceRolePermissions replaces the permission set of a role in one
// transaction. An empty ids slice revokes everything. Returns sql.ErrNoRows
// if the role does not exist or is deleted.
func (s *Store) ReplaceRolePermissions(ctx context.Context, roleID int64, ids []int64) error {
	return s.ExecTx(ctx, func(q *Queries) error {
		// The delete comes first so the write lock is held before the
		// existence check.
		if err := q.DeleteRolePermissions(ctx, roleID); err != nil {
			return fmt.Errorf("delete role permissions: %w", err)
		}
		if _, err := q.GetRole(ctx, roleID); err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := q.insertRolePermissions(ctx, roleID, ids); err != nil {
			return fmt.Errorf("insert role permissions: %w", err)
		}
		return nil
	})
}

// insertRolePermissions inserts all pairs with one multi-row statement.
func (q *Queries) insertRolePermissions(ctx context.Context, roleID int64, ids []int64) error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO role_permissions (role_id, permission_id) VALUES ")
	args := make([]any, 0, len(ids)*2)
	for i, id := range ids {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?)")
		args = append(args, roleID, id)
	}
	_, err := q.db.ExecContext(ctx, sb.String(), args...)
	return err
}

// likeEscaper escapes LIKE wildcards with '!', which needs no quoting in
// either SQLite or MySQL string literals. Pair it with ESCAPE '!'.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern returns a LIKE pattern matching s literally anywhere in a
// column.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
