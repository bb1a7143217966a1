// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

const roleColumns = `id, name, description, status, created_by, updated_by, created_at, updated_at, deleted_at`

func scanRole(row interface{ Scan(...any) error }) (Role, error) {
	var r Role
	err := row.Scan(
		&r.ID,
		&r.Name,
		&r.Description,
		&r.Status,
		&r.CreatedBy,
		&r.UpdatedBy,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.DeletedAt,
	)
	return r, err
}

type CreateRoleParams struct {
	Name        string
	Description string
	Status      string
	CreatedBy   sql.NullInt64
	CreatedAt   time.Time
}

const createRole = `INSERT INTO roles (name, description, status, created_by, updated_by, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateRole(ctx context.Context, arg CreateRoleParams) (Role, error) {
	id, err := insertID(ctx, q.db, createRole,
		arg.Name,
		arg.Description,
		arg.Status,
		arg.CreatedBy,
		arg.CreatedBy,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	if err != nil {
		return Role{}, err
	}
	return q.GetRole(ctx, id)
}

const getRole = `SELECT ` + roleColumns + ` FROM roles WHERE id = ? AND deleted_at IS NULL`

func (q *Queries) GetRole(ctx context.Context, id int64) (Role, error) {
	return scanRole(q.db.QueryRowContext(ctx, getRole, id))
}

const getRoleByName = `SELECT ` + roleColumns + ` FROM roles
WHERE LOWER(name) = ? AND deleted_at IS NULL ORDER BY id ASC LIMIT 1`

// GetRoleByName matches case-insensitively among non-deleted roles.
func (q *Queries) GetRoleByName(ctx context.Context, name string) (Role, error) {
	return scanRole(q.db.QueryRowContext(ctx, getRoleByName, strings.ToLower(strings.TrimSpace(name))))
}

const listRoles = `SELECT ` + roleColumns + ` FROM roles WHERE deleted_at IS NULL ORDER BY id ASC`

func (q *Queries) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := q.db.QueryContext(ctx, listRoles)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []Role{}
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

type UpdateRoleParams struct {
	ID          int64
	Name        string
	Description string
	Status      string
	UpdatedBy   sql.NullInt64
	UpdatedAt   time.Time
}

const updateRole = `UPDATE roles SET name = ?, description = ?, status = ?, updated_by = ?, updated_at = ?
WHERE id = ? AND deleted_at IS NULL`

func (q *Queries) UpdateRole(ctx context.Context, arg UpdateRoleParams) error {
	return execAffectingOne(ctx, q.db, updateRole,
		arg.Name,
		arg.Description,
		arg.Status,
		arg.UpdatedBy,
		arg.UpdatedAt,
		arg.ID,
	)
}

const softDeleteRole = `UPDATE roles SET deleted_at = ?, updated_by = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`

func (q *Queries) SoftDeleteRole(ctx context.Context, id int64, by sql.NullInt64, now time.Time) error {
	return execAffectingOne(ctx, q.db, softDeleteRole, now, by, now, id)
}

const countUsersWithRole = `SELECT COUNT(*) FROM users WHERE role_id = ? AND deleted_at IS NULL`

func (q *Queries) CountUsersWithRole(ctx context.Context, roleID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsersWithRole, roleID).Scan(&n)
	return n, err
}
