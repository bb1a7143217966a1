// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const listPermissions = `SELECT id, name, status, created_at, updated_at FROM permissions ORDER BY id ASC`

// ListPermissions returns all permissions in ascending id order.
func (q *Queries) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := q.db.QueryContext(ctx, listPermissions)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []Permission{}
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const createPermission = `INSERT INTO permissions (name, status, created_at, updated_at) VALUES (?, 'active', ?, ?)`

func (q *Queries) CreatePermission(ctx context.Context, name string, now time.Time) (int64, error) {
	return insertID(ctx, q.db, createPermission, name, now, now)
}

const listPermissionIDsForRole = `SELECT permission_id FROM role_permissions WHERE role_id = ? ORDER BY permission_id ASC`

// ListPermissionIDsForRole returns the permission ids granted to a role.
func (q *Queries) ListPermissionIDsForRole(ctx context.Context, roleID int64) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, listPermissionIDsForRole, roleID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const listPermissionNamesForRole = `SELECT p.name FROM role_permissions rp
JOIN permissions p ON p.id = rp.permission_id
WHERE rp.role_id = ? AND p.status = 'active'
ORDER BY p.name ASC`

// ListPermissionNamesForRole returns the names of active permissions
// granted to a role.
func (q *Queries) ListPermissionNamesForRole(ctx context.Context, roleID int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listPermissionNamesForRole, roleID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

const deleteRolePermissions = `DELETE FROM role_permissions WHERE role_id = ?`

func (q *Queries) DeleteRolePermissions(ctx context.Context, roleID int64) error {
	_, err := q.db.ExecContext(ctx, deleteRolePermissions, roleID)
	return err
}

const insertRolePermission = `INSERT INTO role_permissions (role_id, permission_id) VALUES (?, ?)`

func (q *Queries) InsertRolePermission(ctx context.Context, roleID, permissionID int64) error {
	_, err := q.db.ExecContext(ctx, insertRolePermission, roleID, permissionID)
	return err
}
