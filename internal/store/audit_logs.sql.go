// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

type CreateAuditLogParams struct {
	UserID    sql.NullInt64
	Username  string
	Type      string
	Activity  string
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}

const createAuditLog = `INSERT INTO audit_logs (user_id, username, type, activity, ip_address, user_agent, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateAuditLog(ctx context.Context, arg CreateAuditLogParams) (int64, error) {
	return insertID(ctx, q.db, createAuditLog,
		arg.UserID,
		arg.Username,
		arg.Type,
		arg.Activity,
		arg.IPAddress,
		arg.UserAgent,
		arg.CreatedAt,
	)
}

// AuditLogFilter is shared by ListAuditLogs and CountAuditLogs so totals
// always match the returned rows.
type AuditLogFilter struct {
	Type   string
	UserID sql.NullInt64
	Search string
}

func (f AuditLogFilter) where() (string, []any) {
	var clauses []string
	var args []any
	if f.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, f.Type)
	}
	if f.UserID.Valid {
		clauses = append(clauses, "user_id = ?")
		args = append(args, f.UserID.Int64)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := containsPattern(s)
		clauses = append(clauses, "(activity LIKE ? ESCAPE '!' OR username LIKE ? ESCAPE '!')")
		args = append(args, like, like)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (q *Queries) CountAuditLogs(ctx context.Context, f AuditLogFilter) (int64, error) {
	where, args := f.where()
	var n int64
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_logs"+where, args...).Scan(&n)
	return n, err
}

// ListAuditLogs returns entries newest first.
func (q *Queries) ListAuditLogs(ctx context.Context, f AuditLogFilter, limit, offset int64) ([]AuditLog, error) {
	where, args := f.where()
	args = append(args, limit, offset)
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, user_id, username, type, activity, ip_address, user_agent, created_at FROM audit_logs`+
			where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []AuditLog{}
	for rows.Next() {
		var a AuditLog
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.Username,
			&a.Type,
			&a.Activity,
			&a.IPAddress,
			&a.UserAgent,
			&a.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
