// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrDuplicate is returned when an insert or update violates a unique constraint.
var ErrDuplicate = errors.New("duplicate value")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// IsDuplicate reports whether err is a unique constraint violation on any
// supported driver.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicate) {
		return true
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	// Both SQLite drivers report "UNIQUE constraint failed: table.column".
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// execAffectingOne runs a statement that targets one row and reports
// sql.ErrNoRows when nothing matched.
func execAffectingOne(ctx context.Context, db DBTX, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		if IsDuplicate(err) {
			return errors.Join(ErrDuplicate, err)
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// insertID runs an INSERT and returns the generated id.
func insertID(ctx context.Context, db DBTX, query string, args ...any) (int64, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		if IsDuplicate(err) {
			return 0, errors.Join(ErrDuplicate, err)
		}
		return 0, err
	}
	return res.LastInsertId()
}
