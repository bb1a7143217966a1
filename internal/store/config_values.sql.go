// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const getConfigValue = `SELECT config_key, value, description, updated_by, updated_at FROM config_values WHERE config_key = ?`

func (q *Queries) GetConfigValue(ctx context.Context, key string) (ConfigValue, error) {
	var c ConfigValue
	err := q.db.QueryRowContext(ctx, getConfigValue, key).Scan(&c.Key, &c.Value, &c.Description, &c.UpdatedBy, &c.UpdatedAt)
	return c, err
}

const listConfigValues = `SELECT config_key, value, description, updated_by, updated_at FROM config_values ORDER BY config_key ASC`

func (q *Queries) ListConfigValues(ctx context.Context) ([]ConfigValue, error) {
	rows, err := q.db.QueryContext(ctx, listConfigValues)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []ConfigValue{}
	for rows.Next() {
		var c ConfigValue
		if err := rows.Scan(&c.Key, &c.Value, &c.Description, &c.UpdatedBy, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

type UpsertConfigValueParams struct {
	Key         string
	Value       string
	Description string
	UpdatedBy   sql.NullInt64
	UpdatedAt   time.Time
}

const updateConfigValue = `UPDATE config_values SET value = ?, description = ?, updated_by = ?, updated_at = ? WHERE config_key = ?`

const insertConfigValue = `INSERT INTO config_values (config_key, value, description, updated_by, updated_at) VALUES (?, ?, ?, ?, ?)`

// UpsertConfigValue updates the key or inserts it when absent. Call it
// inside a transaction when concurrent writers are possible.
func (q *Queries) UpsertConfigValue(ctx context.Context, arg UpsertConfigValueParams) error {
	err := execAffectingOne(ctx, q.db, updateConfigValue, arg.Value, arg.Description, arg.UpdatedBy, arg.UpdatedAt, arg.Key)
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	_, err = insertID(ctx, q.db, insertConfigValue, arg.Key, arg.Value, arg.Description, arg.UpdatedBy, arg.UpdatedAt)
	return err
}
