// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

const userColumns = `id, first_name, last_name, email, password_hash, phone, status, role_id, image, created_at, updated_at, deleted_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&u.Phone,
		&u.Status,
		&u.RoleID,
		&u.Image,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.DeletedAt,
	)
	return u, err
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type CreateUserParams struct {
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Phone        string
	Status       string
	RoleID       sql.NullInt64
	Image        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const createUser = `INSERT INTO users (first_name, last_name, email, password_hash, phone, status, role_id, image, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	id, err := insertID(ctx, q.db, createUser,
		arg.FirstName,
		arg.LastName,
		NormalizeEmail(arg.Email),
		arg.PasswordHash,
		arg.Phone,
		arg.Status,
		arg.RoleID,
		arg.Image,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	return q.GetUserByID(ctx, id)
}

// The derived table keeps MySQL from rejecting a read of the insert target.
const createFirstUser = `INSERT INTO users (first_name, last_name, email, password_hash, phone, status, role_id, image, created_at, updated_at)
SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
FROM (SELECT COUNT(*) AS n FROM users) AS existing WHERE existing.n = 0`

// CreateFirstUser inserts arg only while the users table is empty, counting
// soft-deleted rows. It returns sql.ErrNoRows once any user exists.
func (q *Queries) CreateFirstUser(ctx context.Context, arg CreateUserParams) (User, error) {
	res, err := q.db.ExecContext(ctx, createFirstUser,
		arg.FirstName,
		arg.LastName,
		NormalizeEmail(arg.Email),
		arg.PasswordHash,
		arg.Phone,
		arg.Status,
		arg.RoleID,
		arg.Image,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	if err != nil {
		if IsDuplicate(err) {
			return User{}, errors.Join(ErrDuplicate, err)
		}
		return User{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return User{}, err
	}
	if n == 0 {
		return User{}, sql.ErrNoRows
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return q.GetUserByID(ctx, id)
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ? AND deleted_at IS NULL`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ? AND deleted_at IS NULL`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, NormalizeEmail(email)))
}

// GetUserByIDIncludingDeleted is used by the irreversible purge.
const getUserByIDIncludingDeleted = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUserByIDIncludingDeleted(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByIDIncludingDeleted, id))
}

type UserWithRole struct {
	User
	// ActiveRoleID is set only when the role exists, is active and not deleted.
	ActiveRoleID sql.NullInt64
	RoleName     sql.NullString
}

const getUserWithRole = `SELECT u.id, u.first_name, u.last_name, u.email, u.password_hash, u.phone, u.status,
       u.role_id, u.image, u.created_at, u.updated_at, u.deleted_at, r.id, r.name
FROM users u
LEFT JOIN roles r ON r.id = u.role_id AND r.deleted_at IS NULL AND r.status = 'active'
WHERE u.id = ? AND u.deleted_at IS NULL`

func (q *Queries) GetUserWithRole(ctx context.Context, id int64) (UserWithRole, error) {
	var i UserWithRole
	err := q.db.QueryRowContext(ctx, getUserWithRole, id).Scan(
		&i.ID,
		&i.FirstName,
		&i.LastName,
		&i.Email,
		&i.PasswordHash,
		&i.Phone,
		&i.Status,
		&i.RoleID,
		&i.Image,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.DeletedAt,
		&i.ActiveRoleID,
		&i.RoleName,
	)
	return i, err
}

type UpdateUserParams struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Image     string
	UpdatedAt time.Time
}

const updateUser = `UPDATE users SET first_name = ?, last_name = ?, email = ?, phone = ?, image = ?, updated_at = ?
WHERE id = ? AND deleted_at IS NULL`

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) error {
	return execAffectingOne(ctx, q.db, updateUser,
		arg.FirstName,
		arg.LastName,
		NormalizeEmail(arg.Email),
		arg.Phone,
		arg.Image,
		arg.UpdatedAt,
		arg.ID,
	)
}

const updateUserStatus = `UPDATE users SET status = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`

func (q *Queries) UpdateUserStatus(ctx context.Context, id int64, status string, now time.Time) error {
	return execAffectingOne(ctx, q.db, updateUserStatus, status, now, id)
}

const updateUserRole = `UPDATE users SET role_id = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`

func (q *Queries) UpdateUserRole(ctx context.Context, id int64, roleID sql.NullInt64, now time.Time) error {
	return execAffectingOne(ctx, q.db, updateUserRole, roleID, now, id)
}

const updateUserPassword = `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`

func (q *Queries) UpdateUserPassword(ctx context.Context, id int64, hash string, now time.Time) error {
	return execAffectingOne(ctx, q.db, updateUserPassword, hash, now, id)
}

const replaceUserPassword = `UPDATE users SET password_hash = ?, updated_at = ?
WHERE id = ? AND password_hash = ? AND deleted_at IS NULL`

// ReplaceUserPassword swaps oldHash for hash. It returns sql.ErrNoRows when
// the stored hash is no longer oldHash.
func (q *Queries) ReplaceUserPassword(ctx context.Context, id int64, oldHash, hash string, now time.Time) error {
	return execAffectingOne(ctx, q.db, replaceUserPassword, hash, now, id, oldHash)
}

const softDeleteUser = `UPDATE users SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`

func (q *Queries) SoftDeleteUser(ctx context.Context, id int64, now time.Time) error {
	return execAffectingOne(ctx, q.db, softDeleteUser, now, now, id)
}

const deleteUser = `DELETE FROM users WHERE id = ?`

func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	return execAffectingOne(ctx, q.db, deleteUser, id)
}

const countAllUsers = `SELECT COUNT(*) FROM users`

// CountAllUsers counts every row, including soft-deleted users.
func (q *Queries) CountAllUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countAllUsers).Scan(&n)
	return n, err
}

type UserFilter struct {
	Search string
	Status string
	RoleID sql.NullInt64
}

func (f UserFilter) where() (string, []any) {
	clauses := []string{"deleted_at IS NULL"}
	var args []any
	if s := strings.TrimSpace(f.Search); s != "" {
		like := containsPattern(s)
		clauses = append(clauses, "(first_name LIKE ? ESCAPE '!' OR last_name LIKE ? ESCAPE '!' OR email LIKE ? ESCAPE '!')")
		args = append(args, like, like, like)
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if f.RoleID.Valid {
		clauses = append(clauses, "role_id = ?")
		args = append(args, f.RoleID.Int64)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (q *Queries) CountUsers(ctx context.Context, f UserFilter) (int64, error) {
	where, args := f.where()
	var n int64
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users"+where, args...).Scan(&n)
	return n, err
}

func (q *Queries) ListUsers(ctx context.Context, f UserFilter, limit, offset int64) ([]User, error) {
	where, args := f.where()
	args = append(args, limit, offset)
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users"+where+" ORDER BY id ASC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}
