// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/olegiv/ocms-backoffice/internal/auth"
	"github.com/olegiv/ocms-backoffice/internal/store"
	"github.com/olegiv/ocms-backoffice/internal/util"
)

// MinPasswordLength is the shortest password accepted anywhere.
const MinPasswordLength = 8

// CreateUserInput is the payload for creating a user.
type CreateUserInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	Status    string `json:"status"`
	RoleID    *int64 `json:"roleId"`
}

// UpdateUserInput is the payload for editing a user's profile.
type UpdateUserInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Image     string `json:"image"`
}

// UserPage is one page of users.
type UserPage struct {
	Data        []store.User
	Total       int64
	TotalPages  int64
	CurrentPage int64
}

// UserService manages back-office user accounts.
type UserService struct {
	store      *store.Store
	uploadsDir string
	now        func() time.Time
}

// NewUserService creates a UserService. Profile images are resolved
// relative to uploadsDir.
func NewUserService(s *store.Store, uploadsDir string) *UserService {
	return &UserService{store: s, uploadsDir: uploadsDir, now: func() time.Time { return time.Now().UTC() }}
}

func (s *UserService) List(ctx context.Context, f store.UserFilter, p Pagination) (UserPage, error) {
	if f.Status != "" && f.Status != auth.StatusActive && f.Status != auth.StatusInactive {
		v := NewValidationError()
		v.Add("status", "status must be active or inactive")
		return UserPage{}, v
	}
	total, err := s.store.CountUsers(ctx, f)
	if err != nil {
		return UserPage{}, fmt.Errorf("counting users: %w", err)
	}
	users, err := s.store.ListUsers(ctx, f, p.Limit, p.Offset)
	if err != nil {
		return UserPage{}, fmt.Errorf("listing users: %w", err)
	}
	return UserPage{Data: users, Total: total, TotalPages: p.TotalPages(total), CurrentPage: p.Page()}, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (store.User, error) {
	u, err := s.store.GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return u, err
}

// Create adds a user. Picking the role at creation is a role assignment,
// so a non-nil RoleID needs the super-role.
func (s *UserService) Create(ctx context.Context, actor *auth.AuthContext, in CreateUserInput) (store.User, error) {
	if in.RoleID != nil {
		if err := auth.RequireSuperRole(actor); err != nil {
			return store.User{}, err
		}
	}
	arg, err := s.newUserParams(in)
	if err != nil {
		return store.User{}, err
	}
	if arg.RoleID, err = s.checkRole(ctx, in.RoleID); err != nil {
		return store.User{}, err
	}

	u, err := s.store.CreateUser(ctx, arg)
	if store.IsDuplicate(err) {
		return store.User{}, fmt.Errorf("email %s is already registered: %w", arg.Email, ErrConflict)
	}
	return u, err
}

// newUserParams validates in and hashes its password. RoleID is left unset.
func (s *UserService) newUserParams(in CreateUserInput) (store.CreateUserParams, error) {
	v := NewValidationError()
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = store.NormalizeEmail(in.Email)
	validateName(v, in.FirstName)
	validateEmail(v, in.Email)
	validatePassword(v, "password", in.Password)
	if in.Status == "" {
		in.Status = auth.StatusActive
	}
	validateStatus(v, in.Status)
	if err := v.OrNil(); err != nil {
		return store.CreateUserParams{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return store.CreateUserParams{}, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now()
	return store.CreateUserParams{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(in.Phone),
		Status:       in.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// authorizeTarget admits changes to a super-role account only when actor
// holds the super-role too.
func (s *UserService) authorizeTarget(ctx context.Context, actor *auth.AuthContext, target store.User) error {
	if actor == nil {
		return auth.ErrUnauthenticated
	}
	if !target.RoleID.Valid {
		return nil
	}
	role, err := s.store.GetRole(ctx, target.RoleID.Int64)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading role of user %d: %w", target.ID, err)
	}
	if !isSuperRoleName(role.Name) {
		return nil
	}
	return auth.RequireSuperRole(actor)
}

func (s *UserService) Update(ctx context.Context, actor *auth.AuthContext, id int64, in UpdateUserInput) (store.User, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return store.User{}, err
	}
	if err := s.authorizeTarget(ctx, actor, current); err != nil {
		return store.User{}, err
	}

	v := NewValidationError()
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = store.NormalizeEmail(in.Email)
	validateName(v, in.FirstName)
	validateEmail(v, in.Email)
	if err := v.OrNil(); err != nil {
		return store.User{}, err
	}

	err = s.store.UpdateUser(ctx, store.UpdateUserParams{
		ID:        id,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     strings.TrimSpace(in.Phone),
		Image:     strings.TrimSpace(in.Image),
		UpdatedAt: s.now(),
	})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return store.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	case store.IsDuplicate(err):
		return store.User{}, fmt.Errorf("email %s is already registered: %w", in.Email, ErrConflict)
	case err != nil:
		return store.User{}, err
	}
	return s.store.GetUserByID(ctx, id)
}

// SetStatus activates or deactivates a user. Callers cannot deactivate
// themselves.
func (s *UserService) SetStatus(ctx context.Context, actor *auth.AuthContext, id int64, status string) (store.User, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return store.User{}, err
	}
	if err := s.authorizeTarget(ctx, actor, current); err != nil {
		return store.User{}, err
	}

	v := NewValidationError()
	validateStatus(v, status)
	if id == actor.UserID && status != auth.StatusActive {
		v.Add("status", "you cannot deactivate your own account")
	}
	if err := v.OrNil(); err != nil {
		return store.User{}, err
	}
	if err := s.store.UpdateUserStatus(ctx, id, status, s.now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return store.User{}, err
	}
	return s.store.GetUserByID(ctx, id)
}

// AssignRole sets or clears (roleID nil) the role of a user.
func (s *UserService) AssignRole(ctx context.Context, id int64, roleID *int64) (store.User, error) {
	rid, err := s.checkRole(ctx, roleID)
	if err != nil {
		return store.User{}, err
	}
	if err := s.store.UpdateUserRole(ctx, id, rid, s.now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return store.User{}, err
	}
	return s.store.GetUserByID(ctx, id)
}

// Delete soft-deletes a user. Their tokens stop resolving immediately.
func (s *UserService) Delete(ctx context.Context, actor *auth.AuthContext, id int64) (store.User, error) {
	if actor == nil {
		return store.User{}, auth.ErrUnauthenticated
	}
	if id == actor.UserID {
		v := NewValidationError()
		v.Add("id", "you cannot delete your own account")
		return store.User{}, v
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return store.User{}, err
	}
	if err := s.authorizeTarget(ctx, actor, u); err != nil {
		return store.User{}, err
	}
	if err := s.store.SoftDeleteUser(ctx, id, s.now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return store.User{}, err
	}
	return u, nil
}

// Purge removes a user row for good, soft-deleted or not, and its profile
// image. A missing image file is not an error.
func (s *UserService) Purge(ctx context.Context, actor *auth.AuthContext, id int64) (store.User, error) {
	if actor == nil {
		return store.User{}, auth.ErrUnauthenticated
	}
	if id == actor.UserID {
		v := NewValidationError()
		v.Add("id", "you cannot delete your own account")
		return store.User{}, v
	}
	u, err := s.store.GetUserByIDIncludingDeleted(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return store.User{}, err
	}
	if err := s.authorizeTarget(ctx, actor, u); err != nil {
		return store.User{}, err
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return store.User{}, err
	}
	s.removeImage(u)
	return u, nil
}

func (s *UserService) removeImage(u store.User) {
	if u.Image == "" || s.uploadsDir == "" {
		return
	}
	path, err := util.ResolveWithinBase(s.uploadsDir, u.Image)
	if err != nil {
		slog.Warn("refusing to remove profile image", "user_id", u.ID, "image", u.Image, "error", err)
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove profile image", "user_id", u.ID, "path", path, "error", err)
	}
}

// ChangePassword replaces the password of id after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, id int64, current, next string) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	ok, err := auth.CheckPassword(current, u.PasswordHash)
	if err != nil || !ok {
		v := NewValidationError()
		v.Add("currentPassword", "current password is incorrect")
		return v
	}
	v := NewValidationError()
	validatePassword(v, "newPassword", next)
	if err := v.OrNil(); err != nil {
		return err
	}
	return s.setPassword(ctx, id, next)
}

func (s *UserService) setPassword(ctx context.Context, id int64, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.store.UpdateUserPassword(ctx, id, hash, s.now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *UserService) checkRole(ctx context.Context, roleID *int64) (sql.NullInt64, error) {
	if roleID == nil {
		return sql.NullInt64{}, nil
	}
	if _, err := s.store.GetRole(ctx, *roleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			v := NewValidationError()
			v.Add("roleId", fmt.Sprintf("role %d does not exist", *roleID))
			return sql.NullInt64{}, v
		}
		return sql.NullInt64{}, err
	}
	return sql.NullInt64{Int64: *roleID, Valid: true}, nil
}

func validateName(v *ValidationError, first string) {
	if first == "" {
		v.Add("firstName", "first name is required")
	}
}

func validateEmail(v *ValidationError, email string) {
	if email == "" {
		v.Add("email", "email is required")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		v.Add("email", "invalid email address")
	}
}

func validatePassword(v *ValidationError, field, password string) {
	if len(password) < MinPasswordLength {
		v.Add(field, fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
}

func validateStatus(v *ValidationError, status string) {
	if status != auth.StatusActive && status != auth.StatusInactive {
		v.Add("status", "status must be active or inactive")
	}
}
