// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olegiv/ocms-backoffice/internal/auth"
	"github.com/olegiv/ocms-backoffice/internal/store"
)

const maxRoleNameLength = 64

// RoleInput is the editable part of a role.
type RoleInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// RoleService maintains roles and the role-permission graph.
type RoleService struct {
	store *store.Store
	now   func() time.Time
}

// NewRoleService creates a RoleService.
func NewRoleService(s *store.Store) *RoleService {
	return &RoleService{store: s, now: func() time.Time { return time.Now().UTC() }}
}

// ListPermissions returns every permission in ascending id order.
func (s *RoleService) ListPermissions(ctx context.Context) ([]store.Permission, error) {
	return s.store.ListPermissions(ctx)
}

func (s *RoleService) ListRoles(ctx context.Context) ([]store.Role, error) {
	return s.store.ListRoles(ctx)
}

func (s *RoleService) GetRole(ctx context.Context, id int64) (store.Role, error) {
	role, err := s.store.GetRole(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Role{}, fmt.Errorf("role %d: %w", id, ErrNotFound)
	}
	return role, err
}

// PermissionIDs returns the permission ids granted to a role.
func (s *RoleService) PermissionIDs(ctx context.Context, roleID int64) ([]int64, error) {
	if _, err := s.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	return s.store.ListPermissionIDsForRole(ctx, roleID)
}

// ReplacePermissions sets the permission set of a role to exactly ids. Every
// id must name a catalog permission; duplicates are collapsed. An empty ids
// revokes everything. The replacement is applied atomically.
func (s *RoleService) ReplacePermissions(ctx context.Context, roleID int64, ids []int64) error {
	if _, err := s.GetRole(ctx, roleID); err != nil {
		return err
	}

	perms, err := s.store.ListPermissions(ctx)
	if err != nil {
		return fmt.Errorf("listing permissions: %w", err)
	}
	known := make(map[int64]string, len(perms))
	for _, p := range perms {
		known[p.ID] = p.Name
	}

	seen := make(map[int64]bool, len(ids))
	unique := make([]int64, 0, len(ids))
	verr := NewValidationError()
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		name, ok := known[id]
		if !ok {
			verr.Add("permissionIds", fmt.Sprintf("permission %d does not exist", id))
			continue
		}
		if _, ok := auth.ParsePermission(name); !ok {
			verr.Add("permissionIds", fmt.Sprintf("permission %q is not assignable", name))
			continue
		}
		unique = append(unique, id)
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	err = s.store.ReplaceRolePermissions(ctx, roleID, unique)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("role %d: %w", roleID, ErrNotFound)
	}
	return err
}

// CreateRole creates a role. Names are unique among non-deleted roles,
// ignoring case.
func (s *RoleService) CreateRole(ctx context.Context, in RoleInput, actorID int64) (store.Role, error) {
	in, err := s.validateRole(ctx, in, 0)
	if err != nil {
		return store.Role{}, err
	}
	return s.store.CreateRole(ctx, store.CreateRoleParams{
		Name:        in.Name,
		Description: in.Description,
		Status:      in.Status,
		CreatedBy:   nullID(actorID),
		CreatedAt:   s.now(),
	})
}

// UpdateRole updates a role. The super-role cannot be renamed or deactivated.
func (s *RoleService) UpdateRole(ctx context.Context, id int64, in RoleInput, actorID int64) (store.Role, error) {
	current, err := s.GetRole(ctx, id)
	if err != nil {
		return store.Role{}, err
	}
	in, err = s.validateRole(ctx, in, id)
	if err != nil {
		return store.Role{}, err
	}
	if isSuperRoleName(current.Name) && (!isSuperRoleName(in.Name) || in.Status != auth.StatusActive) {
		v := NewValidationError()
		v.Add("name", "the "+auth.SuperRole+" role cannot be renamed or deactivated")
		return store.Role{}, v
	}

	err = s.store.UpdateRole(ctx, store.UpdateRoleParams{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Status:      in.Status,
		UpdatedBy:   nullID(actorID),
		UpdatedAt:   s.now(),
	})
	if errors.Is(err, sql.ErrNoRows) {
		return store.Role{}, fmt.Errorf("role %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return store.Role{}, err
	}
	return s.store.GetRole(ctx, id)
}

// DeleteRole soft-deletes a role. Users keep the role id but resolve with
// an empty permission set from then on.
func (s *RoleService) DeleteRole(ctx context.Context, id int64, actorID int64) (store.Role, error) {
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return store.Role{}, err
	}
	if isSuperRoleName(role.Name) {
		return store.Role{}, fmt.Errorf("the %s role cannot be deleted: %w", auth.SuperRole, ErrConflict)
	}
	if err := s.store.SoftDeleteRole(ctx, id, nullID(actorID), s.now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Role{}, fmt.Errorf("role %d: %w", id, ErrNotFound)
		}
		return store.Role{}, err
	}
	return role, nil
}

func (s *RoleService) validateRole(ctx context.Context, in RoleInput, selfID int64) (RoleInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Status == "" {
		in.Status = auth.StatusActive
	}

	v := NewValidationError()
	switch {
	case in.Name == "":
		v.Add("name", "name is required")
	case len(in.Name) > maxRoleNameLength:
		v.Add("name", fmt.Sprintf("name must be at most %d characters", maxRoleNameLength))
	}
	if in.Status != auth.StatusActive && in.Status != auth.StatusInactive {
		v.Add("status", "status must be active or inactive")
	}
	if err := v.OrNil(); err != nil {
		return in, err
	}

	existing, err := s.store.GetRoleByName(ctx, in.Name)
	switch {
	case err == nil && existing.ID != selfID:
		return in, fmt.Errorf("role %q already exists: %w", in.Name, ErrConflict)
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return in, fmt.Errorf("checking role name: %w", err)
	}
	return in, nil
}

func isSuperRoleName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), auth.SuperRole)
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}
