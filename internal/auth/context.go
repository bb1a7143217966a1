// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"slices"
	"strings"
)

// AuthContext is the resolved identity of one request. It is built by the
// Resolver, passed explicitly to the gate and the handler, and discarded
// when the request ends.
type AuthContext struct {
	UserID      int64
	RoleName    string
	Email       string
	FirstName   string
	LastName    string
	Permissions map[string]struct{}
}

// NewAuthContext builds a context with the given permission names.
func NewAuthContext(userID int64, roleName, email string, permissions ...string) *AuthContext {
	set := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		set[p] = struct{}{}
	}
	return &AuthContext{
		UserID:      userID,
		RoleName:    roleName,
		Email:       email,
		Permissions: set,
	}
}

// HasPermission reports whether the permission set contains p.
// It does not apply the super-role bypass; use Authorize for decisions.
func (c *AuthContext) HasPermission(p Permission) bool {
	if c == nil {
		return false
	}
	_, ok := c.Permissions[string(p)]
	return ok
}

// IsSuperRole reports whether the role name matches SuperRole.
func (c *AuthContext) IsSuperRole() bool {
	return c != nil && strings.EqualFold(strings.TrimSpace(c.RoleName), SuperRole)
}

// Username is the display name captured into audit entries.
func (c *AuthContext) Username() string {
	if c == nil {
		return ""
	}
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		return c.Email
	}
	return name
}

// PermissionNames returns the permission set sorted by name.
func (c *AuthContext) PermissionNames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.Permissions))
	for p := range c.Permissions {
		names = append(names, p)
	}
	slices.Sort(names)
	return names
}
