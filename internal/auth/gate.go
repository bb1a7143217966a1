// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

// SuperRole is the role name that bypasses granular permission checks.
// Matching is case-insensitive. The bypass depends on the name only, so a
// misconfigured role_permissions table cannot lock administrators out.
const SuperRole = "admin"

// Authorize decides whether ac may exercise perm. Checks run in order:
// missing context, super-role bypass, permission set membership.
func Authorize(ac *AuthContext, perm Permission) error {
	if ac == nil {
		return ErrUnauthenticated
	}
	if ac.IsSuperRole() {
		return nil
	}
	if ac.HasPermission(perm) {
		return nil
	}
	return ErrInsufficientPermissions
}

// RequireSuperRole admits administrators only, without consulting the
// permission set.
func RequireSuperRole(ac *AuthContext) error {
	if ac == nil {
		return ErrUnauthenticated
	}
	if ac.IsSuperRole() {
		return nil
	}
	return ErrSuperRoleRequired
}
