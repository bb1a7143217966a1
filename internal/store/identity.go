// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"

	"github.com/olegiv/ocms-backoffice/internal/auth"
)

var _ auth.IdentitySource = (*Queries)(nil)

// LookupIdentity loads the user and its effective role for the resolver.
// Missing and soft-deleted users yield sql.ErrNoRows.
func (q *Queries) LookupIdentity(ctx context.Context, userID int64) (auth.Identity, error) {
	row, err := q.GetUserWithRole(ctx, userID)
	if err != nil {
		return auth.Identity{}, err
	}
	return auth.Identity{
		UserID:    row.ID,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Email:     row.Email,
		Status:    row.Status,
		RoleID:    row.ActiveRoleID,
		RoleName:  row.RoleName.String,
	}, nil
}
