// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// User status values.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Identity is a user row joined with its role. RoleID is invalid when the
// user has no role or the role is inactive or deleted.
type Identity struct {
	UserID    int64
	FirstName string
	LastName  string
	Email     string
	Status    string
	RoleID    sql.NullInt64
	RoleName  string
}

// IdentitySource is the storage the resolver reads from.
// LookupIdentity returns sql.ErrNoRows for missing or soft-deleted users.
type IdentitySource interface {
	LookupIdentity(ctx context.Context, userID int64) (Identity, error)
	ListPermissionNamesForRole(ctx context.Context, roleID int64) ([]string, error)
}

// Resolver turns request credentials into an AuthContext.
type Resolver struct {
	codec      *TokenCodec
	source     IdentitySource
	cookieName string
}

// NewResolver creates a resolver reading the token from cookieName first
// and the Authorization header second.
func NewResolver(codec *TokenCodec, source IdentitySource, cookieName string) *Resolver {
	if cookieName == "" {
		cookieName = "token"
	}
	return &Resolver{codec: codec, source: source, cookieName: cookieName}
}

// CookieName returns the session cookie name.
func (r *Resolver) CookieName() string {
	return r.cookieName
}

// Resolve authenticates the request. Errors wrap ErrUnauthenticated or
// ErrForbidden; any other error is a storage failure and must also be
// treated as a denial.
func (r *Resolver) Resolve(ctx context.Context, req *http.Request) (*AuthContext, error) {
	token := r.extractToken(req)
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := r.codec.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ident, err := r.source.LookupIdentity(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %d not found", ErrUnauthenticated, claims.UserID)
		}
		return nil, fmt.Errorf("resolving user %d: %w", claims.UserID, err)
	}
	if ident.Status != StatusActive {
		return nil, ErrInactiveAccount
	}

	var perms []string
	if ident.RoleID.Valid {
		perms, err = r.source.ListPermissionNamesForRole(ctx, ident.RoleID.Int64)
		if err != nil {
			return nil, fmt.Errorf("resolving permissions for role %d: %w", ident.RoleID.Int64, err)
		}
	}

	ac := NewAuthContext(ident.UserID, "", ident.Email, perms...)
	if ident.RoleID.Valid {
		ac.RoleName = ident.RoleName
	}
	ac.FirstName = ident.FirstName
	ac.LastName = ident.LastName
	return ac, nil
}

// extractToken prefers the session cookie over the bearer header.
func (r *Resolver) extractToken(req *http.Request) string {
	if c, err := req.Cookie(r.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return BearerToken(req)
}

// BearerToken returns the token from an "Authorization: Bearer" header.
func BearerToken(req *http.Request) string {
	header := req.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
