// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"errors"
	"fmt"
)

// Authorization failures. Handlers map them to HTTP status codes with errors.Is.
var (
	// ErrUnauthenticated means no usable identity could be established.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the identity is known but not entitled to act.
	ErrForbidden = errors.New("forbidden")

	// ErrMisconfiguration means the process must not serve authenticated routes.
	ErrMisconfiguration = errors.New("misconfiguration")
)

// ErrInvalidToken is returned by the token codec for any verification failure.
var ErrInvalidToken = fmt.Errorf("%w: invalid token", ErrUnauthenticated)

// ErrInactiveAccount is returned when a user or login belongs to an inactive account.
var ErrInactiveAccount = fmt.Errorf("%w: account inactive", ErrForbidden)

// ErrInsufficientPermissions is returned by the gate when a capability is missing.
var ErrInsufficientPermissions = fmt.Errorf("%w: insufficient permissions", ErrForbidden)

// ErrSuperRoleRequired is returned by the coarse gate for non-administrators.
var ErrSuperRoleRequired = fmt.Errorf("%w: administrator role required", ErrForbidden)
