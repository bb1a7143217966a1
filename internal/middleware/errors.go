// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/ocms-backoffice/internal/auth"
)

// Stable client-facing messages for authorization failures.
const (
	MsgUnauthenticated = "authentication required"
	MsgInactiveAccount = "account inactive"
	MsgForbidden       = "insufficient permissions"
	MsgInternal        = "internal server error"
	MsgRateLimited     = "too many requests, please slow down"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// WriteJSONError writes a {"message": ...} body with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Message: message})
}

// AuthErrorStatus maps a resolver or gate error to its HTTP status and message.
// Unknown errors are treated as denials with a generic 500.
func AuthErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInactiveAccount):
		return http.StatusForbidden, MsgInactiveAccount
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, MsgForbidden
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, MsgUnauthenticated
	default:
		return http.StatusInternalServerError, MsgInternal
	}
}

// WriteAuthError writes the response for an authorization failure.
func WriteAuthError(w http.ResponseWriter, err error) {
	status, msg := AuthErrorStatus(err)
	WriteJSONError(w, status, msg)
}
