// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the JSON HTTP handlers of the back-office API.
package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-backoffice/internal/auth"
	"github.com/olegiv/ocms-backoffice/internal/middleware"
	"github.com/olegiv/ocms-backoffice/internal/service"
	"github.com/olegiv/ocms-backoffice/internal/store"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// ListResponse is the envelope of every paginated list.
type ListResponse[T any] struct {
	Data        []T   `json:"data"`
	Total       int64 `json:"total"`
	TotalPages  int64 `json:"totalPages"`
	CurrentPage int64 `json:"currentPage"`
}

func newListResponse[T any](data []T, total, totalPages, currentPage int64) ListResponse[T] {
	if data == nil {
		data = []T{}
	}
	return ListResponse[T]{Data: data, Total: total, TotalPages: totalPages, CurrentPage: currentPage}
}

// MessageResponse is a body carrying only a message.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	middleware.WriteJSON(w, status, v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageResponse{Message: msg})
}

// writeServiceError maps an operation error to a status and a stable
// message. Internal error text is logged, never returned.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, middleware.ErrorResponse{
			Message: "validation failed",
			Fields:  verr.Fields,
		})
	case errors.Is(err, service.ErrValidation):
		writeMessage(w, http.StatusBadRequest, "invalid request")
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, auth.ErrForbidden):
		middleware.WriteAuthError(w, err)
	case errors.Is(err, service.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		writeMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrConflict), errors.Is(err, store.ErrDuplicate):
		writeMessage(w, http.StatusConflict, conflictMessage(err))
	default:
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeMessage(w, http.StatusInternalServerError, middleware.MsgInternal)
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrSetupComplete):
		return "setup already completed"
	case errors.Is(err, store.ErrDuplicate):
		return "a record with this value already exists"
	default:
		return "the request conflicts with the current state"
	}
}

// decodeJSON reads a JSON body into v. Any syntax or type error is reported
// as a 400 and false is returned.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		msg := "invalid JSON body"
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			msg = "request body is required"
		case errors.As(err, &typeErr):
			msg = fmt.Sprintf("invalid value for %s: expected %s", jsonField(typeErr), typeErr.Type)
		}
		writeMessage(w, http.StatusBadRequest, msg)
		return false
	}
	return true
}

func jsonField(err *json.UnmarshalTypeError) string {
	if err.Field == "" {
		return "body"
	}
	return err.Field
}

// pathID parses a positive integer URL parameter. It writes a 400 and
// returns false when the value is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// UserResponse is a user as returned by the API.
type UserResponse struct {
	store.User
	RoleID *int64 `json:"roleId"`
}

func toUserResponse(u store.User) UserResponse {
	return UserResponse{User: u, RoleID: nullInt64Ptr(u.RoleID)}
}

func toUserResponses(users []store.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

// PageResponse is a CMS page as returned by the API.
type PageResponse struct {
	store.Page
	PublishAt   *time.Time `json:"publishAt"`
	PublishedAt *time.Time `json:"publishedAt"`
}

func toPageResponse(p store.Page) PageResponse {
	return PageResponse{Page: p, PublishAt: nullTimePtr(p.PublishAt), PublishedAt: nullTimePtr(p.PublishedAt)}
}

// AuditLogResponse is an audit entry as returned by the API.
type AuditLogResponse struct {
	store.AuditLog
	UserID *int64 `json:"userId"`
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func nullTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}
