// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/olegiv/ocms-backoffice/internal/auth"
	"github.com/olegiv/ocms-backoffice/internal/service"
	"github.com/olegiv/ocms-backoffice/internal/store"
)

// UsersHandler serves the user management endpoints.
type UsersHandler struct {
	users    *service.UserService
	recorder *service.AuditRecorder
}

// NewUsersHandler creates a UsersHandler.
func NewUsersHandler(users *service.UserService, recorder *service.AuditRecorder) *UsersHandler {
	return &UsersHandler{users: users, recorder: recorder}
}

// List handles GET /api/users?search=&status=&roleId=&page=&limit=.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	q := r.URL.Query()
	f := store.UserFilter{
		Search: strings.TrimSpace(q.Get("search")),
		Status: q.Get("status"),
	}
	if v := q.Get("roleId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			writeMessage(w, http.StatusBadRequest, "invalid roleId")
			return
		}
		f.RoleID = sql.NullInt64{Int64: id, Valid: true}
	}

	page, err := h.users.List(r.Context(), f, service.ParsePagination(q))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditView, "Viewed user list")
	writeJSON(w, http.StatusOK, newListResponse(toUserResponses(page.Data), page.Total, page.TotalPages, page.CurrentPage))
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditView, fmt.Sprintf("Viewed user %s (#%d)", u.Email, u.ID))
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// Create handles POST /api/users. Setting roleId needs the super-role.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	var in service.CreateUserInput
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := h.users.Create(r.Context(), ac, in)
	if err != nil {
		h.fail(w, r, ac, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditCreate, fmt.Sprintf("Created user %s (#%d)", u.Email, u.ID))
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

// Update handles PUT /api/users/{id}. Only the super-role may edit
// super-role accounts, here and in SetStatus and Delete.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.UpdateUserInput
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := h.users.Update(r.Context(), ac, id, in)
	if err != nil {
		h.fail(w, r, ac, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditUpdate, fmt.Sprintf("Updated user %s (#%d)", u.Email, u.ID))
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// SetStatus handles PUT /api/users/{id}/status.
func (h *UsersHandler) SetStatus(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.users.SetStatus(r.Context(), ac, id, req.Status)
	if err != nil {
		h.fail(w, r, ac, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditUpdate,
		fmt.Sprintf("Set status of user %s (#%d) to %s", u.Email, u.ID, u.Status))
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// AssignRole handles PUT /api/users/{id}/role with {"roleId": n|null}.
func (h *UsersHandler) AssignRole(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		RoleID *int64 `json:"roleId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.users.AssignRole(r.Context(), id, req.RoleID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	activity := fmt.Sprintf("Removed role from user %s (#%d)", u.Email, u.ID)
	if req.RoleID != nil {
		activity = fmt.Sprintf("Assigned role #%d to user %s (#%d)", *req.RoleID, u.Email, u.ID)
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditUpdate, activity)
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// Delete handles DELETE /api/users/{id} (soft delete).
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	u, err := h.users.Delete(r.Context(), ac, id)
	if err != nil {
		h.fail(w, r, ac, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditDelete, fmt.Sprintf("Deleted user %s (#%d)", u.Email, u.ID))
	writeMessage(w, http.StatusOK, "user deleted")
}

// Purge handles DELETE /api/users/{id}/purge. The row and profile image are
// removed for good.
func (h *UsersHandler) Purge(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	u, err := h.users.Purge(r.Context(), ac, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditDelete, fmt.Sprintf("Permanently deleted user %s (#%d)", u.Email, u.ID))
	writeMessage(w, http.StatusOK, "user permanently deleted")
}

// fail writes err. Super-role denials raised past the route gate are
// audited like the gate's own.
func (h *UsersHandler) fail(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext, err error) {
	if errors.Is(err, auth.ErrForbidden) {
		h.recorder.RecordFor(r.Context(), ac, r, service.AuditAuthentication,
			fmt.Sprintf("Access denied (insufficient permissions): %s %s requires %s", r.Method, r.URL.Path, auth.SuperRole))
	}
	writeServiceError(w, r, err)
}
