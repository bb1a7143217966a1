// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/olegiv/ocms-backoffice/internal/auth"
	"github.com/olegiv/ocms-backoffice/internal/service"
	"github.com/olegiv/ocms-backoffice/internal/store"
)

// RolesHandler serves roles, the permission catalog and role grants.
type RolesHandler struct {
	roles    *service.RoleService
	recorder *service.AuditRecorder
}

// NewRolesHandler creates a RolesHandler.
func NewRolesHandler(roles *service.RoleService, recorder *service.AuditRecorder) *RolesHandler {
	return &RolesHandler{roles: roles, recorder: recorder}
}

// ListPermissions handles GET /api/permissions.
func (h *RolesHandler) ListPermissions(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	perms, err := h.roles.ListPermissions(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if perms == nil {
		perms = []store.Permission{}
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditView, "Viewed permission list")
	writeJSON(w, http.StatusOK, perms)
}

// List handles GET /api/roles.
func (h *RolesHandler) List(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	roles, err := h.roles.ListRoles(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if roles == nil {
		roles = []store.Role{}
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditView, "Viewed role list")
	writeJSON(w, http.StatusOK, roles)
}

// Get handles GET /api/roles/{id}.
func (h *RolesHandler) Get(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	role, err := h.roles.GetRole(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditView, fmt.Sprintf("Viewed role %s (#%d)", role.Name, role.ID))
	writeJSON(w, http.StatusOK, role)
}

// Create handles POST /api/roles.
func (h *RolesHandler) Create(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	var in service.RoleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	role, err := h.roles.CreateRole(r.Context(), in, ac.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditCreate, fmt.Sprintf("Created role %s (#%d)", role.Name, role.ID))
	writeJSON(w, http.StatusCreated, role)
}

// Update handles PUT /api/roles/{id}.
func (h *RolesHandler) Update(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.RoleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	role, err := h.roles.UpdateRole(r.Context(), id, in, ac.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditUpdate, fmt.Sprintf("Updated role %s (#%d)", role.Name, role.ID))
	writeJSON(w, http.StatusOK, role)
}

// Delete handles DELETE /api/roles/{id}.
func (h *RolesHandler) Delete(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	role, err := h.roles.DeleteRole(r.Context(), id, ac.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditDelete, fmt.Sprintf("Deleted role %s (#%d)", role.Name, role.ID))
	writeMessage(w, http.StatusOK, "role deleted")
}

// GetPermissions handles GET /api/roles/{id}/permissions and returns the
// granted permission ids.
func (h *RolesHandler) GetPermissions(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.roles.GetRole(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	ids, err := h.roles.PermissionIDs(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditView, fmt.Sprintf("Viewed permissions of role #%d", id))
	writeJSON(w, http.StatusOK, ids)
}

// ReplacePermissions handles PUT /api/roles/{id}/permissions. The body must
// be a JSON array of permission ids; an empty array revokes everything.
func (h *RolesHandler) ReplacePermissions(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ids, ok := decodeIDArray(w, r)
	if !ok {
		return
	}
	if err := h.roles.ReplacePermissions(r.Context(), id, ids); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditUpdate,
		fmt.Sprintf("Replaced permissions of role #%d with %d permission(s)", id, len(ids)))
	writeMessage(w, http.StatusOK, "permissions updated")
}

// decodeIDArray reads a body that must be a JSON array of integers.
func decodeIDArray(w http.ResponseWriter, r *http.Request) ([]int64, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		writeMessage(w, http.StatusBadRequest, "body must be an array of permission ids")
		return nil, false
	}
	var ids []int64
	if err := json.Unmarshal(trimmed, &ids); err != nil {
		writeMessage(w, http.StatusBadRequest, "body must be an array of permission ids")
		return nil, false
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, true
}
