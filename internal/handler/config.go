// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-backoffice/internal/auth"
	"github.com/olegiv/ocms-backoffice/internal/service"
	"github.com/olegiv/ocms-backoffice/internal/store"
)

// ConfigHandler serves the key/value site configuration.
type ConfigHandler struct {
	config   *service.ConfigService
	recorder *service.AuditRecorder
}

func NewConfigHandler(config *service.ConfigService, recorder *service.AuditRecorder) *ConfigHandler {
	return &ConfigHandler{config: config, recorder: recorder}
}

// List handles GET /api/config.
func (h *ConfigHandler) List(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	values, err := h.config.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if values == nil {
		values = []store.ConfigValue{}
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditView, "Viewed configuration")
	writeJSON(w, http.StatusOK, values)
}

// Get handles GET /api/config/{key}.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	key := chi.URLParam(r, "key")
	v, err := h.config.Get(r.Context(), key)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditView, "Viewed configuration value "+key)
	writeJSON(w, http.StatusOK, v)
}

// Set handles PUT /api/config/{key}.
func (h *ConfigHandler) Set(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	key := chi.URLParam(r, "key")
	var in service.ConfigValueInput
	if !decodeJSON(w, r, &in) {
		return
	}
	v, err := h.config.Set(r.Context(), key, in, ac.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditUpdate, "Updated configuration value "+key)
	writeJSON(w, http.StatusOK, v)
}
