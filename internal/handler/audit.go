// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/olegiv/ocms-backoffice/internal/auth"
	"github.com/olegiv/ocms-backoffice/internal/service"
	"github.com/olegiv/ocms-backoffice/internal/store"
)

// AuditHandler serves the audit trail.
type AuditHandler struct {
	reader   service.AuditLogReader
	recorder *service.AuditRecorder
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(reader service.AuditLogReader, recorder *service.AuditRecorder) *AuditHandler {
	return &AuditHandler{reader: reader, recorder: recorder}
}

// List handles GET /api/audit-logs?type=&userId=&search=&limit=&page=|offset=.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	q := r.URL.Query()
	f := store.AuditLogFilter{
		Type:   q.Get("type"),
		Search: strings.TrimSpace(q.Get("search")),
	}
	if v := q.Get("userId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			writeMessage(w, http.StatusBadRequest, "invalid userId")
			return
		}
		f.UserID = sql.NullInt64{Int64: id, Valid: true}
	}

	page, err := service.ListAuditLogs(r.Context(), h.reader, f, service.ParsePagination(q))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	rows := make([]AuditLogResponse, 0, len(page.Data))
	for _, l := range page.Data {
		rows = append(rows, AuditLogResponse{AuditLog: l, UserID: nullInt64Ptr(l.UserID)})
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditView, "Viewed audit logs")
	writeJSON(w, http.StatusOK, newListResponse(rows, page.Total, page.TotalPages, page.CurrentPage))
}
