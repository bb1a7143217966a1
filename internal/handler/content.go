// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/olegiv/ocms-backoffice/internal/auth"
	"github.com/olegiv/ocms-backoffice/internal/service"
	"github.com/olegiv/ocms-backoffice/internal/store"
)

// ContentHandler serves CMS pages, FAQs and email templates.
type ContentHandler struct {
	content  *service.ContentService
	recorder *service.AuditRecorder
}

// NewContentHandler creates a ContentHandler.
func NewContentHandler(content *service.ContentService, recorder *service.AuditRecorder) *ContentHandler {
	return &ContentHandler{content: content, recorder: recorder}
}

// ListPages handles GET /api/pages?status=&search=&page=&limit=.
func (h *ContentHandler) ListPages(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	q := r.URL.Query()
	f := store.PageFilter{Status: q.Get("status"), Search: strings.TrimSpace(q.Get("search"))}
	list, err := h.content.ListPages(r.Context(), f, service.ParsePagination(q))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rows := make([]PageResponse, 0, len(list.Data))
	for _, p := range list.Data {
		rows = append(rows, toPageResponse(p))
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditView, "Viewed CMS page list")
	writeJSON(w, http.StatusOK, newListResponse(rows, list.Total, list.TotalPages, list.CurrentPage))
}

// GetPage handles GET /api/pages/{id}.
func (h *ContentHandler) GetPage(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.content.GetPage(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditView, fmt.Sprintf("Viewed CMS page %q (#%d)", p.Title, p.ID))
	writeJSON(w, http.StatusOK, toPageResponse(p))
}

// CreatePage handles POST /api/pages.
func (h *ContentHandler) CreatePage(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	var in service.PageInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.content.CreatePage(r.Context(), in, ac.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditCreate, fmt.Sprintf("Created CMS page %q (#%d)", p.Title, p.ID))
	writeJSON(w, http.StatusCreated, toPageResponse(p))
}

// UpdatePage handles PUT /api/pages/{id}.
func (h *ContentHandler) UpdatePage(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.PageInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.content.UpdatePage(r.Context(), id, in, ac.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditUpdate, fmt.Sprintf("Updated CMS page %q (#%d)", p.Title, p.ID))
	writeJSON(w, http.StatusOK, toPageResponse(p))
}

// DeletePage handles DELETE /api/pages/{id}.
func (h *ContentHandler) DeletePage(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.content.DeletePage(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditDelete, fmt.Sprintf("Deleted CMS page %q (#%d)", p.Title, p.ID))
	writeMessage(w, http.StatusOK, "page deleted")
}

// ListFaqs handles GET /api/faqs.
func (h *ContentHandler) ListFaqs(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	list, err := h.content.ListFaqs(r.Context(), service.ParsePagination(r.URL.Query()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditView, "Viewed FAQ list")
	writeJSON(w, http.StatusOK, newListResponse(list.Data, list.Total, list.TotalPages, list.CurrentPage))
}

// GetFaq handles GET /api/faqs/{id}.
func (h *ContentHandler) GetFaq(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	f, err := h.content.GetFaq(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditView, fmt.Sprintf("Viewed FAQ #%d", f.ID))
	writeJSON(w, http.StatusOK, f)
}

// CreateFaq handles POST /api/faqs.
func (h *ContentHandler) CreateFaq(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	var in service.FaqInput
	if !decodeJSON(w, r, &in) {
		return
	}
	f, err := h.content.CreateFaq(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditCreate, fmt.Sprintf("Created FAQ #%d", f.ID))
	writeJSON(w, http.StatusCreated, f)
}

// UpdateFaq handles PUT /api/faqs/{id}.
func (h *ContentHandler) UpdateFaq(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.FaqInput
	if !decodeJSON(w, r, &in) {
		return
	}
	f, err := h.content.UpdateFaq(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditUpdate, fmt.Sprintf("Updated FAQ #%d", f.ID))
	writeJSON(w, http.StatusOK, f)
}

// DeleteFaq handles DELETE /api/faqs/{id}.
func (h *ContentHandler) DeleteFaq(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	f, err := h.content.DeleteFaq(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditDelete, fmt.Sprintf("Deleted FAQ #%d", f.ID))
	writeMessage(w, http.StatusOK, "faq deleted")
}

// ListEmailTemplates handles GET /api/email-templates.
func (h *ContentHandler) ListEmailTemplates(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	tpls, err := h.content.ListEmailTemplates(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if tpls == nil {
		tpls = []store.EmailTemplate{}
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditView, "Viewed email template list")
	writeJSON(w, http.StatusOK, tpls)
}

// GetEmailTemplate handles GET /api/email-templates/{id}.
func (h *ContentHandler) GetEmailTemplate(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.content.GetEmailTemplate(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditView, fmt.Sprintf("Viewed email template %s (#%d)", t.Slug, t.ID))
	writeJSON(w, http.StatusOK, t)
}

// CreateEmailTemplate handles POST /api/email-templates.
func (h *ContentHandler) CreateEmailTemplate(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	var in service.EmailTemplateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	t, err := h.content.CreateEmailTemplate(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditCreate, fmt.Sprintf("Created email template %s (#%d)", t.Slug, t.ID))
	writeJSON(w, http.StatusCreated, t)
}

// UpdateEmailTemplate handles PUT /api/email-templates/{id}. The slug is fixed.
func (h *ContentHandler) UpdateEmailTemplate(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.EmailTemplateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	t, err := h.content.UpdateEmailTemplate(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditUpdate, fmt.Sprintf("Updated email template %s (#%d)", t.Slug, t.ID))
	writeJSON(w, http.StatusOK, t)
}

// DeleteEmailTemplate handles DELETE /api/email-templates/{id}.
func (h *ContentHandler) DeleteEmailTemplate(w http.ResponseWriter, r *http.Request, ac *auth.AuthContext) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.content.DeleteEmailTemplate(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recorder.RecordFor(r.Context(), ac, r, service.AuditDelete, fmt.Sprintf("Deleted email template %s (#%d)", t.Slug, t.ID))
	writeMessage(w, http.StatusOK, "email template deleted")
}
