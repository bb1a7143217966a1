// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/olegiv/ocms-backoffice/internal/auth"
	"github.com/olegiv/ocms-backoffice/internal/store"
	"github.com/olegiv/ocms-backoffice/internal/util"
)

// Page statuses.
const (
	PageDraft     = "draft"
	PagePublished = "published"
	PageScheduled = "scheduled"
)

// Page body formats.
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

const maxSlugAttempts = 50

var (
	htmlSanitizer = bluemonday.UGCPolicy()
	markdown      = goldmark.New(goldmark.WithExtensions(extension.GFM))
)

// RenderBody converts a page body to sanitized HTML.
func RenderBody(body, format string) (string, error) {
	if format == FormatMarkdown {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(body), &buf); err != nil {
			return "", fmt.Errorf("rendering markdown: %w", err)
		}
		body = buf.String()
	}
	return htmlSanitizer.Sanitize(body), nil
}

// SanitizeHTML strips unsafe markup from user supplied HTML.
func SanitizeHTML(s string) string {
	return htmlSanitizer.Sanitize(s)
}

// PageInput is the editable part of a CMS page.
type PageInput struct {
	Title     string     `json:"title"`
	Slug      string     `json:"slug"`
	Body      string     `json:"body"`
	Format    string     `json:"format"`
	Status    string     `json:"status"`
	PublishAt *time.Time `json:"publishAt"`
}

// PageList is one page of CMS pages.
type PageList struct {
	Data        []store.Page
	Total       int64
	TotalPages  int64
	CurrentPage int64
}

// ContentService manages CMS pages, FAQs and email templates.
type ContentService struct {
	store *store.Store
	now   func() time.Time
}

// NewContentService creates a ContentService.
func NewContentService(s *store.Store) *ContentService {
	return &ContentService{store: s, now: func() time.Time { return time.Now().UTC() }}
}

func (s *ContentService) ListPages(ctx context.Context, f store.PageFilter, p Pagination) (PageList, error) {
	total, err := s.store.CountPages(ctx, f)
	if err != nil {
		return PageList{}, fmt.Errorf("counting pages: %w", err)
	}
	pages, err := s.store.ListPages(ctx, f, p.Limit, p.Offset)
	if err != nil {
		return PageList{}, fmt.Errorf("listing pages: %w", err)
	}
	return PageList{Data: pages, Total: total, TotalPages: p.TotalPages(total), CurrentPage: p.Page()}, nil
}

func (s *ContentService) GetPage(ctx context.Context, id int64) (store.Page, error) {
	pg, err := s.store.GetPage(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Page{}, fmt.Errorf("page %d: %w", id, ErrNotFound)
	}
	return pg, err
}

func (s *ContentService) CreatePage(ctx context.Context, in PageInput, actorID int64) (store.Page, error) {
	now := s.now()
	in, publishAt, err := s.validatePage(in, now)
	if err != nil {
		return store.Page{}, err
	}
	slug, err := s.resolveSlug(ctx, in, 0)
	if err != nil {
		return store.Page{}, err
	}
	bodyHTML, err := RenderBody(in.Body, in.Format)
	if err != nil {
		return store.Page{}, err
	}

	var publishedAt sql.NullTime
	if in.Status == PagePublished {
		publishedAt = sql.NullTime{Time: now, Valid: true}
	}
	pg, err := s.store.CreatePage(ctx, store.CreatePageParams{
		Title:       in.Title,
		Slug:        slug,
		Body:        in.Body,
		Format:      in.Format,
		BodyHTML:    bodyHTML,
		Status:      in.Status,
		PublishAt:   publishAt,
		PublishedAt: publishedAt,
		CreatedBy:   nullID(actorID),
		CreatedAt:   now,
	})
	if store.IsDuplicate(err) {
		return store.Page{}, fmt.Errorf("slug %q is taken: %w", slug, ErrConflict)
	}
	return pg, err
}

func (s *ContentService) UpdatePage(ctx context.Context, id int64, in PageInput, actorID int64) (store.Page, error) {
	current, err := s.GetPage(ctx, id)
	if err != nil {
		return store.Page{}, err
	}
	now := s.now()
	in, publishAt, err := s.validatePage(in, now)
	if err != nil {
		return store.Page{}, err
	}
	slug, err := s.resolveSlug(ctx, in, id)
	if err != nil {
		return store.Page{}, err
	}
	bodyHTML, err := RenderBody(in.Body, in.Format)
	if err != nil {
		return store.Page{}, err
	}

	publishedAt := current.PublishedAt
	switch {
	case in.Status == PagePublished && !publishedAt.Valid:
		publishedAt = sql.NullTime{Time: now, Valid: true}
	case in.Status != PagePublished:
		publishedAt = sql.NullTime{}
	}

	err = s.store.UpdatePage(ctx, store.UpdatePageParams{
		ID:          id,
		Title:       in.Title,
		Slug:        slug,
		Body:        in.Body,
		Format:      in.Format,
		BodyHTML:    bodyHTML,
		Status:      in.Status,
		PublishAt:   publishAt,
		PublishedAt: publishedAt,
		UpdatedBy:   nullID(actorID),
		UpdatedAt:   now,
	})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return store.Page{}, fmt.Errorf("page %d: %w", id, ErrNotFound)
	case store.IsDuplicate(err):
		return store.Page{}, fmt.Errorf("slug %q is taken: %w", slug, ErrConflict)
	case err != nil:
		return store.Page{}, err
	}
	return s.store.GetPage(ctx, id)
}

func (s *ContentService) DeletePage(ctx context.Context, id int64) (store.Page, error) {
	pg, err := s.GetPage(ctx, id)
	if err != nil {
		return store.Page{}, err
	}
	if err := s.store.DeletePage(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Page{}, fmt.Errorf("page %d: %w", id, ErrNotFound)
		}
		return store.Page{}, err
	}
	return pg, nil
}

// PublishDue publishes every scheduled page whose time has come and
// returns the pages it flipped. A page changed concurrently is skipped.
func (s *ContentService) PublishDue(ctx context.Context) ([]store.Page, error) {
	now := s.now()
	due, err := s.store.ListDuePages(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("listing due pages: %w", err)
	}
	published := make([]store.Page, 0, len(due))
	for _, pg := range due {
		err := s.store.PublishScheduledPage(ctx, pg.ID, now)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return published, fmt.Errorf("publishing page %d: %w", pg.ID, err)
		}
		pg.Status = PagePublished
		pg.PublishedAt = sql.NullTime{Time: now, Valid: true}
		published = append(published, pg)
	}
	return published, nil
}

func (s *ContentService) validatePage(in PageInput, now time.Time) (PageInput, sql.NullTime, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Format == "" {
		in.Format = FormatMarkdown
	}
	if in.Status == "" {
		in.Status = PageDraft
	}

	v := NewValidationError()
	if in.Title == "" {
		v.Add("title", "title is required")
	}
	if in.Slug != "" && !util.IsValidSlug(in.Slug) {
		v.Add("slug", "slug may only contain lower-case letters, digits and hyphens")
	}
	if in.Format != FormatMarkdown && in.Format != FormatHTML {
		v.Add("format", "format must be markdown or html")
	}

	var publishAt sql.NullTime
	switch in.Status {
	case PageDraft, PagePublished:
	case PageScheduled:
		if in.PublishAt == nil {
			v.Add("publishAt", "publishAt is required for scheduled pages")
		} else if !in.PublishAt.After(now) {
			v.Add("publishAt", "publishAt must be in the future")
		} else {
			publishAt = sql.NullTime{Time: in.PublishAt.UTC(), Valid: true}
		}
	default:
		v.Add("status", "status must be draft, published or scheduled")
	}
	return in, publishAt, v.OrNil()
}

// resolveSlug returns the explicit slug, which must be free, or derives
// one from the title and appends a counter until it is free.
func (s *ContentService) resolveSlug(ctx context.Context, in PageInput, selfID int64) (string, error) {
	taken := func(slug string) (bool, error) {
		pg, err := s.store.GetPageBySlug(ctx, slug)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return pg.ID != selfID, nil
	}

	if in.Slug != "" {
		t, err := taken(in.Slug)
		if err != nil {
			return "", err
		}
		if t {
			return "", fmt.Errorf("slug %q is taken: %w", in.Slug, ErrConflict)
		}
		return in.Slug, nil
	}

	base := util.Slugify(in.Title)
	if base == "" {
		v := NewValidationError()
		v.Add("slug", "slug cannot be derived from the title")
		return "", v
	}
	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := util.SlugWithSuffix(base, n)
		t, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !t {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free slug for %q: %w", base, ErrConflict)
}

// FaqInput is the editable part of an FAQ.
type FaqInput struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	SortOrder int64  `json:"sortOrder"`
	Status    string `json:"status"`
}

// FaqList is one page of FAQs.
type FaqList struct {
	Data        []store.Faq
	Total       int64
	TotalPages  int64
	CurrentPage int64
}

func (s *ContentService) ListFaqs(ctx context.Context, p Pagination) (FaqList, error) {
	total, err := s.store.CountFaqs(ctx)
	if err != nil {
		return FaqList{}, fmt.Errorf("counting faqs: %w", err)
	}
	faqs, err := s.store.ListFaqs(ctx, p.Limit, p.Offset)
	if err != nil {
		return FaqList{}, fmt.Errorf("listing faqs: %w", err)
	}
	return FaqList{Data: faqs, Total: total, TotalPages: p.TotalPages(total), CurrentPage: p.Page()}, nil
}

func (s *ContentService) GetFaq(ctx context.Context, id int64) (store.Faq, error) {
	f, err := s.store.GetFaq(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Faq{}, fmt.Errorf("faq %d: %w", id, ErrNotFound)
	}
	return f, err
}

func (s *ContentService) CreateFaq(ctx context.Context, in FaqInput) (store.Faq, error) {
	in, err := validateFaq(in)
	if err != nil {
		return store.Faq{}, err
	}
	return s.store.CreateFaq(ctx, store.CreateFaqParams{
		Question:  in.Question,
		Answer:    in.Answer,
		SortOrder: in.SortOrder,
		Status:    in.Status,
		CreatedAt: s.now(),
	})
}

func (s *ContentService) UpdateFaq(ctx context.Context, id int64, in FaqInput) (store.Faq, error) {
	in, err := validateFaq(in)
	if err != nil {
		return store.Faq{}, err
	}
	err = s.store.UpdateFaq(ctx, store.UpdateFaqParams{
		ID:        id,
		Question:  in.Question,
		Answer:    in.Answer,
		SortOrder: in.SortOrder,
		Status:    in.Status,
		UpdatedAt: s.now(),
	})
	if errors.Is(err, sql.ErrNoRows) {
		return store.Faq{}, fmt.Errorf("faq %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return store.Faq{}, err
	}
	return s.store.GetFaq(ctx, id)
}

func (s *ContentService) DeleteFaq(ctx context.Context, id int64) (store.Faq, error) {
	f, err := s.GetFaq(ctx, id)
	if err != nil {
		return store.Faq{}, err
	}
	if err := s.store.DeleteFaq(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Faq{}, fmt.Errorf("faq %d: %w", id, ErrNotFound)
		}
		return store.Faq{}, err
	}
	return f, nil
}

func validateFaq(in FaqInput) (FaqInput, error) {
	in.Question = strings.TrimSpace(in.Question)
	in.Answer = SanitizeHTML(strings.TrimSpace(in.Answer))
	if in.Status == "" {
		in.Status = auth.StatusActive
	}
	v := NewValidationError()
	if in.Question == "" {
		v.Add("question", "question is required")
	}
	if in.Answer == "" {
		v.Add("answer", "answer is required")
	}
	if in.SortOrder < 0 {
		v.Add("sortOrder", "sortOrder must not be negative")
	}
	validateStatus(v, in.Status)
	return in, v.OrNil()
}

// EmailTemplateInput is the editable part of an email template.
type EmailTemplateInput struct {
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (s *ContentService) ListEmailTemplates(ctx context.Context) ([]store.EmailTemplate, error) {
	return s.store.ListEmailTemplates(ctx)
}

func (s *ContentService) GetEmailTemplate(ctx context.Context, id int64) (store.EmailTemplate, error) {
	t, err := s.store.GetEmailTemplate(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.EmailTemplate{}, fmt.Errorf("email template %d: %w", id, ErrNotFound)
	}
	return t, err
}

func (s *ContentService) CreateEmailTemplate(ctx context.Context, in EmailTemplateInput) (store.EmailTemplate, error) {
	in, err := validateEmailTemplate(in, true)
	if err != nil {
		return store.EmailTemplate{}, err
	}
	t, err := s.store.CreateEmailTemplate(ctx, store.CreateEmailTemplateParams{
		Slug:      in.Slug,
		Name:      in.Name,
		Subject:   in.Subject,
		Body:      in.Body,
		CreatedAt: s.now(),
	})
	if store.IsDuplicate(err) {
		return store.EmailTemplate{}, fmt.Errorf("template %q exists: %w", in.Slug, ErrConflict)
	}
	return t, err
}

// UpdateEmailTemplate edits name, subject and body. The slug is fixed.
func (s *ContentService) UpdateEmailTemplate(ctx context.Context, id int64, in EmailTemplateInput) (store.EmailTemplate, error) {
	in, err := validateEmailTemplate(in, false)
	if err != nil {
		return store.EmailTemplate{}, err
	}
	err = s.store.UpdateEmailTemplate(ctx, store.UpdateEmailTemplateParams{
		ID:        id,
		Name:      in.Name,
		Subject:   in.Subject,
		Body:      in.Body,
		UpdatedAt: s.now(),
	})
	if errors.Is(err, sql.ErrNoRows) {
		return store.EmailTemplate{}, fmt.Errorf("email template %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return store.EmailTemplate{}, err
	}
	return s.store.GetEmailTemplate(ctx, id)
}

func (s *ContentService) DeleteEmailTemplate(ctx context.Context, id int64) (store.EmailTemplate, error) {
	t, err := s.GetEmailTemplate(ctx, id)
	if err != nil {
		return store.EmailTemplate{}, err
	}
	if err := s.store.DeleteEmailTemplate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.EmailTemplate{}, fmt.Errorf("email template %d: %w", id, ErrNotFound)
		}
		return store.EmailTemplate{}, err
	}
	return t, nil
}

func validateEmailTemplate(in EmailTemplateInput, withSlug bool) (EmailTemplateInput, error) {
	in.Slug = strings.TrimSpace(in.Slug)
	in.Name = strings.TrimSpace(in.Name)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Body = SanitizeHTML(in.Body)

	v := NewValidationError()
	if withSlug && !util.IsValidSlug(in.Slug) {
		v.Add("slug", "slug may only contain lower-case letters, digits and hyphens")
	}
	if in.Name == "" {
		v.Add("name", "name is required")
	}
	if in.Subject == "" {
		v.Add("subject", "subject is required")
	}
	if strings.TrimSpace(in.Body) == "" {
		v.Add("body", "body is required")
	}
	return in, v.OrNil()
}
