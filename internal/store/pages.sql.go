// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

const pageColumns = `id, title, slug, body, format, body_html, status, publish_at, published_at, created_by, updated_by, created_at, updated_at`

func scanPage(row interface{ Scan(...any) error }) (Page, error) {
	var p Page
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Slug,
		&p.Body,
		&p.Format,
		&p.BodyHTML,
		&p.Status,
		&p.PublishAt,
		&p.PublishedAt,
		&p.CreatedBy,
		&p.UpdatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

type CreatePageParams struct {
	Title       string
	Slug        string
	Body        string
	Format      string
	BodyHTML    string
	Status      string
	PublishAt   sql.NullTime
	PublishedAt sql.NullTime
	CreatedBy   sql.NullInt64
	CreatedAt   time.Time
}

const createPage = `INSERT INTO pages (title, slug, body, format, body_html, status, publish_at, published_at, created_by, updated_by, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreatePage(ctx context.Context, arg CreatePageParams) (Page, error) {
	id, err := insertID(ctx, q.db, createPage,
		arg.Title,
		arg.Slug,
		arg.Body,
		arg.Format,
		arg.BodyHTML,
		arg.Status,
		arg.PublishAt,
		arg.PublishedAt,
		arg.CreatedBy,
		arg.CreatedBy,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	if err != nil {
		return Page{}, err
	}
	return q.GetPage(ctx, id)
}

const getPage = `SELECT ` + pageColumns + ` FROM pages WHERE id = ?`

func (q *Queries) GetPage(ctx context.Context, id int64) (Page, error) {
	return scanPage(q.db.QueryRowContext(ctx, getPage, id))
}

const getPageBySlug = `SELECT ` + pageColumns + ` FROM pages WHERE slug = ?`

func (q *Queries) GetPageBySlug(ctx context.Context, slug string) (Page, error) {
	return scanPage(q.db.QueryRowContext(ctx, getPageBySlug, slug))
}

type UpdatePageParams struct {
	ID          int64
	Title       string
	Slug        string
	Body        string
	Format      string
	BodyHTML    string
	Status      string
	PublishAt   sql.NullTime
	PublishedAt sql.NullTime
	UpdatedBy   sql.NullInt64
	UpdatedAt   time.Time
}

const updatePage = `UPDATE pages SET title = ?, slug = ?, body = ?, format = ?, body_html = ?, status = ?,
publish_at = ?, published_at = ?, updated_by = ?, updated_at = ? WHERE id = ?`

func (q *Queries) UpdatePage(ctx context.Context, arg UpdatePageParams) error {
	return execAffectingOne(ctx, q.db, updatePage,
		arg.Title,
		arg.Slug,
		arg.Body,
		arg.Format,
		arg.BodyHTML,
		arg.Status,
		arg.PublishAt,
		arg.PublishedAt,
		arg.UpdatedBy,
		arg.UpdatedAt,
		arg.ID,
	)
}

const deletePage = `DELETE FROM pages WHERE id = ?`

func (q *Queries) DeletePage(ctx context.Context, id int64) error {
	return execAffectingOne(ctx, q.db, deletePage, id)
}

type PageFilter struct {
	Status string
	Search string
}

func (f PageFilter) where() (string, []any) {
	var clauses []string
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := containsPattern(s)
		clauses = append(clauses, "(title LIKE ? ESCAPE '!' OR slug LIKE ? ESCAPE '!')")
		args = append(args, like, like)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (q *Queries) CountPages(ctx context.Context, f PageFilter) (int64, error) {
	where, args := f.where()
	var n int64
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pages"+where, args...).Scan(&n)
	return n, err
}

func (q *Queries) ListPages(ctx context.Context, f PageFilter, limit, offset int64) ([]Page, error) {
	where, args := f.where()
	args = append(args, limit, offset)
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+pageColumns+" FROM pages"+where+" ORDER BY updated_at DESC, id DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return collectPages(rows)
}

const listDuePages = `SELECT ` + pageColumns + ` FROM pages
WHERE status = 'scheduled' AND publish_at IS NOT NULL AND publish_at <= ?
ORDER BY publish_at ASC`

// ListDuePages returns scheduled pages whose publish time has passed.
func (q *Queries) ListDuePages(ctx context.Context, now time.Time) ([]Page, error) {
	rows, err := q.db.QueryContext(ctx, listDuePages, now)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return collectPages(rows)
}

const publishScheduledPage = `UPDATE pages SET status = 'published', published_at = ?, updated_at = ?
WHERE id = ? AND status = 'scheduled'`

// PublishScheduledPage flips one scheduled page to published. Returns
// sql.ErrNoRows if the page is no longer scheduled.
func (q *Queries) PublishScheduledPage(ctx context.Context, id int64, now time.Time) error {
	return execAffectingOne(ctx, q.db, publishScheduledPage, now, now, id)
}

func collectPages(rows *sql.Rows) ([]Page, error) {
	items := []Page{}
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
