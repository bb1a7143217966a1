// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const emailTemplateColumns = `id, slug, name, subject, body, created_at, updated_at`

func scanEmailTemplate(row interface{ Scan(...any) error }) (EmailTemplate, error) {
	var t EmailTemplate
	err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.Subject, &t.Body, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

type CreateEmailTemplateParams struct {
	Slug      string
	Name      string
	Subject   string
	Body      string
	CreatedAt time.Time
}

const createEmailTemplate = `INSERT INTO email_templates (slug, name, subject, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateEmailTemplate(ctx context.Context, arg CreateEmailTemplateParams) (EmailTemplate, error) {
	id, err := insertID(ctx, q.db, createEmailTemplate, arg.Slug, arg.Name, arg.Subject, arg.Body, arg.CreatedAt, arg.CreatedAt)
	if err != nil {
		return EmailTemplate{}, err
	}
	return q.GetEmailTemplate(ctx, id)
}

const getEmailTemplate = `SELECT ` + emailTemplateColumns + ` FROM email_templates WHERE id = ?`

func (q *Queries) GetEmailTemplate(ctx context.Context, id int64) (EmailTemplate, error) {
	return scanEmailTemplate(q.db.QueryRowContext(ctx, getEmailTemplate, id))
}

const getEmailTemplateBySlug = `SELECT ` + emailTemplateColumns + ` FROM email_templates WHERE slug = ?`

func (q *Queries) GetEmailTemplateBySlug(ctx context.Context, slug string) (EmailTemplate, error) {
	return scanEmailTemplate(q.db.QueryRowContext(ctx, getEmailTemplateBySlug, slug))
}

type UpdateEmailTemplateParams struct {
	ID        int64
	Name      string
	Subject   string
	Body      string
	UpdatedAt time.Time
}

const updateEmailTemplate = `UPDATE email_templates SET name = ?, subject = ?, body = ?, updated_at = ? WHERE id = ?`

func (q *Queries) UpdateEmailTemplate(ctx context.Context, arg UpdateEmailTemplateParams) error {
	return execAffectingOne(ctx, q.db, updateEmailTemplate, arg.Name, arg.Subject, arg.Body, arg.UpdatedAt, arg.ID)
}

const deleteEmailTemplate = `DELETE FROM email_templates WHERE id = ?`

func (q *Queries) DeleteEmailTemplate(ctx context.Context, id int64) error {
	return execAffectingOne(ctx, q.db, deleteEmailTemplate, id)
}

const listEmailTemplates = `SELECT ` + emailTemplateColumns + ` FROM email_templates ORDER BY slug ASC`

func (q *Queries) ListEmailTemplates(ctx context.Context) ([]EmailTemplate, error) {
	rows, err := q.db.QueryContext(ctx, listEmailTemplates)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []EmailTemplate{}
	for rows.Next() {
		t, err := scanEmailTemplate(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
