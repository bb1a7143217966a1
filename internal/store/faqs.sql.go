// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const faqColumns = `id, question, answer, sort_order, status, created_at, updated_at`

func scanFaq(row interface{ Scan(...any) error }) (Faq, error) {
	var f Faq
	err := row.Scan(&f.ID, &f.Question, &f.Answer, &f.SortOrder, &f.Status, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

type CreateFaqParams struct {
	Question  string
	Answer    string
	SortOrder int64
	Status    string
	CreatedAt time.Time
}

const createFaq = `INSERT INTO faqs (question, answer, sort_order, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateFaq(ctx context.Context, arg CreateFaqParams) (Faq, error) {
	id, err := insertID(ctx, q.db, createFaq, arg.Question, arg.Answer, arg.SortOrder, arg.Status, arg.CreatedAt, arg.CreatedAt)
	if err != nil {
		return Faq{}, err
	}
	return q.GetFaq(ctx, id)
}

const getFaq = `SELECT ` + faqColumns + ` FROM faqs WHERE id = ?`

func (q *Queries) GetFaq(ctx context.Context, id int64) (Faq, error) {
	return scanFaq(q.db.QueryRowContext(ctx, getFaq, id))
}

type UpdateFaqParams struct {
	ID        int64
	Question  string
	Answer    string
	SortOrder int64
	Status    string
	UpdatedAt time.Time
}

const updateFaq = `UPDATE faqs SET question = ?, answer = ?, sort_order = ?, status = ?, updated_at = ? WHERE id = ?`

func (q *Queries) UpdateFaq(ctx context.Context, arg UpdateFaqParams) error {
	return execAffectingOne(ctx, q.db, updateFaq, arg.Question, arg.Answer, arg.SortOrder, arg.Status, arg.UpdatedAt, arg.ID)
}

const deleteFaq = `DELETE FROM faqs WHERE id = ?`

func (q *Queries) DeleteFaq(ctx context.Context, id int64) error {
	return execAffectingOne(ctx, q.db, deleteFaq, id)
}

const countFaqs = `SELECT COUNT(*) FROM faqs`

func (q *Queries) CountFaqs(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countFaqs).Scan(&n)
	return n, err
}

const listFaqs = `SELECT ` + faqColumns + ` FROM faqs ORDER BY sort_order ASC, id ASC LIMIT ? OFFSET ?`

func (q *Queries) ListFaqs(ctx context.Context, limit, offset int64) ([]Faq, error) {
	rows, err := q.db.QueryContext(ctx, listFaqs, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []Faq{}
	for rows.Next() {
		f, err := scanFaq(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}
