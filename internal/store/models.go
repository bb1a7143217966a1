// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

type User struct {
	ID           int64         `json:"id"`
	FirstName    string        `json:"firstName"`
	LastName     string        `json:"lastName"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	Phone        string        `json:"phone"`
	Status       string        `json:"status"`
	RoleID       sql.NullInt64 `json:"-"`
	Image        string        `json:"image"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	DeletedAt    sql.NullTime  `json:"-"`
}

type Role struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      string        `json:"status"`
	CreatedBy   sql.NullInt64 `json:"-"`
	UpdatedBy   sql.NullInt64 `json:"-"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	DeletedAt   sql.NullTime  `json:"-"`
}

type Permission struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type AuditLog struct {
	ID        int64         `json:"id"`
	UserID    sql.NullInt64 `json:"-"`
	Username  string        `json:"username"`
	Type      string        `json:"type"`
	Activity  string        `json:"activity"`
	IPAddress string        `json:"ipAddress"`
	UserAgent string        `json:"userAgent"`
	CreatedAt time.Time     `json:"createdAt"`
}

type Page struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Slug        string        `json:"slug"`
	Body        string        `json:"body"`
	Format      string        `json:"format"`
	BodyHTML    string        `json:"bodyHtml"`
	Status      string        `json:"status"`
	PublishAt   sql.NullTime  `json:"-"`
	PublishedAt sql.NullTime  `json:"-"`
	CreatedBy   sql.NullInt64 `json:"-"`
	UpdatedBy   sql.NullInt64 `json:"-"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

type Faq struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	SortOrder int64     `json:"sortOrder"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type EmailTemplate struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ConfigValue struct {
	Key         string        `json:"key"`
	Value       string        `json:"value"`
	Description string        `json:"description"`
	UpdatedBy   sql.NullInt64 `json:"-"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}
