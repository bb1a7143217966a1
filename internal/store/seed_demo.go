// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/ocms-backoffice/internal/auth"
)

// Demo mode credentials
const (
	DemoEditorEmail    = "editor@example.com"
	DemoEditorPassword = "demo1234demo"

	DemoViewerEmail    = "viewer@example.com"
	DemoViewerPassword = "demo1234demo"
)

type demoRole struct {
	name        string
	description string
	permissions []auth.Permission
}

func demoRoles() []demoRole {
	return []demoRole{
		{
			name:        "editor",
			description: "Maintains CMS pages and FAQs",
			permissions: []auth.Permission{
				auth.PermCMSList, auth.PermCMSView, auth.PermCMSCreate, auth.PermCMSEdit,
				auth.PermFAQList, auth.PermFAQView, auth.PermFAQCreate, auth.PermFAQEdit,
			},
		},
		{
			name:        "viewer",
			description: "Read-only access to content",
			permissions: []auth.Permission{
				auth.PermCMSList, auth.PermCMSView, auth.PermFAQList, auth.PermFAQView,
			},
		},
	}
}

// SeedDemo creates demo roles, users and content. It runs after Seed and
// skips everything that already exists.
func SeedDemo(ctx context.Context, s *Store) error {
	slog.Info("seeding demo content")

	roleIDs, err := seedDemoRoles(ctx, s)
	if err != nil {
		return fmt.Errorf("seeding demo roles: %w", err)
	}

	if err := seedDemoUser(ctx, s.Queries, DemoEditorEmail, DemoEditorPassword, "Demo", "Editor", roleIDs["editor"]); err != nil {
		return fmt.Errorf("seeding demo editor: %w", err)
	}
	if err := seedDemoUser(ctx, s.Queries, DemoViewerEmail, DemoViewerPassword, "Demo", "Viewer", roleIDs["viewer"]); err != nil {
		return fmt.Errorf("seeding demo viewer: %w", err)
	}

	if err := seedDemoContent(ctx, s.Queries); err != nil {
		return fmt.Errorf("seeding demo content: %w", err)
	}
	return nil
}

func seedDemoRoles(ctx context.Context, s *Store) (map[string]int64, error) {
	perms, err := s.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	idByName := make(map[string]int64, len(perms))
	for _, p := range perms {
		idByName[p.Name] = p.ID
	}

	ids := make(map[string]int64)
	for _, dr := range demoRoles() {
		role, err := s.GetRoleByName(ctx, dr.name)
		if err == nil {
			ids[dr.name] = role.ID
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		role, err = s.CreateRole(ctx, CreateRoleParams{
			Name:        dr.name,
			Description: dr.description,
			Status:      auth.StatusActive,
			CreatedAt:   time.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}

		permIDs := make([]int64, 0, len(dr.permissions))
		for _, p := range dr.permissions {
			if id, ok := idByName[string(p)]; ok {
				permIDs = append(permIDs, id)
			}
		}
		if err := s.ReplaceRolePermissions(ctx, role.ID, permIDs); err != nil {
			return nil, err
		}
		ids[dr.name] = role.ID
	}
	return ids, nil
}

func seedDemoUser(ctx context.Context, q *Queries, email, password, first, last string, roleID int64) error {
	if _, err := q.GetUserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = q.CreateUser(ctx, CreateUserParams{
		FirstName:    first,
		LastName:     last,
		Email:        email,
		PasswordHash: hash,
		Status:       auth.StatusActive,
		RoleID:       sql.NullInt64{Int64: roleID, Valid: roleID > 0},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return err
}

func seedDemoContent(ctx context.Context, q *Queries) error {
	now := time.Now().UTC()

	if _, err := q.GetPageBySlug(ctx, "about"); errors.Is(err, sql.ErrNoRows) {
		if _, err := q.CreatePage(ctx, CreatePageParams{
			Title:       "About",
			Slug:        "about",
			Body:        "We build back-office tooling.",
			Format:      "markdown",
			BodyHTML:    "<p>We build back-office tooling.</p>\n",
			Status:      "published",
			PublishedAt: sql.NullTime{Time: now, Valid: true},
			CreatedAt:   now,
		}); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	n, err := q.CountFaqs(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		faqs := []CreateFaqParams{
			{Question: "How do I reset my password?", Answer: "<p>Use the forgot password link on the sign-in screen.</p>", SortOrder: 1},
			{Question: "Who can edit pages?", Answer: "<p>Users whose role grants the cms_edit permission.</p>", SortOrder: 2},
		}
		for _, f := range faqs {
			f.Status = auth.StatusActive
			f.CreatedAt = now
			if _, err := q.CreateFaq(ctx, f); err != nil {
				return err
			}
		}
	}

	if _, err := q.GetEmailTemplateBySlug(ctx, "password-reset"); errors.Is(err, sql.ErrNoRows) {
		if _, err := q.CreateEmailTemplate(ctx, CreateEmailTemplateParams{
			Slug:      "password-reset",
			Name:      "Password reset",
			Subject:   "Reset your password",
			Body:      "<p>Follow the link to choose a new password. It expires in 15 minutes.</p>",
			CreatedAt: now,
		}); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	return nil
}
