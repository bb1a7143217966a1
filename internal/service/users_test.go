// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-backoffice/internal/auth"
	"github.com/olegiv/ocms-backoffice/internal/store"
	"github.com/olegiv/ocms-backoffice/internal/testutil"
)

// actorFor builds the context a resolved request for u would carry.
func actorFor(u store.User, role string) *auth.AuthContext {
	return &auth.AuthContext{UserID: u.ID, RoleName: role, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

var superActor = &auth.AuthContext{RoleName: auth.SuperRole, Email: "root@example.com"}

func TestUserService_Create(t *testing.T) {
	s := testutil.TestDB(t)
	svc := NewUserService(s, t.TempDir())
	ctx := context.Background()
	role := testutil.CreateRole(t, s, "editor")

	u, err := svc.Create(ctx, superActor, CreateUserInput{
		FirstName: "Ada",
		Email:     " Ada@Example.com ",
		Password:  "correct-horse",
		RoleID:    &role.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, auth.StatusActive, u.Status)
	assert.Equal(t, role.ID, u.RoleID.Int64)
	ok, err := auth.CheckPassword("correct-horse", u.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Create(ctx, superActor, CreateUserInput{FirstName: "Ada", Email: "ADA@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrConflict)

	missing := int64(999)
	_, err = svc.Create(ctx, superActor, CreateUserInput{FirstName: "B", Email: "b@example.com", Password: "correct-horse", RoleID: &missing})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_CreateValidation(t *testing.T) {
	svc := NewUserService(testutil.TestDB(t), "")
	_, err := svc.Create(context.Background(), superActor, CreateUserInput{Email: "not-an-email", Password: "short", Status: "gone"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "firstName")
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")
	assert.Contains(t, verr.Fields, "status")
}

func TestUserService_UpdateAndStatus(t *testing.T) {
	s := testutil.TestDB(t)
	svc := NewUserService(s, "")
	ctx := context.Background()
	a := testutil.CreateUser(t, s, "a@example.com", "password123", auth.StatusActive, 0)
	b := testutil.CreateUser(t, s, "b@example.com", "password123", auth.StatusActive, 0)
	actorA := actorFor(a, "manager")

	u, err := svc.Update(ctx, actorA, a.ID, UpdateUserInput{FirstName: "Alice", LastName: "A", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = svc.Update(ctx, actorA, a.ID, UpdateUserInput{FirstName: "Alice", Email: "B@example.com"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Update(ctx, actorA, 999, UpdateUserInput{FirstName: "X", Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrNotFound)

	u, err = svc.SetStatus(ctx, actorA, b.ID, auth.StatusInactive)
	require.NoError(t, err)
	assert.Equal(t, auth.StatusInactive, u.Status)

	_, err = svc.SetStatus(ctx, actorA, a.ID, auth.StatusInactive)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_CreateWithRoleNeedsSuperRole(t *testing.T) {
	s := testutil.TestDB(t)
	svc := NewUserService(s, "")
	ctx := context.Background()
	hr := actorFor(testutil.CreateUser(t, s, "hr@example.com", "password123", auth.StatusActive, 0), "hr")
	admin := testutil.AdminRole(t, s)
	editor := testutil.CreateRole(t, s, "editor")

	for _, roleID := range []int64{admin.ID, editor.ID} {
		_, err := svc.Create(ctx, hr, CreateUserInput{FirstName: "M", Email: "minted@example.com", Password: "password123", RoleID: &roleID})
		assert.ErrorIs(t, err, auth.ErrSuperRoleRequired)
	}
	_, err := s.GetUserByEmail(ctx, "minted@example.com")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	u, err := svc.Create(ctx, hr, CreateUserInput{FirstName: "M", Email: "minted@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.False(t, u.RoleID.Valid)
}

func TestUserService_SuperRoleTargets(t *testing.T) {
	s := testutil.TestDB(t)
	svc := NewUserService(s, "")
	ctx := context.Background()
	root := testutil.CreateUser(t, s, "root@example.com", "password123", auth.StatusActive, testutil.AdminRole(t, s).ID)
	other := testutil.CreateUser(t, s, "other@example.com", "password123", auth.StatusActive, 0)
	manager := actorFor(testutil.CreateUser(t, s, "manager@example.com", "password123", auth.StatusActive, 0), "manager")

	ops := map[string]func(actor *auth.AuthContext, id int64) error{
		"update": func(actor *auth.AuthContext, id int64) error {
			_, err := svc.Update(ctx, actor, id, UpdateUserInput{FirstName: "Taken", Email: "attacker@example.com"})
			return err
		},
		"status": func(actor *auth.AuthContext, id int64) error {
			_, err := svc.SetStatus(ctx, actor, id, auth.StatusInactive)
			return err
		},
		"delete": func(actor *auth.AuthContext, id int64) error {
			_, err := svc.Delete(ctx, actor, id)
			return err
		},
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, op(manager, root.ID), auth.ErrSuperRoleRequired)
			assert.ErrorIs(t, op(nil, other.ID), auth.ErrUnauthenticated)
		})
	}

	got, err := s.GetUserByID(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, "root@example.com", got.Email)
	assert.Equal(t, auth.StatusActive, got.Status)

	_, err = svc.Update(ctx, manager, other.ID, UpdateUserInput{FirstName: "Other", Email: "other2@example.com"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, actorFor(other, auth.SuperRole), root.ID, UpdateUserInput{FirstName: "Root", Email: "root2@example.com"})
	require.NoError(t, err)
}

func TestUserService_AssignRole(t *testing.T) {
	s := testutil.TestDB(t)
	svc := NewUserService(s, "")
	ctx := context.Background()
	role := testutil.CreateRole(t, s, "editor")
	u := testutil.CreateUser(t, s, "a@example.com", "password123", auth.StatusActive, 0)

	got, err := svc.AssignRole(ctx, u.ID, &role.ID)
	require.NoError(t, err)
	assert.Equal(t, role.ID, got.RoleID.Int64)

	got, err = svc.AssignRole(ctx, u.ID, nil)
	require.NoError(t, err)
	assert.False(t, got.RoleID.Valid)
}

func TestUserService_DeleteAndPurge(t *testing.T) {
	s := testutil.TestDB(t)
	uploads := t.TempDir()
	svc := NewUserService(s, uploads)
	ctx := context.Background()
	admin := testutil.CreateUser(t, s, "admin@example.com", "password123", auth.StatusActive, 0)
	u := testutil.CreateUser(t, s, "gone@example.com", "password123", auth.StatusActive, 0)

	require.NoError(t, os.MkdirAll(filepath.Join(uploads, "avatars"), 0o755))
	img := filepath.Join(uploads, "avatars", "gone.png")
	require.NoError(t, os.WriteFile(img, []byte("png"), 0o644))
	_, err := svc.Update(ctx, superActor, u.ID, UpdateUserInput{FirstName: "Gone", Email: u.Email, Image: "avatars/gone.png"})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, actorFor(admin, auth.SuperRole), admin.ID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Delete(ctx, actorFor(admin, auth.SuperRole), u.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.LookupIdentity(ctx, u.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	// Purge still finds the soft-deleted row.
	_, err = svc.Purge(ctx, actorFor(admin, auth.SuperRole), u.ID)
	require.NoError(t, err)
	_, err = os.Stat(img)
	assert.True(t, os.IsNotExist(err))
	_, err = s.GetUserByIDIncludingDeleted(ctx, u.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = svc.Purge(ctx, actorFor(admin, auth.SuperRole), u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_PurgeKeepsFilesOutsideUploads(t *testing.T) {
	s := testutil.TestDB(t)
	root := t.TempDir()
	uploads := filepath.Join(root, "uploads")
	require.NoError(t, os.MkdirAll(uploads, 0o755))
	outside := filepath.Join(root, "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o644))

	svc := NewUserService(s, uploads)
	ctx := context.Background()
	u := testutil.CreateUser(t, s, "x@example.com", "password123", auth.StatusActive, 0)
	_, err := svc.Update(ctx, superActor, u.ID, UpdateUserInput{FirstName: "X", Email: u.Email, Image: "../secret.txt"})
	require.NoError(t, err)

	_, err = svc.Purge(ctx, superActor, u.ID)
	require.NoError(t, err)
	_, err = os.Stat(outside)
	assert.NoError(t, err)
}

func TestUserService_List(t *testing.T) {
	s := testutil.TestDB(t)
	svc := NewUserService(s, "")
	ctx := context.Background()
	for _, e := range []string{"a@example.com", "b@example.com", "c@corp.test"} {
		testutil.CreateUser(t, s, e, "password123", auth.StatusActive, 0)
	}
	testutil.CreateUser(t, s, "d@example.com", "password123", auth.StatusInactive, 0)

	page, err := svc.List(ctx, store.UserFilter{Search: "example.com", Status: auth.StatusActive}, Pagination{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, int64(2), page.TotalPages)
	assert.Len(t, page.Data, 2)

	page, err = svc.List(ctx, store.UserFilter{Status: auth.StatusInactive}, Pagination{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	_, err = svc.List(ctx, store.UserFilter{Status: "weird"}, Pagination{Limit: 10})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_ChangePassword(t *testing.T) {
	s := testutil.TestDB(t)
	svc := NewUserService(s, "")
	ctx := context.Background()
	u := testutil.CreateUser(t, s, "a@example.com", "password123", auth.StatusActive, 0)

	assert.ErrorIs(t, svc.ChangePassword(ctx, u.ID, "wrong-password", "new-password-1"), ErrValidation)
	assert.ErrorIs(t, svc.ChangePassword(ctx, u.ID, "password123", "short"), ErrValidation)
	require.NoError(t, svc.ChangePassword(ctx, u.ID, "password123", "new-password-1"))

	got, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	ok, _ := auth.CheckPassword("new-password-1", got.PasswordHash)
	assert.True(t, ok)
}
