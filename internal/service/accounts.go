// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"

	"github.com/olegiv/ocms-backoffice/internal/auth"
	"github.com/olegiv/ocms-backoffice/internal/store"
)

// ResetTemplateSlug names the email template used for reset links.
const ResetTemplateSlug = "password-reset"

var (
	// ErrInvalidCredentials is returned for an unknown email or wrong password.
	ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", auth.ErrUnauthenticated)
	// ErrSetupComplete is returned by Setup once any user exists.
	ErrSetupComplete = fmt.Errorf("setup already completed: %w", ErrConflict)
)

// LoginResult is a successful sign-in.
type LoginResult struct {
	Token string
	User  store.User
	Role  string
}

// AccountService covers sign-in and password flows.
type AccountService struct {
	store   *store.Store
	users   *UserService
	codec   *auth.TokenCodec
	mailer  Mailer
	baseURL string
}

// NewAccountService creates an AccountService. baseURL prefixes reset links.
func NewAccountService(s *store.Store, users *UserService, codec *auth.TokenCodec, mailer Mailer, baseURL string) *AccountService {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &AccountService{store: s, users: users, codec: codec, mailer: mailer, baseURL: strings.TrimRight(baseURL, "/")}
}

// Login checks credentials and issues an access token. Inactive accounts
// fail with auth.ErrInactiveAccount even when the password matches.
func (a *AccountService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = store.NormalizeEmail(email)
	if email == "" || password == "" {
		v := NewValidationError()
		if email == "" {
			v.Add("email", "email is required")
		}
		if password == "" {
			v.Add("password", "password is required")
		}
		return LoginResult{}, v
	}

	u, err := a.store.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		auth.CheckPasswordDummy(password)
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := auth.CheckPassword(password, u.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, ErrInvalidCredentials
	}
	if u.Status != auth.StatusActive {
		return LoginResult{User: u}, auth.ErrInactiveAccount
	}

	if auth.NeedsRehash(u.PasswordHash) {
		if err := a.users.setPassword(ctx, u.ID, password); err != nil {
			slog.Warn("failed to upgrade password hash", "user_id", u.ID, "error", err)
		}
	}

	withRole, err := a.store.GetUserWithRole(ctx, u.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("loading role: %w", err)
	}
	role := withRole.RoleName.String

	token, err := a.codec.Issue(u.ID, role, u.Email)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issuing token: %w", err)
	}
	return LoginResult{Token: token, User: u, Role: role}, nil
}

// ForgotPassword emails a reset link when email belongs to an active user.
// It reports whether a link was sent; callers answer identically either way.
func (a *AccountService) ForgotPassword(ctx context.Context, email string) (bool, error) {
	email = store.NormalizeEmail(email)
	u, err := a.store.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up user: %w", err)
	}
	if u.Status != auth.StatusActive {
		return false, nil
	}

	token, err := a.codec.IssueReset(u.ID, u.Email, u.PasswordHash)
	if err != nil {
		return false, fmt.Errorf("issuing reset token: %w", err)
	}

	link := a.baseURL + "/reset-password?token=" + url.QueryEscape(token)
	msg := Message{
		To:      u.Email,
		Subject: "Reset your password",
		HTML:    `<p><a href="` + html.EscapeString(link) + `">Reset your password</a></p>`,
	}
	if tpl, err := a.store.GetEmailTemplateBySlug(ctx, ResetTemplateSlug); err == nil {
		msg.Subject = tpl.Subject
		msg.HTML = tpl.Body + msg.HTML
	} else if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("loading email template: %w", err)
	}

	if err := a.mailer.Send(ctx, msg); err != nil {
		return false, fmt.Errorf("sending reset email: %w", err)
	}
	return true, nil
}

// ResetPassword sets a new password from a reset token. The token must
// still be valid, its email must match the account, and the password must
// not have changed since it was issued, so each token works once.
func (a *AccountService) ResetPassword(ctx context.Context, token, password string) (store.User, error) {
	claims, err := a.codec.VerifyReset(token)
	if err != nil {
		return store.User{}, err
	}
	v := NewValidationError()
	validatePassword(v, "password", password)
	if err := v.OrNil(); err != nil {
		return store.User{}, err
	}

	u, err := a.store.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, auth.ErrInvalidToken
	}
	if err != nil {
		return store.User{}, err
	}
	if !strings.EqualFold(u.Email, claims.Email) {
		return store.User{}, auth.ErrInvalidToken
	}
	if err := a.codec.CheckResetStamp(claims, u.PasswordHash); err != nil {
		return store.User{}, err
	}
	if u.Status != auth.StatusActive {
		return store.User{}, auth.ErrInactiveAccount
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return store.User{}, fmt.Errorf("hashing password: %w", err)
	}
	err = a.store.ReplaceUserPassword(ctx, u.ID, u.PasswordHash, hash, a.users.now())
	if errors.Is(err, sql.ErrNoRows) {
		// Spent by a concurrent reset, or the user was deleted meanwhile.
		return store.User{}, auth.ErrInvalidToken
	}
	if err != nil {
		return store.User{}, err
	}
	return u, nil
}

// Setup creates the first administrator. It fails with ErrSetupComplete
// once any user row exists. The emptiness check and the insert share one
// transaction, and the insert itself is conditional, so concurrent calls
// create at most one account.
func (a *AccountService) Setup(ctx context.Context, in CreateUserInput) (store.User, error) {
	n, err := a.store.CountAllUsers(ctx)
	if err != nil {
		return store.User{}, fmt.Errorf("counting users: %w", err)
	}
	if n > 0 {
		return store.User{}, ErrSetupComplete
	}
	in.Status = auth.StatusActive
	arg, err := a.users.newUserParams(in)
	if err != nil {
		return store.User{}, err
	}

	var u store.User
	err = a.store.ExecTx(ctx, func(q *store.Queries) error {
		n, err := q.CountAllUsers(ctx)
		if err != nil {
			return fmt.Errorf("counting users: %w", err)
		}
		if n > 0 {
			return ErrSetupComplete
		}
		role, err := store.EnsureSuperRole(ctx, q)
		if err != nil {
			return err
		}
		arg.RoleID = sql.NullInt64{Int64: role.ID, Valid: true}
		u, err = q.CreateFirstUser(ctx, arg)
		return err
	})
	switch {
	case errors.Is(err, sql.ErrNoRows), store.IsDuplicate(err):
		return store.User{}, ErrSetupComplete
	case err != nil:
		return store.User{}, err
	}
	return u, nil
}
