// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token purposes. A reset token is never accepted as an access token and
// vice versa.
const (
	PurposeAccess        = "access"
	PurposePasswordReset = "password_reset"
)

// Default token lifetimes.
const (
	DefaultAccessTTL = 24 * time.Hour
	DefaultResetTTL  = 15 * time.Minute
	DefaultIssuer    = "ocms-backoffice"
)

// Claims is the signed token payload.
type Claims struct {
	UserID  int64  `json:"userId"`
	Role    string `json:"role,omitempty"`
	Email   string `json:"email,omitempty"`
	Purpose string `json:"purpose"`
	// Stamp binds a reset token to the password hash it was issued against.
	Stamp string `json:"stamp,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256 session tokens.
// It is safe for concurrent use.
type TokenCodec struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	resetTTL  time.Duration
	now       func() time.Time
}

// TokenOption configures a TokenCodec.
type TokenOption func(*TokenCodec)

// WithAccessTTL sets the access token lifetime.
func WithAccessTTL(ttl time.Duration) TokenOption {
	return func(c *TokenCodec) {
		if ttl > 0 {
			c.accessTTL = ttl
		}
	}
}

// WithResetTTL sets the password reset token lifetime.
func WithResetTTL(ttl time.Duration) TokenOption {
	return func(c *TokenCodec) {
		if ttl > 0 {
			c.resetTTL = ttl
		}
	}
}

// WithIssuer sets the iss claim written and required by the codec.
func WithIssuer(issuer string) TokenOption {
	return func(c *TokenCodec) {
		if issuer != "" {
			c.issuer = issuer
		}
	}
}

// WithClock replaces time.Now for issuing and verifying.
func WithClock(now func() time.Time) TokenOption {
	return func(c *TokenCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewTokenCodec returns a codec signing with secret.
// An empty secret is a fatal configuration error.
func NewTokenCodec(secret string, opts ...TokenOption) (*TokenCodec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("%w: token signing secret is empty", ErrMisconfiguration)
	}
	c := &TokenCodec{
		secret:    []byte(secret),
		issuer:    DefaultIssuer,
		accessTTL: DefaultAccessTTL,
		resetTTL:  DefaultResetTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// AccessTTL returns the configured access token lifetime.
func (c *TokenCodec) AccessTTL() time.Duration {
	return c.accessTTL
}

// Issue signs an access token for userID.
func (c *TokenCodec) Issue(userID int64, role, email string) (string, error) {
	return c.sign(Claims{
		UserID:  userID,
		Role:    role,
		Email:   email,
		Purpose: PurposeAccess,
	}, c.accessTTL)
}

// Verify checks an access token and returns its claims.
// Every failure is reported as ErrInvalidToken.
func (c *TokenCodec) Verify(token string) (*Claims, error) {
	return c.parse(token, PurposeAccess)
}

// IssueReset signs a short-lived password reset token bound to the
// account's current password hash. Any password change, including the
// reset itself, invalidates it.
func (c *TokenCodec) IssueReset(userID int64, email, passwordHash string) (string, error) {
	return c.sign(Claims{
		UserID:  userID,
		Email:   email,
		Purpose: PurposePasswordReset,
		Stamp:   c.passwordStamp(passwordHash),
	}, c.resetTTL)
}

// VerifyReset checks the signature, lifetime and purpose of a password
// reset token. Callers must still compare it with the account through
// CheckResetStamp.
func (c *TokenCodec) VerifyReset(token string) (*Claims, error) {
	claims, err := c.parse(token, PurposePasswordReset)
	if err != nil {
		return nil, err
	}
	if claims.Email == "" || claims.Stamp == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// CheckResetStamp returns ErrInvalidToken unless claims were issued against
// passwordHash.
func (c *TokenCodec) CheckResetStamp(claims *Claims, passwordHash string) error {
	if claims == nil || !hmac.Equal([]byte(claims.Stamp), []byte(c.passwordStamp(passwordHash))) {
		return ErrInvalidToken
	}
	return nil
}

// passwordStamp is keyed so the token reveals nothing about the hash.
func (c *TokenCodec) passwordStamp(passwordHash string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte("reset-stamp:"))
	mac.Write([]byte(passwordHash))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)[:16])
}

func (c *TokenCodec) sign(claims Claims, ttl time.Duration) (string, error) {
	if claims.UserID <= 0 {
		return "", fmt.Errorf("sign token: invalid user id %d", claims.UserID)
	}

	now := c.now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    c.issuer,
		Subject:   strconv.FormatInt(claims.UserID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (c *TokenCodec) parse(token, purpose string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)

	parsed, err := parser.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose || claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}
	if claims.Subject != strconv.FormatInt(claims.UserID, 10) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
