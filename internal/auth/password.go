// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth implements the back-office authorization core: password
// verification, session tokens, identity resolution and access decisions.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

// ErrMalformedHash is returned when a stored password verifier cannot be parsed.
var ErrMalformedHash = errors.New("malformed password hash")

// HashParams are the Argon2id cost parameters of a verifier.
type HashParams struct {
	Memory  uint32 // KiB
	Time    uint32
	Threads uint8
}

// DefaultHashParams is OWASP's second Argon2id profile (m=19MiB, t=2, p=1).
var DefaultHashParams = HashParams{Memory: 19 * 1024, Time: 2, Threads: 1}

const (
	hashAlgorithm = "argon2id"
	keyLength     = 32
	saltLength    = 16
)

var b64 = base64.RawStdEncoding

// verifier is a decoded "$argon2id$v=19$m=..,t=..,p=..$salt$key" string.
type verifier struct {
	params HashParams
	salt   []byte
	key    []byte
}

func (v verifier) encode() string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		hashAlgorithm, argon2.Version,
		v.params.Memory, v.params.Time, v.params.Threads,
		b64.EncodeToString(v.salt), b64.EncodeToString(v.key))
}

func (v verifier) matches(password string) bool {
	got := argon2.IDKey([]byte(password), v.salt, v.params.Time, v.params.Memory, v.params.Threads, uint32(len(v.key)))
	return subtle.ConstantTimeCompare(got, v.key) == 1
}

func decodeVerifier(encoded string) (verifier, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" {
		return verifier{}, ErrMalformedHash
	}
	if fields[1] != hashAlgorithm {
		return verifier{}, fmt.Errorf("%w: unsupported algorithm %q", ErrMalformedHash, fields[1])
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return verifier{}, fmt.Errorf("%w: version %q", ErrMalformedHash, fields[2])
	}

	var v verifier
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &v.params.Memory, &v.params.Time, &v.params.Threads); err != nil {
		return verifier{}, fmt.Errorf("%w: parameters: %v", ErrMalformedHash, err)
	}

	var err error
	if v.salt, err = b64.DecodeString(fields[4]); err != nil {
		return verifier{}, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	if v.key, err = b64.DecodeString(fields[5]); err != nil || len(v.key) == 0 {
		return verifier{}, fmt.Errorf("%w: key", ErrMalformedHash)
	}
	return v, nil
}

// HashPassword derives a new Argon2id verifier with DefaultHashParams and a
// random salt.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	p := DefaultHashParams
	v := verifier{
		params: p,
		salt:   salt,
		key:    argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, keyLength),
	}
	return v.encode(), nil
}

// CheckPassword reports whether password matches the stored verifier. The
// comparison runs in constant time. An unparsable verifier is an error,
// never a match.
func CheckPassword(password, encoded string) (bool, error) {
	v, err := decodeVerifier(encoded)
	if err != nil {
		return false, err
	}
	return v.matches(password), nil
}

// NeedsRehash reports whether a verifier was derived with parameters other
// than DefaultHashParams, or cannot be parsed at all.
func NeedsRehash(encoded string) bool {
	v, err := decodeVerifier(encoded)
	return err != nil || v.params != DefaultHashParams
}

var dummyVerifier = sync.OnceValue(func() verifier {
	v, err := decodeVerifier(mustHash("unused-dummy-password"))
	if err != nil {
		panic(err)
	}
	return v
})

func mustHash(password string) string {
	h, err := HashPassword(password)
	if err != nil {
		panic(err)
	}
	return h
}

// CheckPasswordDummy performs the same work as CheckPassword against a
// throwaway verifier. Logins naming unknown accounts call it so response
// times do not reveal which emails exist.
func CheckPasswordDummy(password string) {
	_ = dummyVerifier().matches(password)
}
