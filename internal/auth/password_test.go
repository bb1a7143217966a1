// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("changeme")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("unexpected hash format: %s", hash)
	}

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"correct", "changeme", true},
		{"wrong", "wrongpassword", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, err := CheckPassword(tt.password, hash)
			if err != nil {
				t.Fatalf("CheckPassword error: %v", err)
			}
			if valid != tt.want {
				t.Errorf("CheckPassword(%q) = %v, want %v", tt.password, valid, tt.want)
			}
		})
	}
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	hashes := []string{
		"",
		"plain",
		"$bcrypt$v=1$x$y$z",
		"$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=abc$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=19456,t=2,p=1$!!$aGFzaA",
		"$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$",
	}
	for _, hash := range hashes {
		ok, err := CheckPassword("changeme", hash)
		if !errors.Is(err, ErrMalformedHash) {
			t.Errorf("CheckPassword with hash %q: err = %v, want ErrMalformedHash", hash, err)
		}
		if ok {
			t.Errorf("CheckPassword with hash %q matched", hash)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	hash, err := HashPassword("changeme")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if NeedsRehash(hash) {
		t.Error("fresh hash should not need rehash")
	}
	if !NeedsRehash("$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA") {
		t.Error("hash with old parameters should need rehash")
	}
	if !NeedsRehash("not-a-hash") {
		t.Error("unparsable hash should need rehash")
	}
}

func TestCheckPasswordDummy(t *testing.T) {
	CheckPasswordDummy("")
	CheckPasswordDummy("anything")
}
