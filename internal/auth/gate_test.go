// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"errors"
	"testing"
)

func TestAuthorize(t *testing.T) {
	editor := NewAuthContext(2, "editor", "ed@example.com", "cms_list", "cms_edit")

	tests := []struct {
		name    string
		ctx     *AuthContext
		perm    Permission
		wantErr error
	}{
		{"no context", nil, PermCMSList, ErrUnauthenticated},
		{"admin with empty set", NewAuthContext(1, "admin", "a@example.com"), PermUserDelete, nil},
		{"admin mixed case", NewAuthContext(1, "AdMiN", "a@example.com"), PermRoleEdit, nil},
		{"admin padded", NewAuthContext(1, " Admin ", "a@example.com"), PermConfigEdit, nil},
		{"editor has cms_edit", editor, PermCMSEdit, nil},
		{"editor has cms_list", editor, PermCMSList, nil},
		{"editor lacks cms_delete", editor, PermCMSDelete, ErrForbidden},
		{"empty set non-admin", NewAuthContext(3, "viewer", "v@example.com"), PermCMSList, ErrForbidden},
		{"no role", NewAuthContext(4, "", "n@example.com"), PermFAQList, ErrForbidden},
		{"admin-like name", NewAuthContext(5, "administrator", "x@example.com"), PermFAQList, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.ctx, tt.perm)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Authorize() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Authorize() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthorize_AdmitsIffMember(t *testing.T) {
	for _, granted := range Catalog() {
		ac := NewAuthContext(9, "custom", "c@example.com", string(granted))
		for _, required := range Catalog() {
			err := Authorize(ac, required)
			if granted == required && err != nil {
				t.Errorf("granted %s, required %s: unexpected denial %v", granted, required, err)
			}
			if granted != required && !errors.Is(err, ErrForbidden) {
				t.Errorf("granted %s, required %s: expected ErrForbidden, got %v", granted, required, err)
			}
		}
	}
}

func TestRequireSuperRole(t *testing.T) {
	if err := RequireSuperRole(nil); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("nil context: got %v", err)
	}
	if err := RequireSuperRole(NewAuthContext(1, "ADMIN", "a@example.com")); err != nil {
		t.Errorf("admin: got %v", err)
	}
	full := NewAuthContext(2, "manager", "m@example.com")
	for _, p := range Catalog() {
		full.Permissions[string(p)] = struct{}{}
	}
	if err := RequireSuperRole(full); !errors.Is(err, ErrForbidden) {
		t.Errorf("all permissions without admin role: got %v", err)
	}
}

func TestParsePermission(t *testing.T) {
	if p, ok := ParsePermission("email_template_edit"); !ok || p != PermEmailTemplateEdit {
		t.Errorf("ParsePermission(email_template_edit) = %q, %v", p, ok)
	}
	if _, ok := ParsePermission("cms_publish"); ok {
		t.Error("ParsePermission(cms_publish) should be unknown")
	}
	if got := PermEmailTemplateEdit.Module(); got != "email_template" {
		t.Errorf("Module() = %q", got)
	}
	if got := PermEmailTemplateEdit.Action(); got != "edit" {
		t.Errorf("Action() = %q", got)
	}
}

func TestAuthContext_Username(t *testing.T) {
	ac := NewAuthContext(1, "admin", "a@example.com")
	if ac.Username() != "a@example.com" {
		t.Errorf("Username() = %q", ac.Username())
	}
	ac.FirstName, ac.LastName = "Ada", "Lovelace"
	if ac.Username() != "Ada Lovelace" {
		t.Errorf("Username() = %q", ac.Username())
	}
}
