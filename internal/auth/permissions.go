// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"slices"
	"strings"
)

// Permission is an atomic capability named "<module>_<action>".
// Storage keeps names as free text; this type is the boundary where
// names are checked against the catalog.
type Permission string

// Permission catalog.
const (
	PermUserList   Permission = "user_list"
	PermUserView   Permission = "user_view"
	PermUserCreate Permission = "user_create"
	PermUserEdit   Permission = "user_edit"
	PermUserDelete Permission = "user_delete"

	PermRoleList   Permission = "role_list"
	PermRoleView   Permission = "role_view"
	PermRoleCreate Permission = "role_create"
	PermRoleEdit   Permission = "role_edit"
	PermRoleDelete Permission = "role_delete"

	PermPermissionList Permission = "permission_list"

	PermCMSList   Permission = "cms_list"
	PermCMSView   Permission = "cms_view"
	PermCMSCreate Permission = "cms_create"
	PermCMSEdit   Permission = "cms_edit"
	PermCMSDelete Permission = "cms_delete"

	PermFAQList   Permission = "faq_list"
	PermFAQView   Permission = "faq_view"
	PermFAQCreate Permission = "faq_create"
	PermFAQEdit   Permission = "faq_edit"
	PermFAQDelete Permission = "faq_delete"

	PermEmailTemplateList   Permission = "email_template_list"
	PermEmailTemplateView   Permission = "email_template_view"
	PermEmailTemplateCreate Permission = "email_template_create"
	PermEmailTemplateEdit   Permission = "email_template_edit"
	PermEmailTemplateDelete Permission = "email_template_delete"

	PermConfigList Permission = "config_list"
	PermConfigView Permission = "config_view"
	PermConfigEdit Permission = "config_edit"

	PermAuditLogList Permission = "audit_log_list"
)

var catalog = []Permission{
	PermUserList, PermUserView, PermUserCreate, PermUserEdit, PermUserDelete,
	PermRoleList, PermRoleView, PermRoleCreate, PermRoleEdit, PermRoleDelete,
	PermPermissionList,
	PermCMSList, PermCMSView, PermCMSCreate, PermCMSEdit, PermCMSDelete,
	PermFAQList, PermFAQView, PermFAQCreate, PermFAQEdit, PermFAQDelete,
	PermEmailTemplateList, PermEmailTemplateView, PermEmailTemplateCreate,
	PermEmailTemplateEdit, PermEmailTemplateDelete,
	PermConfigList, PermConfigView, PermConfigEdit,
	PermAuditLogList,
}

// Catalog returns every known permission in a stable order.
func Catalog() []Permission {
	return slices.Clone(catalog)
}

// ParsePermission returns the catalog entry for name, or false if the
// name is unknown.
func ParsePermission(name string) (Permission, bool) {
	p := Permission(strings.TrimSpace(name))
	if slices.Contains(catalog, p) {
		return p, true
	}
	return "", false
}

// Module returns the module part of the name ("email_template" for
// "email_template_edit").
func (p Permission) Module() string {
	s := string(p)
	if i := strings.LastIndexByte(s, '_'); i > 0 {
		return s[:i]
	}
	return s
}

// Action returns the action part of the name.
func (p Permission) Action() string {
	s := string(p)
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		return s[i+1:]
	}
	return ""
}

func (p Permission) String() string {
	return string(p)
}
