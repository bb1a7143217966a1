// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ResolveWithinBase joins rel onto base and fails if the result escapes
// base. Used before removing files named by database rows.
func ResolveWithinBase(base, rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("empty path")
	}
	absBase, err := filepath.Abs(filepath.Clean(base))
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}
	target := filepath.Join(absBase, filepath.Clean("/"+rel))
	if target != absBase && !strings.HasPrefix(target, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes base directory")
	}
	if target == absBase {
		return "", fmt.Errorf("path resolves to base directory")
	}
	return target, nil
}
