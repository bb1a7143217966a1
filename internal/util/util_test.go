// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  Café  Déjà vu ", "cafe-deja-vu"},
		{"snake_case/path", "snake-case-path"},
		{"Price: $100!", "price-100"},
		{"---", ""},
		{"Ünïcödé", "unicode"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSlugify_Truncates(t *testing.T) {
	got := Slugify(strings.Repeat("ab ", 100))
	if len(got) > maxSlugLength {
		t.Errorf("len = %d, want <= %d", len(got), maxSlugLength)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("slug %q ends with hyphen", got)
	}
}

func TestIsValidSlug(t *testing.T) {
	valid := []string{"about", "about-us", "a1-b2"}
	invalid := []string{"", "About", "about--us", "-about", "about us"}
	for _, s := range valid {
		if !IsValidSlug(s) {
			t.Errorf("IsValidSlug(%q) = false", s)
		}
	}
	for _, s := range invalid {
		if IsValidSlug(s) {
			t.Errorf("IsValidSlug(%q) = true", s)
		}
	}
}

func TestSlugWithSuffix(t *testing.T) {
	if got := SlugWithSuffix("about", 1); got != "about" {
		t.Errorf("got %q", got)
	}
	if got := SlugWithSuffix("about", 3); got != "about-3" {
		t.Errorf("got %q", got)
	}
}

func TestResolveWithinBase(t *testing.T) {
	base := t.TempDir()

	got, err := ResolveWithinBase(base, "avatars/1.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != filepath.Join(base, "avatars", "1.png") {
		t.Errorf("got %q", got)
	}

	// Traversal is clamped to the base directory.
	got, err = ResolveWithinBase(base, "../../etc/passwd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, base) {
		t.Errorf("path %q escaped base %q", got, base)
	}

	for _, rel := range []string{"", "/", ".."} {
		if _, err := ResolveWithinBase(base, rel); err == nil {
			t.Errorf("ResolveWithinBase(%q) should fail", rel)
		}
	}
}

func TestSummarizeUserAgent(t *testing.T) {
	if got := SummarizeUserAgent(""); got != "" {
		t.Errorf("empty UA = %q", got)
	}

	chrome := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	got := SummarizeUserAgent(chrome)
	if !strings.HasPrefix(got, "Chrome") || !strings.Contains(got, "Windows") || !strings.HasSuffix(got, "(desktop)") {
		t.Errorf("SummarizeUserAgent(chrome) = %q", got)
	}

	if got := SummarizeUserAgent("curl/8.0"); !strings.Contains(got, "/") {
		t.Errorf("SummarizeUserAgent(curl) = %q", got)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"192.0.2.7", "192.0.2.7"},
		{"", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = tt.remote
		if got := ClientIP(r); got != tt.want {
			t.Errorf("ClientIP(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}
