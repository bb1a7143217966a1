// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

var testCSRFKey = []byte("12345678901234567890123456789012")

func TestDefaultCSRFConfig(t *testing.T) {
	dev := DefaultCSRFConfig(testCSRFKey, "token", true)
	if len(dev.TrustedOrigins) != 2 {
		t.Fatalf("expected 2 TrustedOrigins in dev mode, got %d", len(dev.TrustedOrigins))
	}
	for _, origin := range dev.TrustedOrigins {
		if len(origin) > 4 && origin[:4] == "http" {
			t.Errorf("TrustedOrigin should be host:port, not full URL: %s", origin)
		}
	}

	prod := DefaultCSRFConfig(testCSRFKey, "token", false)
	if len(prod.TrustedOrigins) != 0 {
		t.Errorf("expected no TrustedOrigins in production, got %d", len(prod.TrustedOrigins))
	}
	if prod.CookieName != "token" {
		t.Errorf("CookieName = %q", prod.CookieName)
	}
}

func TestCSRF(t *testing.T) {
	handler := CSRF(DefaultCSRFConfig(testCSRFKey, "token", false))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	tests := []struct {
		name     string
		method   string
		cookie   bool
		fetch    string
		wantCode int
	}{
		{"cookie cross-site POST rejected", http.MethodPost, true, "cross-site", http.StatusForbidden},
		{"cookie same-origin POST allowed", http.MethodPost, true, "same-origin", http.StatusOK},
		{"cookie cross-site GET allowed", http.MethodGet, true, "cross-site", http.StatusOK},
		{"bearer cross-site POST allowed", http.MethodPost, false, "cross-site", http.StatusOK},
		{"non-browser POST allowed", http.MethodPost, true, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "https://admin.example.com/api/users", nil)
			if tt.cookie {
				req.AddCookie(&http.Cookie{Name: "token", Value: "abc"})
			} else {
				req.Header.Set("Authorization", "Bearer abc")
			}
			if tt.fetch != "" {
				req.Header.Set("Sec-Fetch-Site", tt.fetch)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantCode)
			}
		})
	}
}

func TestCSRF_RejectionIsJSON(t *testing.T) {
	handler := CSRF(DefaultCSRFConfig(testCSRFKey, "token", false))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler reached")
		}))

	req := httptest.NewRequest(http.MethodDelete, "https://admin.example.com/api/roles/2", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "abc"})
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
}
