// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mileusna/useragent"
)

const maxUserAgentLength = 255

// SummarizeUserAgent reduces a User-Agent header to "Browser Version / OS (device)".
func SummarizeUserAgent(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ua := useragent.Parse(raw)

	browser := ua.Name
	if browser == "" {
		browser = "Unknown"
	} else if ua.Version != "" {
		browser += " " + ua.Version
	}
	os := ua.OS
	if os == "" {
		os = "Unknown"
	}

	device := "desktop"
	switch {
	case ua.Bot:
		device = "bot"
	case ua.Mobile:
		device = "mobile"
	case ua.Tablet:
		device = "tablet"
	}

	s := browser + " / " + os + " (" + device + ")"
	if len(s) > maxUserAgentLength {
		s = s[:maxUserAgentLength]
	}
	return s
}
