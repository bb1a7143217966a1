// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"net/url"
	"strconv"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination is a resolved limit/offset window.
type Pagination struct {
	Limit  int64
	Offset int64
}

// ParsePagination reads limit and either page (1-based) or offset from q.
// Missing or malformed values fall back to the first page of DefaultPageSize;
// limit is clamped to MaxPageSize. page wins over offset when both are set.
func ParsePagination(q url.Values) Pagination {
	limit := parsePositive(q.Get("limit"), DefaultPageSize)
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	p := Pagination{Limit: limit}
	if page := parsePositive(q.Get("page"), 0); page > 0 {
		p.Offset = (page - 1) * limit
	} else if off, err := strconv.ParseInt(q.Get("offset"), 10, 64); err == nil && off > 0 {
		p.Offset = off
	}
	return p
}

// Page is the 1-based page containing Offset.
func (p Pagination) Page() int64 {
	if p.Limit <= 0 {
		return 1
	}
	return p.Offset/p.Limit + 1
}

// TotalPages is the page count for total rows, at least 1.
func (p Pagination) TotalPages(total int64) int64 {
	if p.Limit <= 0 || total <= 0 {
		return 1
	}
	return (total + p.Limit - 1) / p.Limit
}

func parsePositive(s string, def int64) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
