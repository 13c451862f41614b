// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package arxivid canonicalizes arXiv identifiers and derives paper URLs.
// Feed results and stored bookmarks are joined on the canonical identifier,
// so every identifier entering the system passes through Normalize.
package arxivid

import (
	"regexp"
	"strings"
)

// idPattern matches a modern identifier (YYMM.NNNNN) or a legacy one
// (archive[.XX]/YYMMNNN).
var idPattern = regexp.MustCompile(`\d{4}\.\d{4,5}|[a-z-]+(?:\.[A-Z]{2})?/\d{7}`)

const (
	absBase = "https://arxiv.org/abs/"
	pdfBase = "https://arxiv.org/pdf/"
)

// Normalize extracts the canonical identifier from a feed id URL, an
// abstract URL, or an already clean identifier. The first match anywhere in
// s wins and version suffixes are dropped
// (e.g. "http://arxiv.org/abs/2101.00001v2" → "2101.00001").
//
// Input without a recognizable identifier is returned unchanged. Empty
// input returns "".
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if m := idPattern.FindString(s); m != "" {
		return m
	}
	return s
}

// IsCanonical reports whether s is exactly a recognized identifier.
func IsCanonical(s string) bool {
	return s != "" && idPattern.FindString(s) == s
}

// AbsURL returns the abstract page URL for id.
func AbsURL(id string) string {
	if id == "" {
		return ""
	}
	return absBase + id
}

// PDFURL converts an abstract URL, PDF URL, or bare identifier into a direct
// https PDF link ending in ".pdf"
// (e.g. "http://arxiv.org/abs/2101.00001" → "https://arxiv.org/pdf/2101.00001.pdf").
func PDFURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	u := s
	switch {
	case strings.HasPrefix(u, "http://"):
		u = "https://" + strings.TrimPrefix(u, "http://")
	case strings.HasPrefix(u, "https://"):
	default:
		u = pdfBase + strings.TrimPrefix(u, "/")
	}

	u = strings.Replace(u, "/abs/", "/pdf/", 1)
	if !strings.HasSuffix(u, ".pdf") {
		u += ".pdf"
	}
	return u
}
