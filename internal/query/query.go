// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query builds arXiv search expressions from free text, the
// advanced-search form, and user lists. It also holds the fixed category and
// sort catalogs.
package query

import (
	"strings"

	"github.com/pdiddy/parchment/pkg/types"
)

// Field prefixes understood by the feed.
const (
	PrefixAll      = "all:"
	PrefixTitle    = "ti:"
	PrefixAuthor   = "au:"
	PrefixAbstract = "abs:"
	PrefixJournal  = "jr:"
	PrefixID       = "id:"
	PrefixCategory = "cat:"
)

var fieldPrefixes = []string{PrefixTitle, PrefixAuthor, PrefixAbstract, PrefixJournal, PrefixID}

var booleanOperators = map[string]bool{"AND": true, "OR": true, "ANDNOT": true}

// IsAdvanced reports whether input already scopes terms to a field.
func IsAdvanced(input string) bool {
	for _, p := range fieldPrefixes {
		if strings.Contains(input, p) {
			return true
		}
	}
	return false
}

// Simple turns free-text input into a search expression. Field-scoped input
// passes through unchanged. A multi-word phrase without quotes or boolean
// operators is quoted under the all-fields prefix
// (e.g. "deep learning" → `all:"deep learning"`); anything else is prefixed
// unquoted. Empty input yields "".
func Simple(input string) string {
	q := strings.TrimSpace(input)
	if q == "" {
		return ""
	}
	if IsAdvanced(q) {
		return q
	}

	words := strings.Fields(q)
	if len(words) > 1 && !strings.Contains(q, `"`) && !hasBoolean(words) {
		return PrefixAll + `"` + q + `"`
	}
	return PrefixAll + q
}

func hasBoolean(words []string) bool {
	for _, w := range words {
		if booleanOperators[w] {
			return true
		}
	}
	return false
}

// AdvancedForm is the structured search form. Each non-empty field becomes
// one clause.
type AdvancedForm struct {
	Title    string
	Author   string
	Abstract string
	Journal  string
	ID       string
}

// Advanced joins one quoted clause per filled field with AND, in the order
// title, author, abstract, journal, id. It returns false when no field is
// filled, meaning there is nothing to search.
func Advanced(form AdvancedForm) (string, bool) {
	fields := []struct {
		prefix, value string
	}{
		{PrefixTitle, form.Title},
		{PrefixAuthor, form.Author},
		{PrefixAbstract, form.Abstract},
		{PrefixJournal, form.Journal},
		{PrefixID, form.ID},
	}

	var parts []string
	for _, f := range fields {
		v := strings.TrimSpace(f.value)
		if v == "" {
			continue
		}
		parts = append(parts, f.prefix+`"`+v+`"`)
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " AND "), true
}

// ForList builds the category expression for a user list: one cat: clause
// per tag joined with OR. A list without tags browses the default category.
func ForList(tags []types.ListTag) string {
	var parts []string
	for _, t := range tags {
		if t.ID == "" {
			continue
		}
		parts = append(parts, PrefixCategory+t.ID)
	}
	if len(parts) == 0 {
		return DefaultCategory().Query
	}
	return strings.Join(parts, " OR ")
}
