// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docstore

import (
	"fmt"
	"strings"
)

// Rule restricts the shape of documents written to matching collections.
type Rule struct {
	// Pattern is a collection path where "*" matches one segment,
	// e.g. "users/*/lists".
	Pattern string
	Field   string
	Keys    []string
}

// FieldsOnly returns a rule requiring every object in the array field to
// carry only the listed keys.
func FieldsOnly(pattern, field string, keys ...string) Rule {
	return Rule{Pattern: pattern, Field: field, Keys: keys}
}

// DefaultRules are the rules the application store runs with: list tags
// carry only an id and a name.
func DefaultRules() []Rule {
	return []Rule{FieldsOnly("users/*/lists", "tags", "id", "name")}
}

func (r Rule) matches(collection string) bool {
	want := strings.Split(r.Pattern, "/")
	got := strings.Split(collection, "/")
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != "*" && want[i] != got[i] {
			return false
		}
	}
	return true
}

func (r Rule) check(collection string, doc map[string]any) error {
	if !r.matches(collection) {
		return nil
	}
	v, ok := doc[r.Field]
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return fmt.Errorf("field %q must be an array: %w", r.Field, ErrPermissionDenied)
	}
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return fmt.Errorf("%s[%d] must be an object: %w", r.Field, i, ErrPermissionDenied)
		}
		for k := range obj {
			if !r.allowed(k) {
				return fmt.Errorf("%s[%d] has disallowed key %q: %w", r.Field, i, k, ErrPermissionDenied)
			}
		}
	}
	return nil
}

func (r Rule) allowed(key string) bool {
	for _, k := range r.Keys {
		if k == key {
			return true
		}
	}
	return false
}
