// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docstore

import "time"

const (
	methodServerTimestamp = "serverTimestamp"
	methodDeleteField     = "deleteField"
)

// sentinel is a write-time placeholder. It satisfies sanitize.Sentinel so
// payload sanitizing leaves it in place.
type sentinel string

func (s sentinel) SentinelMethod() string { return string(s) }

// ServerTimestamp is replaced by the store's clock when the write is
// applied. Stored timestamps read back as RFC 3339 strings.
func ServerTimestamp() any { return sentinel(methodServerTimestamp) }

// DeleteField removes the field it is assigned to. It is valid only in a
// merging Set or in Update.
func DeleteField() any { return sentinel(methodDeleteField) }

func isDelete(v any) bool {
	s, ok := v.(sentinel)
	return ok && s == methodDeleteField
}

// resolve returns a copy of data with server timestamps replaced by now.
// Delete sentinels are left for the merge step.
func (s *Store) resolve(data map[string]any) map[string]any {
	now := s.clock().UTC()
	return resolveMap(data, now)
}

func resolveMap(m map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = resolveValue(v, now)
	}
	return out
}

func resolveValue(v any, now time.Time) any {
	switch val := v.(type) {
	case sentinel:
		if val == methodServerTimestamp {
			return now
		}
		return val
	case map[string]any:
		return resolveMap(val, now)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = resolveValue(item, now)
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = resolveMap(item, now)
		}
		return out
	}
	return v
}

func containsDelete(v any) bool {
	switch val := v.(type) {
	case sentinel:
		return val == methodDeleteField
	case map[string]any:
		for _, item := range val {
			if containsDelete(item) {
				return true
			}
		}
	case []any:
		for _, item := range val {
			if containsDelete(item) {
				return true
			}
		}
	case []map[string]any:
		for _, item := range val {
			if containsDelete(item) {
				return true
			}
		}
	}
	return false
}
