// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sanitize strips values the document store cannot persist from a
// nested payload before it is written.
//
// Go has no undefined value, so payload builders mark absent optional
// fields with Undefined. Sanitize removes those recursively. nil is a valid
// stored value and passes through. Write sentinels (server timestamps,
// field deletions) pass through untouched.
package sanitize

import "time"

type undefined struct{}

// Undefined marks a field that must be omitted from the stored document.
var Undefined any = undefined{}

// IsUndefined reports whether v is the Undefined marker.
func IsUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}

// Sentinel is implemented by write-time placeholder values produced by the
// document store client. SentinelMethod names the operation
// (e.g. "serverTimestamp") and doubles as the detection tag.
type Sentinel interface {
	SentinelMethod() string
}

// OrUndefined returns Undefined for the zero string and s otherwise.
func OrUndefined(s string) any {
	if s == "" {
		return Undefined
	}
	return s
}

// Sanitize returns v with every Undefined value removed at any depth.
// Sentinels and time.Time values are returned as is and never recursed
// into. Sanitize is total and idempotent.
func Sanitize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case undefined:
		return Undefined
	case Sentinel:
		return val
	case time.Time, *time.Time:
		return val
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			s := Sanitize(item)
			if IsUndefined(s) {
				continue
			}
			out = append(out, s)
		}
		return out
	case []map[string]any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			out = append(out, Map(item))
		}
		return out
	case map[string]any:
		return Map(val)
	default:
		return val
	}
}

// Map sanitizes a document body. A nil map yields an empty one.
func Map(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, item := range m {
		s := Sanitize(item)
		if IsUndefined(s) {
			continue
		}
		out[k] = s
	}
	return out
}

// Contains reports whether Undefined appears anywhere in v outside of
// sentinels.
func Contains(v any) bool {
	switch val := v.(type) {
	case undefined:
		return true
	case Sentinel:
		return false
	case []any:
		for _, item := range val {
			if Contains(item) {
				return true
			}
		}
	case []map[string]any:
		for _, item := range val {
			if Contains(item) {
				return true
			}
		}
	case map[string]any:
		for _, item := range val {
			if Contains(item) {
				return true
			}
		}
	}
	return false
}
