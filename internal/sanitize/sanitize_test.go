// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sanitize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSentinel mimics a store placeholder whose internals must survive.
type fakeSentinel struct {
	method  string
	payload map[string]any
}

func (f *fakeSentinel) SentinelMethod() string { return f.method }

func TestSanitizeDropsUndefined(t *testing.T) {
	in := map[string]any{
		"a": 1,
		"b": Undefined,
		"c": []any{1, Undefined, 2},
	}

	got := Sanitize(in)

	assert.Equal(t, map[string]any{"a": 1, "c": []any{1, 2}}, got)
}

func TestSanitizeNested(t *testing.T) {
	in := map[string]any{
		"links": []map[string]any{
			{"href": "https://arxiv.org/abs/2101.00001", "title": Undefined, "rel": "alternate"},
			{"href": "https://arxiv.org/pdf/2101.00001", "title": "pdf", "type": Undefined},
		},
		"meta": map[string]any{
			"inner": map[string]any{"keep": "x", "drop": Undefined},
		},
	}

	got := Sanitize(in).(map[string]any)

	links := got["links"].([]any)
	require.Len(t, links, 2)
	assert.Equal(t, map[string]any{"href": "https://arxiv.org/abs/2101.00001", "rel": "alternate"}, links[0])
	assert.Equal(t, map[string]any{"href": "https://arxiv.org/pdf/2101.00001", "title": "pdf"}, links[1])
	assert.Equal(t, map[string]any{"inner": map[string]any{"keep": "x"}}, got["meta"])
	assert.False(t, Contains(got))
}

func TestSanitizeKeepsNil(t *testing.T) {
	got := Sanitize(map[string]any{"doi": nil, "x": Undefined})
	assert.Equal(t, map[string]any{"doi": nil}, got)
}

func TestSanitizeLeavesSentinelsUntouched(t *testing.T) {
	s := &fakeSentinel{method: "serverTimestamp", payload: map[string]any{"hidden": Undefined}}

	got := Sanitize(map[string]any{"savedAt": s}).(map[string]any)

	assert.Same(t, s, got["savedAt"])
	assert.True(t, IsUndefined(s.payload["hidden"]), "sentinel internals must not be recursed into")
}

func TestSanitizePassesTimeThrough(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	got := Sanitize(map[string]any{"at": now}).(map[string]any)
	assert.Equal(t, now, got["at"])
}

func TestSanitizeTopLevelUndefined(t *testing.T) {
	assert.True(t, IsUndefined(Sanitize(Undefined)))
	assert.Equal(t, "x", Sanitize("x"))
	assert.Nil(t, Sanitize(nil))
}

func TestSanitizeIsIdempotent(t *testing.T) {
	in := map[string]any{
		"a": []any{Undefined, map[string]any{"b": Undefined, "c": 3}},
		"d": "text",
	}
	once := Sanitize(in)
	assert.Equal(t, once, Sanitize(once))
}

func TestOrUndefined(t *testing.T) {
	assert.True(t, IsUndefined(OrUndefined("")))
	assert.Equal(t, "x", OrUndefined("x"))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains(map[string]any{"a": []any{Undefined}}))
	assert.False(t, Contains(map[string]any{"a": []any{1}}))
	assert.False(t, Contains(&fakeSentinel{payload: map[string]any{"x": Undefined}}))
}
