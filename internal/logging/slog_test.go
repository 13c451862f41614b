// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/parchment/pkg/types"
)

func TestNewTextLevels(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, types.LogConfig{Level: "warn", Format: "text"})
	require.NoError(t, err)

	ctx := context.Background()
	log.Info(ctx, "hidden")
	log.Warn(ctx, "shown", "query", "cat:cs.AI")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "query=cat:cs.AI")
}

func TestNewJSONWith(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, types.LogConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)

	log.With("component", "feed").Debug(context.Background(), "page", "count", 9)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &rec))
	assert.Equal(t, "page", rec["msg"])
	assert.Equal(t, "feed", rec["component"])
	assert.Equal(t, float64(9), rec["count"])
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	_, err := New(&bytes.Buffer{}, types.LogConfig{Level: "loud"})
	assert.Error(t, err)

	_, err = New(&bytes.Buffer{}, types.LogConfig{Format: "xml"})
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.Error(context.Background(), "nothing happens")
	assert.NotNil(t, log.With("k", "v"))
}
