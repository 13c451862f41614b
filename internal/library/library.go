// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library keeps a signed-in user's bookmarks and reading lists in
// sync with the document store. Each collection is mirrored from a live
// subscription: every snapshot replaces the local copy completely, and
// writes go straight to the store and come back through the subscription.
package library

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/parchment/internal/docstore"
)

const (
	bookmarksCollection = "bookmarks"
	listsCollection     = "lists"
)

// DocumentStore is the subset of *docstore.Store the synchronizers use.
type DocumentStore interface {
	Subscribe(ctx context.Context, q docstore.Query, onData func([]docstore.Document), onError func(error)) docstore.Unsubscribe
	Set(ctx context.Context, collection, id string, data map[string]any, merge bool) error
	Update(ctx context.Context, collection, id string, data map[string]any) error
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	Delete(ctx context.Context, collection, id string) error
}

// ErrAuthRequired is returned by writes made while no user is signed in.
var ErrAuthRequired = errors.New("sign in required")

// ValidationError rejects a write before it reaches the store. Message is
// suitable for display.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// SyncError reports a failed subscription. The subscription is stopped
// until Retry.
type SyncError struct {
	Collection string
	Message    string
	Err        error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("syncing %s: %v", e.Collection, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func timeField(data map[string]any, key string) time.Time {
	switch v := data[key].(type) {
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err == nil {
			return t
		}
	case time.Time:
		return v
	}
	return time.Time{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
