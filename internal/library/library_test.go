// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/parchment/internal/docstore"
	"github.com/pdiddy/parchment/internal/feedback"
	"github.com/pdiddy/parchment/pkg/types"
)

// faultyStore wraps a memory store with injectable failures and counts
// writes.
type faultyStore struct {
	*docstore.Store

	mu           sync.Mutex
	subscribeErr error
	writeErr     error
	writes       int
}

func newFaultyStore(t *testing.T) *faultyStore {
	t.Helper()
	var n int
	clock := func() time.Time {
		n++
		return time.Date(2024, 5, 1, 0, 0, n, 0, time.UTC)
	}
	s := docstore.NewMemory(docstore.Options{Clock: clock, Rules: docstore.DefaultRules()})
	t.Cleanup(func() { s.Close() })
	return &faultyStore{Store: s}
}

func (f *faultyStore) Subscribe(ctx context.Context, q docstore.Query, onData func([]docstore.Document), onError func(error)) docstore.Unsubscribe {
	f.mu.Lock()
	err := f.subscribeErr
	f.mu.Unlock()
	if err != nil {
		onError(err)
		return func() {}
	}
	return f.Store.Subscribe(ctx, q, onData, onError)
}

func (f *faultyStore) write() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	return f.writeErr
}

func (f *faultyStore) Set(ctx context.Context, c, id string, data map[string]any, merge bool) error {
	if err := f.write(); err != nil {
		return err
	}
	return f.Store.Set(ctx, c, id, data, merge)
}

func (f *faultyStore) Update(ctx context.Context, c, id string, data map[string]any) error {
	if err := f.write(); err != nil {
		return err
	}
	return f.Store.Update(ctx, c, id, data)
}

func (f *faultyStore) Add(ctx context.Context, c string, data map[string]any) (string, error) {
	if err := f.write(); err != nil {
		return "", err
	}
	return f.Store.Add(ctx, c, data)
}

func (f *faultyStore) Delete(ctx context.Context, c, id string) error {
	if err := f.write(); err != nil {
		return err
	}
	return f.Store.Delete(ctx, c, id)
}

func (f *faultyStore) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

var attention = types.Paper{
	ID:      "http://arxiv.org/abs/1706.03762v7",
	Title:   "Attention Is All You Need",
	Authors: "Ashish Vaswani, Noam Shazeer",
	Summary: "The dominant sequence transduction models.",
	Links: []types.Link{
		{Href: "http://arxiv.org/abs/1706.03762v7", Rel: "alternate", Type: "text/html"},
		{Href: "http://arxiv.org/pdf/1706.03762v7", Rel: "related", Title: "pdf", Type: "application/pdf"},
	},
	Tags: []string{"cs.CL", "cs.LG"},
	Date: "12 Jun 2017",
}

func TestBookmarkToggleRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore(t)
	rec := &feedback.Recorder{}
	b := NewBookmarks(store, nil, rec)
	b.SetUser(ctx, "u1")
	require.False(t, b.Loading())

	saved, err := b.Toggle(ctx, attention)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.True(t, b.IsBookmarked("1706.03762"))
	assert.True(t, b.IsBookmarked("https://arxiv.org/abs/1706.03762v7"))
	assert.Equal(t, feedback.Success, rec.Last())

	list := b.List()
	require.Len(t, list, 1)
	bm := list[0]
	assert.Equal(t, "1706.03762", bm.ID)
	assert.Equal(t, attention.Title, bm.Title)
	assert.Equal(t, "https://arxiv.org/abs/1706.03762", bm.Link)
	assert.Equal(t, "https://arxiv.org/pdf/1706.03762.pdf", bm.PDFLink)
	assert.Equal(t, []string{"cs.CL", "cs.LG"}, bm.Tags)
	require.Len(t, bm.Links, 2)
	assert.Empty(t, bm.Links[0].Title, "empty link title is dropped, not stored")
	assert.False(t, bm.SavedAt.IsZero())

	saved, err = b.Toggle(ctx, attention)
	require.NoError(t, err)
	assert.False(t, saved)
	assert.False(t, b.IsBookmarked("1706.03762"))
	assert.Empty(t, b.List())
}

func TestBookmarkPayloadOmitsUndefined(t *testing.T) {
	p := BookmarkPayload(attention)
	links := p["links"].([]any)
	first := links[0].(map[string]any)
	_, hasTitle := first["title"]
	assert.False(t, hasTitle)
	assert.Equal(t, "alternate", first["rel"])
	assert.Equal(t, "1706.03762", p["id"])
	assert.Equal(t, "https://arxiv.org/abs/1706.03762", p["link"])
	assert.Equal(t, "https://arxiv.org/pdf/1706.03762.pdf", p["pdfLink"])
}

func TestBookmarksNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore(t)
	b := NewBookmarks(store, nil, nil)
	b.SetUser(ctx, "u1")

	for _, id := range []string{"2401.00001", "2401.00002", "2401.00003"} {
		_, err := b.Toggle(ctx, types.Paper{ID: id, Title: "Paper " + id})
		require.NoError(t, err)
	}

	var ids []string
	for _, bm := range b.List() {
		ids = append(ids, bm.ID)
	}
	assert.Equal(t, []string{"2401.00003", "2401.00002", "2401.00001"}, ids)
}

func TestBookmarkToggleRequiresUserAndID(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore(t)
	b := NewBookmarks(store, nil, nil)

	_, err := b.Toggle(ctx, attention)
	assert.ErrorIs(t, err, ErrAuthRequired)

	b.SetUser(ctx, "u1")
	_, err = b.Toggle(ctx, types.Paper{ID: "   "})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Message, "Missing paper identifier")
	assert.Zero(t, store.writeCount())
}

func TestBookmarkToggleFailure(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore(t)
	rec := &feedback.Recorder{}
	b := NewBookmarks(store, nil, rec)
	b.SetUser(ctx, "u1")

	store.writeErr = errors.New("offline")
	_, err := b.Toggle(ctx, attention)
	require.Error(t, err)
	assert.Equal(t, feedback.Error, rec.Last())
	assert.False(t, b.IsBookmarked("1706.03762"))
}

func TestBookmarksSignOutClears(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore(t)
	b := NewBookmarks(store, nil, nil)
	b.SetUser(ctx, "u1")
	_, err := b.Toggle(ctx, attention)
	require.NoError(t, err)

	b.SetUser(ctx, "")
	assert.Empty(t, b.List())
	assert.False(t, b.IsBookmarked("1706.03762"))

	// Writes by another client no longer reach the signed-out mirror.
	require.NoError(t, store.Store.Set(ctx, docstore.UserCollection("u1", "bookmarks"), "2401.00009",
		map[string]any{"id": "2401.00009", "savedAt": docstore.ServerTimestamp()}, false))
	assert.Empty(t, b.List())

	b.SetUser(ctx, "u1")
	assert.Len(t, b.List(), 2)
}

func TestBookmarksSyncErrorAndRetry(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore(t)
	store.subscribeErr = errors.New("permission denied")
	b := NewBookmarks(store, nil, nil)

	b.SetUser(ctx, "u1")
	var se *SyncError
	require.ErrorAs(t, b.Err(), &se)
	assert.Equal(t, "Unable to load saved papers.", se.Message)
	assert.False(t, b.Loading())

	store.subscribeErr = nil
	b.Retry(ctx)
	assert.NoError(t, b.Err())
}

func TestBookmarkFromDocumentFallbacks(t *testing.T) {
	bm := bookmarkFromDocument(docstore.Document{
		ID:   "2301.00001",
		Data: map[string]any{"title": "T", "tags": "not-a-list"},
	})
	assert.Equal(t, "2301.00001", bm.ID)
	assert.Equal(t, "https://arxiv.org/abs/2301.00001", bm.Link)
	assert.Equal(t, "https://arxiv.org/pdf/2301.00001.pdf", bm.PDFLink)
	assert.Equal(t, []string{}, bm.Tags)
}

func TestBookmarksFilter(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore(t)
	b := NewBookmarks(store, nil, nil)
	b.SetUser(ctx, "u1")

	_, err := b.Toggle(ctx, attention)
	require.NoError(t, err)
	_, err = b.Toggle(ctx, types.Paper{ID: "2401.00001", Title: "Graph Networks", Tags: []string{"cs.AI"}})
	require.NoError(t, err)

	assert.Len(t, b.Filter(""), 2)
	assert.Len(t, b.Filter("VASWANI"), 1)
	assert.Len(t, b.Filter("cs.ai"), 1)
	assert.Len(t, b.Filter("cs."), 2)
	assert.Empty(t, b.Filter("quantum"))
}
