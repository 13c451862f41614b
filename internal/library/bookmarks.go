// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pdiddy/parchment/internal/arxivid"
	"github.com/pdiddy/parchment/internal/docstore"
	"github.com/pdiddy/parchment/internal/feedback"
	"github.com/pdiddy/parchment/internal/logging"
	"github.com/pdiddy/parchment/internal/sanitize"
	"github.com/pdiddy/parchment/pkg/types"
)

// Bookmarks mirrors users/{uid}/bookmarks, newest first.
type Bookmarks struct {
	store DocumentStore
	log   logging.Logger
	fb    feedback.Notifier

	mu      sync.Mutex
	uid     string
	gen     uint64
	unsub   docstore.Unsubscribe
	list    []types.Bookmark
	present map[string]bool
	loading bool
	err     error
}

// NewBookmarks returns a synchronizer with no user.
func NewBookmarks(store DocumentStore, log logging.Logger, fb feedback.Notifier) *Bookmarks {
	if log == nil {
		log = logging.Discard()
	}
	if fb == nil {
		fb = feedback.Nop{}
	}
	return &Bookmarks{
		store:   store,
		log:     log.With("component", "bookmarks"),
		fb:      fb,
		present: map[string]bool{},
	}
}

// SetUser switches the mirrored user. The subscription lives until ctx is
// done or the user changes. An empty uid signs out: the subscription is
// released and all state cleared before SetUser returns.
func (b *Bookmarks) SetUser(ctx context.Context, uid string) {
	b.mu.Lock()
	b.stopLocked()
	b.uid = uid
	b.list = nil
	b.present = map[string]bool{}
	b.err = nil
	b.loading = uid != ""
	gen := b.gen
	b.mu.Unlock()

	if uid != "" {
		b.subscribe(ctx, uid, gen)
	}
}

// Retry restarts the subscription after a SyncError.
func (b *Bookmarks) Retry(ctx context.Context) {
	b.mu.Lock()
	uid := b.uid
	if uid == "" {
		b.mu.Unlock()
		return
	}
	b.stopLocked()
	b.err = nil
	b.loading = true
	gen := b.gen
	b.mu.Unlock()

	b.subscribe(ctx, uid, gen)
}

// Close releases the subscription.
func (b *Bookmarks) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
}

// stopLocked ends the current subscription and invalidates its callbacks.
func (b *Bookmarks) stopLocked() {
	b.gen++
	if b.unsub != nil {
		b.unsub()
		b.unsub = nil
	}
}

func (b *Bookmarks) subscribe(ctx context.Context, uid string, gen uint64) {
	q := docstore.Query{
		Collection: docstore.UserCollection(uid, bookmarksCollection),
		OrderBy:    "savedAt",
		Desc:       true,
	}
	unsub := b.store.Subscribe(ctx, q,
		func(docs []docstore.Document) { b.onSnapshot(gen, docs) },
		func(err error) { b.onError(ctx, gen, err) },
	)

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen {
		unsub()
		return
	}
	b.unsub = unsub
}

func (b *Bookmarks) onSnapshot(gen uint64, docs []docstore.Document) {
	list := make([]types.Bookmark, 0, len(docs))
	present := make(map[string]bool, len(docs))
	for _, d := range docs {
		bm := bookmarkFromDocument(d)
		present[bm.ID] = true
		list = append(list, bm)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen {
		return
	}
	b.list = list
	b.present = present
	b.loading = false
	b.err = nil
}

func (b *Bookmarks) onError(ctx context.Context, gen uint64, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen {
		return
	}
	b.log.Error(ctx, "bookmarks listener failed", "error", err)
	b.unsub = nil
	b.loading = false
	b.err = &SyncError{Collection: bookmarksCollection, Message: "Unable to load saved papers.", Err: err}
}

// Toggle removes the paper's bookmark if it exists and saves one otherwise.
// It reports whether the paper is bookmarked afterwards.
func (b *Bookmarks) Toggle(ctx context.Context, paper types.Paper) (bool, error) {
	id := arxivid.Normalize(paper.ID)

	b.mu.Lock()
	uid := b.uid
	present := b.present[id]
	b.mu.Unlock()

	if uid == "" {
		return false, ErrAuthRequired
	}
	if id == "" {
		return false, &ValidationError{Message: "Unable to update bookmark. Missing paper identifier."}
	}

	coll := docstore.UserCollection(uid, bookmarksCollection)
	var err error
	if present {
		err = b.store.Delete(ctx, coll, id)
	} else {
		err = b.store.Set(ctx, coll, id, BookmarkPayload(paper), true)
	}
	if err != nil {
		b.log.Error(ctx, "bookmark toggle failed", "id", id, "error", err)
		b.fb.Notify(feedback.Error)
		return present, fmt.Errorf("updating bookmark %s: %w", id, err)
	}

	b.log.Info(ctx, "bookmark toggled", "id", id, "saved", !present)
	b.fb.Notify(feedback.Success)
	return !present, nil
}

// IsBookmarked reports whether the paper with id is saved. Any identifier
// form is accepted.
func (b *Bookmarks) IsBookmarked(id string) bool {
	id = arxivid.Normalize(id)
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.present[id]
}

// List returns the saved papers, newest first.
func (b *Bookmarks) List() []types.Bookmark {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]types.Bookmark(nil), b.list...)
}

// Filter returns the saved papers whose title, authors, summary or tags
// contain term, ignoring case.
func (b *Bookmarks) Filter(term string) []types.Bookmark {
	term = strings.ToLower(strings.TrimSpace(term))
	all := b.List()
	if term == "" {
		return all
	}
	var out []types.Bookmark
	for _, bm := range all {
		if matches(bm.Paper, term) {
			out = append(out, bm)
		}
	}
	return out
}

func matches(p types.Paper, term string) bool {
	fields := append([]string{p.Title, p.Authors, p.Summary}, p.Tags...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// Loading reports whether the first snapshot is still pending.
func (b *Bookmarks) Loading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loading
}

// Err returns the current *SyncError, or nil.
func (b *Bookmarks) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// BookmarkPayload builds the sanitized document stored for paper. Empty
// optional link attributes are dropped and the save time is assigned by
// the store.
func BookmarkPayload(paper types.Paper) map[string]any {
	id := arxivid.Normalize(paper.ID)
	baseLink := firstNonEmpty(paper.Link, arxivid.AbsURL(id))

	tags := make([]any, 0, len(paper.Tags))
	for _, t := range paper.Tags {
		if t != "" {
			tags = append(tags, t)
		}
	}
	links := make([]any, 0, len(paper.Links))
	for _, l := range paper.Links {
		if l.Href == "" {
			continue
		}
		links = append(links, map[string]any{
			"href":  l.Href,
			"rel":   sanitize.OrUndefined(l.Rel),
			"title": sanitize.OrUndefined(l.Title),
			"type":  sanitize.OrUndefined(l.Type),
		})
	}

	return sanitize.Map(map[string]any{
		"id":         id,
		"title":      paper.Title,
		"authors":    paper.Authors,
		"summary":    paper.Summary,
		"comments":   paper.Comments,
		"journalRef": paper.JournalRef,
		"doi":        paper.DOI,
		"links":      links,
		"tags":       tags,
		"date":       paper.Date,
		"link":       baseLink,
		"pdfLink":    arxivid.PDFURL(firstNonEmpty(paper.PDFLink, baseLink)),
		"savedAt":    docstore.ServerTimestamp(),
	})
}

// bookmarkFromDocument rebuilds a stored bookmark in the shape of a feed
// result, filling in links the document may lack.
func bookmarkFromDocument(d docstore.Document) types.Bookmark {
	data := d.Data
	id := arxivid.Normalize(firstNonEmpty(stringField(data, "id"), d.ID))
	fallback := arxivid.AbsURL(id)
	link := firstNonEmpty(stringField(data, "link"), fallback)

	var tags []string
	if raw, ok := data["tags"].([]any); ok {
		for _, t := range raw {
			if s, ok := t.(string); ok && s != "" {
				tags = append(tags, s)
			}
		}
	}
	if tags == nil {
		tags = []string{}
	}

	var links []types.Link
	if raw, ok := data["links"].([]any); ok {
		for _, l := range raw {
			m, ok := l.(map[string]any)
			if !ok {
				continue
			}
			links = append(links, types.Link{
				Href:  stringField(m, "href"),
				Rel:   stringField(m, "rel"),
				Title: stringField(m, "title"),
				Type:  stringField(m, "type"),
			})
		}
	}

	return types.Bookmark{
		Paper: types.Paper{
			ID:         id,
			Title:      stringField(data, "title"),
			Authors:    stringField(data, "authors"),
			Summary:    stringField(data, "summary"),
			Comments:   stringField(data, "comments"),
			JournalRef: stringField(data, "journalRef"),
			DOI:        stringField(data, "doi"),
			Links:      links,
			Tags:       tags,
			Date:       stringField(data, "date"),
			Link:       link,
			PDFLink:    arxivid.PDFURL(firstNonEmpty(stringField(data, "pdfLink"), link)),
		},
		SavedAt: timeField(data, "savedAt"),
	}
}
