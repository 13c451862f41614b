// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docstore

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/parchment/internal/database"
	"github.com/pdiddy/parchment/internal/sanitize"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// stepClock returns fixedNow advanced by one second per call.
func stepClock() func() time.Time {
	var mu sync.Mutex
	n := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fixedNow.Add(time.Duration(n) * time.Second)
	}
}

// forEachBackend runs fn against a fresh SQLite store and a fresh memory
// store.
func forEachBackend(t *testing.T, fn func(t *testing.T, s *Store)) {
	t.Run("sqlite", func(t *testing.T) {
		db, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "docs.db"))
		require.NoError(t, err)
		s := NewSQLite(db, Options{Clock: stepClock(), Rules: DefaultRules()})
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
	t.Run("memory", func(t *testing.T) {
		s := NewMemory(Options{Clock: stepClock(), Rules: DefaultRules()})
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
}

// snapshots collects every snapshot a subscription delivers.
type snapshots struct {
	mu   sync.Mutex
	all  [][]Document
	errs []error
}

func (c *snapshots) onData(docs []Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.all = append(c.all, docs)
}

func (c *snapshots) onError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

func (c *snapshots) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.all)
}

func (c *snapshots) lastIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	last := c.all[len(c.all)-1]
	ids := make([]string, len(last))
	for i, d := range last {
		ids[i] = d.ID
	}
	return ids
}

func TestSetGetAndMerge(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		coll := UserCollection("u1", "bookmarks")

		require.NoError(t, s.Set(ctx, coll, "2401.12345", map[string]any{
			"title": "Attention", "meta": map[string]any{"a": 1, "b": 2},
		}, false))
		require.NoError(t, s.Set(ctx, coll, "2401.12345", map[string]any{
			"summary": "S", "meta": map[string]any{"b": DeleteField(), "c": 3},
		}, true))

		doc, err := s.Get(ctx, coll, "2401.12345")
		require.NoError(t, err)
		assert.Equal(t, "Attention", doc["title"])
		assert.Equal(t, "S", doc["summary"])
		assert.Equal(t, map[string]any{"a": float64(1), "c": float64(3)}, doc["meta"])

		require.NoError(t, s.Set(ctx, coll, "2401.12345", map[string]any{"title": "Replaced"}, false))
		doc, err = s.Get(ctx, coll, "2401.12345")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"title": "Replaced"}, doc)
	})
}

func TestGetMissing(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		_, err := s.Get(context.Background(), "users/u1/bookmarks", "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestOldStyleIDWithSlash(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		coll := UserCollection("u1", "bookmarks")
		require.NoError(t, s.Set(ctx, coll, "hep-th/9901001", map[string]any{"id": "hep-th/9901001"}, false))

		doc, err := s.Get(ctx, coll, "hep-th/9901001")
		require.NoError(t, err)
		assert.Equal(t, "hep-th/9901001", doc["id"])
	})
}

func TestServerTimestamp(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "c", "1", map[string]any{"savedAt": ServerTimestamp()}, false))

		doc, err := s.Get(ctx, "c", "1")
		require.NoError(t, err)
		ts, err := time.Parse(time.RFC3339Nano, doc["savedAt"].(string))
		require.NoError(t, err)
		assert.True(t, ts.After(fixedNow))
	})
}

func TestUpdate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		err := s.Update(ctx, "c", "missing", map[string]any{"x": 1})
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, s.Set(ctx, "c", "1", map[string]any{"x": 1, "y": 2, "m": map[string]any{"k": 1}}, false))
		require.NoError(t, s.Update(ctx, "c", "1", map[string]any{"x": 5, "y": DeleteField(), "m": map[string]any{"j": 2}}))

		doc, err := s.Get(ctx, "c", "1")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"x": float64(5), "m": map[string]any{"j": float64(2)}}, doc)
	})
}

func TestAddGeneratesIDs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		id1, err := s.Add(ctx, "c", map[string]any{"n": 1})
		require.NoError(t, err)
		id2, err := s.Add(ctx, "c", map[string]any{"n": 2})
		require.NoError(t, err)
		assert.NotEqual(t, id1, id2)
		assert.Len(t, id1, 36)
	})
}

func TestRejectsUnsupportedValues(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		err := s.Set(ctx, "c", "1", map[string]any{"links": []any{map[string]any{"title": sanitize.Undefined}}}, true)
		assert.ErrorIs(t, err, ErrUnsupportedValue)

		err = s.Set(ctx, "c", "1", map[string]any{"x": DeleteField()}, false)
		assert.ErrorIs(t, err, ErrUnsupportedValue)

		err = s.Set(ctx, "c", "", map[string]any{"x": 1}, false)
		assert.ErrorIs(t, err, ErrUnsupportedValue)

		_, err = s.Get(ctx, "c", "1")
		assert.ErrorIs(t, err, ErrNotFound, "rejected writes leave nothing behind")
	})
}

func TestListTagRule(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		lists := UserCollection("u1", "lists")

		err := s.Set(ctx, lists, "l1", map[string]any{
			"name": "ML",
			"tags": []any{map[string]any{"id": "cs.LG", "name": "Machine Learning", "sidebarLabel": "CS.LG"}},
		}, false)
		assert.ErrorIs(t, err, ErrPermissionDenied)

		err = s.Set(ctx, lists, "l1", map[string]any{
			"name": "ML",
			"tags": []map[string]any{{"id": "cs.LG", "name": "Machine Learning"}},
		}, false)
		assert.NoError(t, err)

		// Other collections are not restricted.
		err = s.Set(ctx, UserCollection("u1", "bookmarks"), "x", map[string]any{
			"tags": []any{map[string]any{"anything": true}},
		}, false)
		assert.NoError(t, err)
	})
}

func TestSubscribeOrdersAndUpdates(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		coll := UserCollection("u1", "bookmarks")

		require.NoError(t, s.Set(ctx, coll, "a", map[string]any{"savedAt": ServerTimestamp()}, false))
		require.NoError(t, s.Set(ctx, coll, "b", map[string]any{"savedAt": ServerTimestamp()}, false))
		require.NoError(t, s.Set(ctx, coll, "nodate", map[string]any{"title": "x"}, false))

		var snaps snapshots
		unsub := s.Subscribe(ctx, Query{Collection: coll, OrderBy: "savedAt", Desc: true}, snaps.onData, snaps.onError)
		defer unsub()

		require.Equal(t, 1, snaps.count(), "snapshot on subscribe")
		assert.Equal(t, []string{"b", "a"}, snaps.lastIDs(), "newest first, documents without the field omitted")

		require.NoError(t, s.Set(ctx, coll, "c", map[string]any{"savedAt": ServerTimestamp()}, false))
		assert.Equal(t, 2, snaps.count())
		assert.Equal(t, []string{"c", "b", "a"}, snaps.lastIDs())

		require.NoError(t, s.Delete(ctx, coll, "b"))
		assert.Equal(t, []string{"c", "a"}, snaps.lastIDs())

		// Writes elsewhere do not notify.
		require.NoError(t, s.Set(ctx, UserCollection("u2", "bookmarks"), "z", map[string]any{"savedAt": ServerTimestamp()}, false))
		assert.Equal(t, 3, snaps.count())
	})
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		var snaps snapshots
		unsub := s.Subscribe(ctx, Query{Collection: "c"}, snaps.onData, snaps.onError)
		unsub()
		unsub()

		require.NoError(t, s.Set(ctx, "c", "1", map[string]any{"x": 1}, false))
		assert.Equal(t, 1, snaps.count())
	})
}

func TestSubscribeEndsWithContext(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx, cancel := context.WithCancel(context.Background())
		var snaps snapshots
		s.Subscribe(ctx, Query{Collection: "c"}, snaps.onData, snaps.onError)
		cancel()

		assert.Eventually(t, func() bool {
			s.mu.Lock()
			defer s.mu.Unlock()
			return len(s.subs["c"]) == 0
		}, time.Second, 5*time.Millisecond)

		require.NoError(t, s.Set(context.Background(), "c", "1", map[string]any{"x": 1}, false))
		assert.Equal(t, 1, snaps.count())
	})
}

func TestDeleteTree(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		bookmarks := UserCollection("u1", "bookmarks")
		require.NoError(t, s.Set(ctx, bookmarks, "a", map[string]any{"x": 1}, false))
		require.NoError(t, s.Set(ctx, UserCollection("u1", "lists"), "l", map[string]any{"name": "n"}, false))
		require.NoError(t, s.Set(ctx, UserCollection("u10", "bookmarks"), "a", map[string]any{"x": 1}, false))

		var snaps snapshots
		unsub := s.Subscribe(ctx, Query{Collection: bookmarks}, snaps.onData, snaps.onError)
		defer unsub()

		require.NoError(t, s.DeleteTree(ctx, UserRoot("u1")))

		_, err := s.Get(ctx, bookmarks, "a")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.Get(ctx, UserCollection("u1", "lists"), "l")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.Get(ctx, UserCollection("u10", "bookmarks"), "a")
		assert.NoError(t, err, "sibling user untouched")

		assert.Equal(t, 2, snaps.count())
		assert.Empty(t, snaps.lastIDs())
	})
}

func TestClose(t *testing.T) {
	s := NewMemory(Options{})
	var snaps snapshots
	s.Subscribe(context.Background(), Query{Collection: "c"}, snaps.onData, snaps.onError)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Set(context.Background(), "c", "1", map[string]any{}, false), ErrClosed)
	_, err := s.Get(context.Background(), "c", "1")
	assert.ErrorIs(t, err, ErrClosed)

	s.Subscribe(context.Background(), Query{Collection: "c"}, snaps.onData, snaps.onError)
	assert.Equal(t, []error{ErrClosed}, snaps.errs)
}

func TestCompareValues(t *testing.T) {
	assert.Equal(t, -1, compareValues("2024-01-01T00:00:00Z", "2024-01-02T00:00:00Z"))
	assert.Equal(t, 1, compareValues("2024-01-01T00:00:00.5Z", "2024-01-01T00:00:00Z"), "fractional seconds compare as time")
	assert.Equal(t, -1, compareValues(float64(1), float64(2)))
	assert.Equal(t, 0, compareValues("b", "b"))
}
