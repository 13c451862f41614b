// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/parchment/internal/docstore"
	"github.com/pdiddy/parchment/internal/feedback"
	"github.com/pdiddy/parchment/pkg/types"
)

var mlTags = []types.ListTag{{ID: "cs.LG", Name: "Machine Learning"}}

func newLists(t *testing.T) (*Lists, *faultyStore, *int) {
	t.Helper()
	store := newFaultyStore(t)
	cleared := 0
	l := NewLists(store, nil, nil, func() { cleared++ })
	l.SetUser(context.Background(), "u1")
	return l, store, &cleared
}

func requireValidation(t *testing.T, err error, contains string) {
	t.Helper()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Message, contains)
}

func TestSaveCreatesList(t *testing.T) {
	l, store, _ := newLists(t)
	ctx := context.Background()

	id, err := l.Save(ctx, types.ListForm{Name: "  Vision  ", Tags: []types.ListTag{{ID: "cs.CV", Name: "Computer Vision"}}}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	all := l.All()
	require.Len(t, all, 1)
	assert.Equal(t, id, all[0].ID)
	assert.Equal(t, "Vision", all[0].Name)
	assert.Equal(t, []types.ListTag{{ID: "cs.CV", Name: "Computer Vision"}}, all[0].Tags)
	assert.False(t, all[0].CreatedAt.IsZero())

	doc, err := store.Get(ctx, docstore.UserCollection("u1", "lists"), id)
	require.NoError(t, err)
	assert.Contains(t, doc, "createdAt")
	assert.NotContains(t, doc, "updatedAt")
}

func TestSaveValidationOrderWritesNothing(t *testing.T) {
	l, store, _ := newLists(t)
	ctx := context.Background()

	for i := 0; i < types.MaxUserLists; i++ {
		_, err := l.Save(ctx, types.ListForm{Name: fmt.Sprintf("List %d", i), Tags: mlTags}, nil)
		require.NoError(t, err)
	}
	writes := store.writeCount()
	assert.False(t, l.CanCreate())

	tests := []struct {
		name    string
		form    types.ListForm
		editing *types.UserList
		want    string
	}{
		{"blank name beats cap", types.ListForm{Name: "   ", Tags: mlTags}, nil, "name"},
		{"cap beats duplicate", types.ListForm{Name: "list 0", Tags: mlTags}, nil, "at most 5"},
		{"duplicate ignores case", types.ListForm{Name: "LIST 1"}, &types.UserList{ID: "other"}, "already have"},
		{"no tags", types.ListForm{Name: "Fresh"}, &types.UserList{ID: "other"}, "at least one tag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Save(ctx, tt.form, tt.editing)
			requireValidation(t, err, tt.want)
		})
	}
	assert.Equal(t, writes, store.writeCount(), "rejected saves never write")
	assert.Len(t, l.All(), types.MaxUserLists)
}

func TestSaveUpdatesList(t *testing.T) {
	l, _, _ := newLists(t)
	ctx := context.Background()

	id, err := l.Save(ctx, types.ListForm{Name: "ML", Tags: mlTags}, nil)
	require.NoError(t, err)
	list, ok := l.Get(id)
	require.True(t, ok)

	// Renaming to its own name in another case is not a duplicate.
	_, err = l.Save(ctx, types.ListForm{Name: "ml", Tags: append(mlTags, types.ListTag{ID: "stat.ML", Name: "Machine Learning"})}, &list)
	require.NoError(t, err)

	updated, ok := l.Get(id)
	require.True(t, ok)
	assert.Equal(t, "ml", updated.Name)
	assert.Len(t, updated.Tags, 2)
	assert.False(t, updated.UpdatedAt.IsZero())
	assert.Equal(t, list.CreatedAt, updated.CreatedAt)

	_, err = l.Save(ctx, types.ListForm{Name: "gone", Tags: mlTags}, &types.UserList{ID: "missing"})
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestSaveRequiresUser(t *testing.T) {
	store := newFaultyStore(t)
	l := NewLists(store, nil, nil, nil)
	_, err := l.Save(context.Background(), types.ListForm{Name: "ML", Tags: mlTags}, nil)
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.False(t, l.CanCreate())
}

func TestSaveFailureCue(t *testing.T) {
	store := newFaultyStore(t)
	rec := &feedback.Recorder{}
	l := NewLists(store, nil, rec, nil)
	l.SetUser(context.Background(), "u1")

	store.writeErr = errors.New("offline")
	_, err := l.Save(context.Background(), types.ListForm{Name: "ML", Tags: mlTags}, nil)
	require.Error(t, err)
	assert.Equal(t, feedback.Error, rec.Last())
}

func TestDeleteConfirmation(t *testing.T) {
	l, store, cleared := newLists(t)
	ctx := context.Background()

	id, err := l.Save(ctx, types.ListForm{Name: "ML", Tags: mlTags}, nil)
	require.NoError(t, err)
	list, _ := l.Get(id)
	require.NoError(t, l.SetActive(id))
	writes := store.writeCount()

	var prompt string
	deleted, err := l.Delete(ctx, list, ConfirmFunc(func(p string) bool { prompt = p; return false }))
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, `Are you sure you want to delete "ML"?`, prompt)
	assert.Equal(t, writes, store.writeCount())

	deleted, err = l.Delete(ctx, list, ConfirmFunc(func(string) bool { return true }))
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, l.All())

	_, ok := l.Active()
	assert.False(t, ok)
	assert.Equal(t, 1, *cleared, "active list cleared exactly once")
}

func TestActiveFollowsSnapshots(t *testing.T) {
	l, store, cleared := newLists(t)
	ctx := context.Background()

	id, err := l.Save(ctx, types.ListForm{Name: "ML", Tags: mlTags}, nil)
	require.NoError(t, err)
	require.NoError(t, l.SetActive(id))

	// Another client renames the list.
	coll := docstore.UserCollection("u1", "lists")
	require.NoError(t, store.Store.Update(ctx, coll, id, map[string]any{"name": "Renamed"}))
	active, ok := l.Active()
	require.True(t, ok)
	assert.Equal(t, "Renamed", active.Name)

	// Another client deletes it.
	require.NoError(t, store.Store.Delete(ctx, coll, id))
	_, ok = l.Active()
	assert.False(t, ok)
	assert.Equal(t, 1, *cleared)

	assert.ErrorIs(t, l.SetActive("missing"), ErrListNotFound)
}

func TestListsSyncError(t *testing.T) {
	store := newFaultyStore(t)
	store.subscribeErr = errors.New("boom")
	l := NewLists(store, nil, nil, nil)
	l.SetUser(context.Background(), "u1")

	var se *SyncError
	require.ErrorAs(t, l.Err(), &se)
	assert.Equal(t, "Unable to load your lists.", se.Message)
	assert.EqualError(t, se, "syncing lists: boom")

	store.subscribeErr = nil
	l.Retry(context.Background())
	assert.NoError(t, l.Err())
}

func TestFindByName(t *testing.T) {
	l, _, _ := newLists(t)
	_, err := l.Save(context.Background(), types.ListForm{Name: "Vision", Tags: mlTags}, nil)
	require.NoError(t, err)

	got, ok := l.FindByName("  vision ")
	require.True(t, ok)
	assert.Equal(t, "Vision", got.Name)
}
