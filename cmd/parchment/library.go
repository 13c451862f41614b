// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"

	"github.com/pdiddy/parchment/internal/account"
	"github.com/pdiddy/parchment/internal/library"
)

// userLibrary is the signed-in user's bookmarks and lists, mirrored from
// the local store.
type userLibrary struct {
	app       *app
	session   account.Session
	bookmarks *library.Bookmarks
	lists     *library.Lists
}

// openLibrary opens the store and subscribes to the signed-in user's
// bookmarks and lists. It fails with library.ErrAuthRequired when no one is
// signed in.
func openLibrary(ctx context.Context) (*userLibrary, error) {
	a, err := openApp(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := currentSession(ctx, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	lib := &userLibrary{
		app:       a,
		session:   sess,
		bookmarks: library.NewBookmarks(a.docs, logger, cues),
	}
	lib.lists = library.NewLists(a.docs, logger, cues, func() {
		logger.Info(ctx, "active list removed; browsing the default category")
	})
	lib.bookmarks.SetUser(ctx, sess.UserID)
	lib.lists.SetUser(ctx, sess.UserID)

	if err := lib.bookmarks.Err(); err != nil {
		lib.Close()
		return nil, err
	}
	if err := lib.lists.Err(); err != nil {
		lib.Close()
		return nil, err
	}
	return lib, nil
}

func (l *userLibrary) Close() error {
	l.bookmarks.Close()
	l.lists.Close()
	return l.app.Close()
}

// bookmarkMarker returns a lookup of the signed-in user's bookmarks for
// marking results, and a func to release it. Without a session both are
// no-ops.
func bookmarkMarker(ctx context.Context) (func(id string) bool, func()) {
	lib, err := openLibrary(ctx)
	if err != nil {
		logger.Debug(ctx, "results not marked", "error", err)
		return nil, func() {}
	}
	return lib.bookmarks.IsBookmarked, func() { lib.Close() }
}
