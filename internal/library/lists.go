// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pdiddy/parchment/internal/docstore"
	"github.com/pdiddy/parchment/internal/feedback"
	"github.com/pdiddy/parchment/internal/logging"
	"github.com/pdiddy/parchment/internal/sanitize"
	"github.com/pdiddy/parchment/pkg/types"
)

// ErrListNotFound is returned by SetActive for an unknown list.
var ErrListNotFound = errors.New("list not found")

// Lists mirrors users/{uid}/lists, newest first, and tracks which list is
// being browsed.
type Lists struct {
	store           DocumentStore
	log             logging.Logger
	fb              feedback.Notifier
	onActiveCleared func()

	mu      sync.Mutex
	uid     string
	gen     uint64
	unsub   docstore.Unsubscribe
	lists   []types.UserList
	active  *types.UserList
	loading bool
	err     error
}

// NewLists returns a synchronizer with no user. onActiveCleared, if set,
// is called when the active list is deleted or disappears from the store.
func NewLists(store DocumentStore, log logging.Logger, fb feedback.Notifier, onActiveCleared func()) *Lists {
	if log == nil {
		log = logging.Discard()
	}
	if fb == nil {
		fb = feedback.Nop{}
	}
	if onActiveCleared == nil {
		onActiveCleared = func() {}
	}
	return &Lists{
		store:           store,
		log:             log.With("component", "lists"),
		fb:              fb,
		onActiveCleared: onActiveCleared,
	}
}

// SetUser switches the mirrored user; see Bookmarks.SetUser.
func (l *Lists) SetUser(ctx context.Context, uid string) {
	l.mu.Lock()
	l.stopLocked()
	l.uid = uid
	l.lists = nil
	l.active = nil
	l.err = nil
	l.loading = uid != ""
	gen := l.gen
	l.mu.Unlock()

	if uid != "" {
		l.subscribe(ctx, uid, gen)
	}
}

// Retry restarts the subscription after a SyncError.
func (l *Lists) Retry(ctx context.Context) {
	l.mu.Lock()
	uid := l.uid
	if uid == "" {
		l.mu.Unlock()
		return
	}
	l.stopLocked()
	l.err = nil
	l.loading = true
	gen := l.gen
	l.mu.Unlock()

	l.subscribe(ctx, uid, gen)
}

// Close releases the subscription.
func (l *Lists) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
}

func (l *Lists) stopLocked() {
	l.gen++
	if l.unsub != nil {
		l.unsub()
		l.unsub = nil
	}
}

func (l *Lists) subscribe(ctx context.Context, uid string, gen uint64) {
	q := docstore.Query{
		Collection: docstore.UserCollection(uid, listsCollection),
		OrderBy:    "createdAt",
		Desc:       true,
	}
	unsub := l.store.Subscribe(ctx, q,
		func(docs []docstore.Document) { l.onSnapshot(gen, docs) },
		func(err error) { l.onError(ctx, gen, err) },
	)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		unsub()
		return
	}
	l.unsub = unsub
}

func (l *Lists) onSnapshot(gen uint64, docs []docstore.Document) {
	lists := make([]types.UserList, 0, len(docs))
	for _, d := range docs {
		lists = append(lists, listFromDocument(d))
	}

	l.mu.Lock()
	if gen != l.gen {
		l.mu.Unlock()
		return
	}
	l.lists = lists
	l.loading = false
	l.err = nil

	cleared := false
	if l.active != nil {
		if updated, ok := findList(lists, l.active.ID); ok {
			l.active = &updated
		} else {
			l.active = nil
			cleared = true
		}
	}
	l.mu.Unlock()

	if cleared {
		l.onActiveCleared()
	}
}

func (l *Lists) onError(ctx context.Context, gen uint64, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return
	}
	l.log.Error(ctx, "lists listener failed", "error", err)
	l.unsub = nil
	l.loading = false
	l.err = &SyncError{Collection: listsCollection, Message: "Unable to load your lists.", Err: err}
}

// All returns the user's lists, newest first.
func (l *Lists) All() []types.UserList {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]types.UserList(nil), l.lists...)
}

// Get returns the list with id.
func (l *Lists) Get(id string) (types.UserList, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return findList(l.lists, id)
}

// FindByName returns the list whose name matches, ignoring case and
// surrounding space.
func (l *Lists) FindByName(name string) (types.UserList, bool) {
	name = normalizeName(name)
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, list := range l.lists {
		if normalizeName(list.Name) == name {
			return list, true
		}
	}
	return types.UserList{}, false
}

// Active returns the list being browsed, if any.
func (l *Lists) Active() (types.UserList, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active == nil {
		return types.UserList{}, false
	}
	return *l.active, true
}

// SetActive selects the list with id for browsing. An empty id clears the
// selection.
func (l *Lists) SetActive(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id == "" {
		l.active = nil
		return nil
	}
	list, ok := findList(l.lists, id)
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrListNotFound)
	}
	l.active = &list
	l.fb.Notify(feedback.Light)
	return nil
}

// CanCreate reports whether a signed-in user is below the list cap.
func (l *Lists) CanCreate() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.uid != "" && len(l.lists) < types.MaxUserLists
}

// Loading reports whether the first snapshot is still pending.
func (l *Lists) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Err returns the current *SyncError, or nil.
func (l *Lists) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Save creates a list from form, or updates editing when it is non-nil,
// and returns the list ID. Validation failures return a *ValidationError
// and write nothing.
func (l *Lists) Save(ctx context.Context, form types.ListForm, editing *types.UserList) (string, error) {
	l.mu.Lock()
	uid := l.uid
	existing := append([]types.UserList(nil), l.lists...)
	l.mu.Unlock()

	if uid == "" {
		return "", ErrAuthRequired
	}
	name, err := validateList(form, editing, existing)
	if err != nil {
		return "", err
	}

	tags := make([]any, 0, len(form.Tags))
	for _, t := range form.Tags {
		tags = append(tags, map[string]any{"id": t.ID, "name": t.Name})
	}
	payload := map[string]any{"name": name, "tags": tags}
	if editing != nil {
		payload["updatedAt"] = docstore.ServerTimestamp()
	} else {
		payload["createdAt"] = docstore.ServerTimestamp()
	}
	payload = sanitize.Map(payload)

	coll := docstore.UserCollection(uid, listsCollection)
	id := ""
	if editing != nil {
		id = editing.ID
		err = l.store.Update(ctx, coll, id, payload)
	} else {
		id, err = l.store.Add(ctx, coll, payload)
	}
	if err != nil {
		l.log.Error(ctx, "saving list failed", "name", name, "error", err)
		l.fb.Notify(feedback.Error)
		return "", fmt.Errorf("saving list %q: %w", name, err)
	}

	l.log.Info(ctx, "list saved", "id", id, "name", name, "tags", len(tags), "created", editing == nil)
	l.fb.Notify(feedback.Success)
	return id, nil
}

// validateList checks form in order: name, cap, duplicate name, tags.
func validateList(form types.ListForm, editing *types.UserList, existing []types.UserList) (string, error) {
	name := strings.TrimSpace(form.Name)
	if name == "" {
		return "", &ValidationError{Message: "Please add a name for your list."}
	}
	if editing == nil && len(existing) >= types.MaxUserLists {
		return "", &ValidationError{Message: fmt.Sprintf("There can only be at most %d lists.", types.MaxUserLists)}
	}
	normalized := normalizeName(name)
	for _, list := range existing {
		if editing != nil && list.ID == editing.ID {
			continue
		}
		if normalizeName(list.Name) == normalized {
			return "", &ValidationError{Message: "You already have a list with that name."}
		}
	}
	if len(form.Tags) == 0 {
		return "", &ValidationError{Message: "Add at least one tag to your list."}
	}
	return name, nil
}

// Delete removes list after confirm approves. It reports whether the list
// was deleted; a declined confirmation is not an error.
func (l *Lists) Delete(ctx context.Context, list types.UserList, confirm Confirmer) (bool, error) {
	l.mu.Lock()
	uid := l.uid
	l.mu.Unlock()

	if uid == "" {
		return false, ErrAuthRequired
	}
	if list.ID == "" {
		return false, &ValidationError{Message: "No list selected."}
	}

	name := list.Name
	if name == "" {
		name = "this list"
	}
	if confirm != nil && !confirm.Confirm(fmt.Sprintf("Are you sure you want to delete %q?", name)) {
		return false, nil
	}

	if err := l.store.Delete(ctx, docstore.UserCollection(uid, listsCollection), list.ID); err != nil {
		l.log.Error(ctx, "deleting list failed", "id", list.ID, "error", err)
		l.fb.Notify(feedback.Error)
		return false, fmt.Errorf("deleting list %q: %w", name, err)
	}

	l.mu.Lock()
	cleared := l.active != nil && l.active.ID == list.ID
	if cleared {
		l.active = nil
	}
	l.mu.Unlock()
	if cleared {
		l.onActiveCleared()
	}

	l.log.Info(ctx, "list deleted", "id", list.ID)
	l.fb.Notify(feedback.Success)
	return true, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func findList(lists []types.UserList, id string) (types.UserList, bool) {
	for _, list := range lists {
		if list.ID == id {
			return list, true
		}
	}
	return types.UserList{}, false
}

func listFromDocument(d docstore.Document) types.UserList {
	var tags []types.ListTag
	if raw, ok := d.Data["tags"].([]any); ok {
		for _, t := range raw {
			m, ok := t.(map[string]any)
			if !ok {
				continue
			}
			tags = append(tags, types.ListTag{ID: stringField(m, "id"), Name: stringField(m, "name")})
		}
	}
	if tags == nil {
		tags = []types.ListTag{}
	}
	return types.UserList{
		ID:        d.ID,
		Name:      stringField(d.Data, "name"),
		Tags:      tags,
		CreatedAt: timeField(d.Data, "createdAt"),
		UpdatedAt: timeField(d.Data, "updatedAt"),
	}
}
