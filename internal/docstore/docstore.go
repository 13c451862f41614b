// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docstore is a small document database with live queries. Documents
// are JSON objects addressed by a collection path and an ID, for example
// collection "users/u1/bookmarks" and ID "2401.12345". Subscribers to a
// collection receive a full snapshot when they subscribe and again after
// every write that touches the collection.
//
// Two backends are provided: SQLite (NewSQLite) and in-memory (NewMemory).
// Both share validation, sentinel resolution, access rules and
// notification, which live in Store.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/parchment/internal/logging"
	"github.com/pdiddy/parchment/internal/sanitize"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrUnsupportedValue is returned for payloads the store cannot
	// persist, such as sanitize.Undefined.
	ErrUnsupportedValue = errors.New("unsupported field value")

	// ErrPermissionDenied is returned when a write violates a Rule.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("store closed")
)

// Document is one stored document.
type Document struct {
	ID   string
	Data map[string]any
}

// Query selects every document of a collection, ordered by one field.
// Documents that lack the OrderBy field are omitted, as are ties broken by
// ID. An empty OrderBy orders by ID alone.
type Query struct {
	Collection string
	OrderBy    string
	Desc       bool
}

// Unsubscribe stops a subscription. Calling it more than once is harmless.
type Unsubscribe func()

// Options configure a Store.
type Options struct {
	// Clock resolves ServerTimestamp sentinels. Defaults to time.Now.
	Clock func() time.Time
	// Rules are checked against the resulting document on every write.
	Rules  []Rule
	Logger logging.Logger
}

// record is a stored document in its encoded form.
type record struct {
	id   string
	data []byte
}

// backend persists encoded documents. Implementations need not be safe for
// concurrent use; Store serializes access.
type backend interface {
	get(ctx context.Context, collection, id string) ([]byte, bool, error)
	put(ctx context.Context, collection, id string, data []byte, at time.Time) error
	delete(ctx context.Context, collection, id string) error
	list(ctx context.Context, collection string) ([]record, error)
	collections(ctx context.Context, prefix string) ([]string, error)
	deleteTree(ctx context.Context, prefix string) error
	close() error
}

type subscription struct {
	id      uint64
	query   Query
	onData  func([]Document)
	onError func(error)

	// deliverMu orders deliveries so a subscriber never sees an older
	// snapshot after a newer one.
	deliverMu sync.Mutex
	active    atomic.Bool
}

// Store is safe for concurrent use. Callbacks run synchronously in the
// goroutine that subscribed or wrote, outside the store's locks. A callback
// may unsubscribe but must not write to the store it is subscribed to.
type Store struct {
	backend backend
	clock   func() time.Time
	rules   []Rule
	log     logging.Logger

	// dbMu serializes backend access.
	dbMu sync.Mutex

	mu     sync.Mutex
	subs   map[string]map[uint64]*subscription
	nextID uint64
	closed bool
}

func newStore(b backend, opts Options) *Store {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Store{
		backend: b,
		clock:   opts.Clock,
		rules:   opts.Rules,
		log:     opts.Logger.With("component", "docstore"),
		subs:    make(map[string]map[uint64]*subscription),
	}
}

// UserCollection returns the path of a per-user collection, e.g.
// "users/u1/bookmarks".
func UserCollection(uid, name string) string {
	return "users/" + uid + "/" + name
}

// UserRoot returns the prefix holding every collection of a user.
func UserRoot(uid string) string {
	return "users/" + uid
}

// Get returns the document, or ErrNotFound.
func (s *Store) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	s.dbMu.Lock()
	raw, ok, err := s.backend.get(ctx, collection, id)
	s.dbMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("reading %s/%s: %w", collection, id, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return decode(raw)
}

// Set writes a document. With merge the fields of data are merged into any
// existing document, nested maps included, and DeleteField removes a key.
// Without merge the document is replaced.
func (s *Store) Set(ctx context.Context, collection, id string, data map[string]any, merge bool) error {
	if err := s.validate(collection, id, data); err != nil {
		return err
	}
	if !merge && containsDelete(data) {
		return fmt.Errorf("delete sentinel requires merge: %w", ErrUnsupportedValue)
	}
	err := s.write(ctx, collection, id, func(existing map[string]any, found bool) (map[string]any, error) {
		doc := map[string]any{}
		if merge && found {
			doc = existing
		}
		mergeInto(doc, s.resolve(data))
		return doc, nil
	})
	if err != nil {
		return err
	}
	s.notify(ctx, collection)
	return nil
}

// Update replaces the given top-level fields of an existing document. It
// returns ErrNotFound when the document does not exist.
func (s *Store) Update(ctx context.Context, collection, id string, data map[string]any) error {
	if err := s.validate(collection, id, data); err != nil {
		return err
	}
	err := s.write(ctx, collection, id, func(existing map[string]any, found bool) (map[string]any, error) {
		if !found {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
		}
		for k, v := range s.resolve(data) {
			if isDelete(v) {
				delete(existing, k)
				continue
			}
			if m, ok := v.(map[string]any); ok {
				fresh := map[string]any{}
				mergeInto(fresh, m)
				v = fresh
			}
			existing[k] = v
		}
		return existing, nil
	})
	if err != nil {
		return err
	}
	s.notify(ctx, collection)
	return nil
}

// Add creates a document with a generated ID and returns the ID.
func (s *Store) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collection, id, data, false); err != nil {
		return "", err
	}
	return id, nil
}

// Delete removes a document. Deleting a missing document succeeds.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("empty document id: %w", ErrUnsupportedValue)
	}
	s.dbMu.Lock()
	err := s.backend.delete(ctx, collection, id)
	s.dbMu.Unlock()
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	s.log.Debug(ctx, "deleted document", "collection", collection, "id", id)
	s.notify(ctx, collection)
	return nil
}

// DeleteTree removes every document in prefix and in the collections
// nested below it.
func (s *Store) DeleteTree(ctx context.Context, prefix string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	prefix = strings.TrimSuffix(prefix, "/")
	s.dbMu.Lock()
	colls, err := s.backend.collections(ctx, prefix)
	if err == nil {
		err = s.backend.deleteTree(ctx, prefix)
	}
	s.dbMu.Unlock()
	if err != nil {
		return fmt.Errorf("deleting tree %s: %w", prefix, err)
	}
	s.log.Info(ctx, "deleted document tree", "prefix", prefix, "collections", len(colls))
	for _, c := range colls {
		s.notify(ctx, c)
	}
	return nil
}

// Subscribe delivers a snapshot of q to onData now and after every later
// write to the collection. If reading a snapshot fails, onError is called
// once and the subscription ends. The subscription also ends when ctx is
// done.
func (s *Store) Subscribe(ctx context.Context, q Query, onData func([]Document), onError func(error)) Unsubscribe {
	if onError == nil {
		onError = func(error) {}
	}
	sub := &subscription{query: q, onData: onData, onError: onError}
	sub.active.Store(true)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		onError(ErrClosed)
		return func() {}
	}
	s.nextID++
	sub.id = s.nextID
	if s.subs[q.Collection] == nil {
		s.subs[q.Collection] = make(map[uint64]*subscription)
	}
	s.subs[q.Collection][sub.id] = sub
	s.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			s.remove(sub)
		})
	}
	stop := context.AfterFunc(ctx, unsub)

	s.deliver(ctx, sub)
	return func() {
		stop()
		unsub()
	}
}

// Close releases the backend and drops every subscription.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for _, subs := range s.subs {
		for _, sub := range subs {
			sub.active.Store(false)
		}
	}
	s.subs = nil
	s.mu.Unlock()

	s.dbMu.Lock()
	defer s.dbMu.Unlock()
	return s.backend.close()
}

func (s *Store) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *Store) validate(collection, id string, data map[string]any) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if collection == "" || id == "" {
		return fmt.Errorf("empty document path %q/%q: %w", collection, id, ErrUnsupportedValue)
	}
	if sanitize.Contains(data) {
		return fmt.Errorf("%s/%s contains an undefined value: %w", collection, id, ErrUnsupportedValue)
	}
	return nil
}

// write applies fn to the current document under the backend lock, checks
// the rules against the result and stores it.
func (s *Store) write(ctx context.Context, collection, id string, fn func(existing map[string]any, found bool) (map[string]any, error)) error {
	s.dbMu.Lock()
	defer s.dbMu.Unlock()

	raw, found, err := s.backend.get(ctx, collection, id)
	if err != nil {
		return fmt.Errorf("reading %s/%s: %w", collection, id, err)
	}
	existing := map[string]any{}
	if found {
		if existing, err = decode(raw); err != nil {
			return err
		}
	}

	doc, err := fn(existing, found)
	if err != nil {
		return err
	}
	for _, r := range s.rules {
		if err := r.check(collection, doc); err != nil {
			return fmt.Errorf("%s/%s: %w", collection, id, err)
		}
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding %s/%s: %w", collection, id, err)
	}
	if err := s.backend.put(ctx, collection, id, encoded, s.clock()); err != nil {
		return fmt.Errorf("writing %s/%s: %w", collection, id, err)
	}
	s.log.Debug(ctx, "wrote document", "collection", collection, "id", id)
	return nil
}

func (s *Store) remove(sub *subscription) {
	sub.active.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	if subs := s.subs[sub.query.Collection]; subs != nil {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(s.subs, sub.query.Collection)
		}
	}
}

func (s *Store) notify(ctx context.Context, collection string) {
	s.mu.Lock()
	var targets []*subscription
	for _, sub := range s.subs[collection] {
		targets = append(targets, sub)
	}
	s.mu.Unlock()

	sort.Slice(targets, func(i, j int) bool { return targets[i].id < targets[j].id })
	for _, sub := range targets {
		s.deliver(ctx, sub)
	}
}

func (s *Store) deliver(ctx context.Context, sub *subscription) {
	sub.deliverMu.Lock()
	defer sub.deliverMu.Unlock()
	if !sub.active.Load() {
		return
	}

	docs, err := s.snapshot(ctx, sub.query)
	if err != nil {
		s.log.Warn(ctx, "subscription failed", "collection", sub.query.Collection, "error", err)
		s.remove(sub)
		sub.onError(err)
		return
	}
	if !sub.active.Load() {
		return
	}
	sub.onData(docs)
}

func (s *Store) snapshot(ctx context.Context, q Query) ([]Document, error) {
	s.dbMu.Lock()
	recs, err := s.backend.list(ctx, q.Collection)
	s.dbMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", q.Collection, err)
	}

	docs := make([]Document, 0, len(recs))
	for _, r := range recs {
		data, err := decode(r.data)
		if err != nil {
			return nil, err
		}
		if q.OrderBy != "" {
			if _, ok := data[q.OrderBy]; !ok {
				continue
			}
		}
		docs = append(docs, Document{ID: r.id, Data: data})
	}
	sortDocuments(docs, q)
	return docs, nil
}

func sortDocuments(docs []Document, q Query) {
	sort.SliceStable(docs, func(i, j int) bool {
		c := 0
		if q.OrderBy != "" {
			c = compareValues(docs[i].Data[q.OrderBy], docs[j].Data[q.OrderBy])
		}
		if c == 0 {
			c = strings.Compare(docs[i].ID, docs[j].ID)
		}
		if q.Desc {
			return c > 0
		}
		return c < 0
	})
}

// compareValues orders decoded JSON values. Strings that both parse as
// timestamps compare chronologically.
func compareValues(a, b any) int {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			at, aerr := time.Parse(time.RFC3339Nano, av)
			bt, berr := time.Parse(time.RFC3339Nano, bv)
			if aerr == nil && berr == nil {
				return at.Compare(bt)
			}
			return strings.Compare(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func decode(raw []byte) (map[string]any, error) {
	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return doc, nil
}

// mergeInto merges src into dst. Nested maps merge recursively and
// DeleteField removes the key.
func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		if isDelete(v) {
			delete(dst, k)
			continue
		}
		if sm, ok := v.(map[string]any); ok {
			dm, ok := dst[k].(map[string]any)
			if !ok {
				dm = map[string]any{}
			}
			mergeInto(dm, sm)
			dst[k] = dm
			continue
		}
		dst[k] = v
	}
}
