// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package browse tracks the discover view: the active category or search,
// the per-category sort memory, and the paginated result list.
//
// A Session moves between four states:
//
//	Idle/Error        --LoadMore-->             LoadingMore
//	any               --new query/sort/category--> LoadingInitial
//	LoadingInitial/LoadingMore --failure-->     Error
//	LoadingInitial/LoadingMore --success-->     Idle
//
// An initial load replaces the result list and a load-more appends to it.
// Each request carries a generation number; a response whose generation
// has been superseded by a newer request is discarded.
package browse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pdiddy/parchment/internal/feed"
	"github.com/pdiddy/parchment/internal/feedback"
	"github.com/pdiddy/parchment/internal/logging"
	"github.com/pdiddy/parchment/internal/query"
	"github.com/pdiddy/parchment/pkg/types"
)

// State is the loading state of a Session.
type State int

const (
	Idle State = iota
	LoadingInitial
	LoadingMore
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case LoadingInitial:
		return "loading-initial"
	case LoadingMore:
		return "loading-more"
	case Failed:
		return "error"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Fetcher loads one page of papers. *feed.Client implements it.
type Fetcher interface {
	FetchPage(ctx context.Context, req feed.PageRequest) ([]types.Paper, error)
	PageSize() int
}

// ErrUnknownSort is returned by SetSort for an unrecognized option.
var ErrUnknownSort = errors.New("unknown sort option")

// View is a snapshot of a Session for rendering.
type View struct {
	State    State
	Category types.Category
	Search   types.SearchState
	Papers   []types.Paper

	// Error is the user-visible message of the last failure, if any.
	Error string
}

// Loading reports whether any fetch is in flight.
func (v View) Loading() bool {
	return v.State == LoadingInitial || v.State == LoadingMore
}

// Session is safe for concurrent use. The zero value is not usable; use
// NewSession.
type Session struct {
	fetcher  Fetcher
	log      logging.Logger
	fb       feedback.Notifier
	pageSize int

	mu            sync.Mutex
	state         State
	category      types.Category
	prefs         types.SortPreferences
	search        types.SearchState
	papers        []types.Paper
	errMsg        string
	failedInitial bool
	generation    uint64
}

// NewSession returns an idle session on the default category with no
// results loaded. Call Start to perform the first load.
func NewSession(f Fetcher, log logging.Logger, fb feedback.Notifier) *Session {
	if log == nil {
		log = logging.Discard()
	}
	if fb == nil {
		fb = feedback.Nop{}
	}
	cat := query.DefaultCategory()
	prefs := types.SortPreferences{}
	pref := prefs.Get(cat.Label, query.DefaultSort())
	return &Session{
		fetcher:  f,
		log:      log.With("component", "browse"),
		fb:       fb,
		pageSize: f.PageSize(),
		category: cat,
		prefs:    prefs,
		search: types.SearchState{
			Query:     cat.Query,
			SortBy:    pref.SortBy,
			SortOrder: pref.SortOrder,
			HasMore:   true,
		},
	}
}

// View returns a copy of the current state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		State:    s.state,
		Category: s.category,
		Search:   s.search,
		Papers:   append([]types.Paper(nil), s.papers...),
		Error:    s.errMsg,
	}
}

// SortPreference returns the remembered sort for a category label.
func (s *Session) SortPreference(label string) (types.SortPreference, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prefs[label]
	return p, ok
}

// Start loads the first page of the default category.
func (s *Session) Start(ctx context.Context) error {
	return s.SelectCategory(ctx, query.DefaultCategory())
}

// SelectCategory switches to browsing cat with its remembered sort,
// leaving search mode.
func (s *Session) SelectCategory(ctx context.Context, cat types.Category) error {
	s.mu.Lock()
	s.category = cat
	pref := s.prefs.Get(cat.Label, query.DefaultSort())
	s.mu.Unlock()

	return s.loadInitial(ctx, cat.Query, false, pref)
}

// BrowseList switches to the categories of a user list.
func (s *Session) BrowseList(ctx context.Context, list types.UserList) error {
	return s.SelectCategory(ctx, types.Category{
		Label:        list.Name,
		SidebarLabel: list.Name,
		Query:        query.ForList(list.Tags),
	})
}

// Search runs a free-text search sorted by relevance, which becomes the
// remembered sort of the active category. Empty input reloads the active
// category instead.
func (s *Session) Search(ctx context.Context, input string) error {
	if strings.TrimSpace(input) == "" {
		s.mu.Lock()
		cat := s.category
		pref := s.prefs.Get(cat.Label, query.DefaultSort())
		s.mu.Unlock()
		return s.loadInitial(ctx, cat.Query, false, pref)
	}
	s.fb.Notify(feedback.Medium)
	return s.searchExpr(ctx, query.Simple(input))
}

// AdvancedSearch runs the query built from form. It reports false without
// fetching when the form is empty.
func (s *Session) AdvancedSearch(ctx context.Context, form query.AdvancedForm) (bool, error) {
	expr, ok := query.Advanced(form)
	if !ok {
		return false, nil
	}
	s.fb.Notify(feedback.Medium)
	return true, s.searchExpr(ctx, expr)
}

func (s *Session) searchExpr(ctx context.Context, expr string) error {
	relevance, _ := query.SortOptionByID(query.SortRelevance)
	pref := types.SortPreference{SortBy: relevance.SortBy, SortOrder: relevance.SortOrder}

	s.mu.Lock()
	s.prefs.Set(s.category.Label, pref)
	s.mu.Unlock()

	return s.loadInitial(ctx, expr, true, pref)
}

// SetSort applies a sort option to the current query and remembers it for
// the active category.
func (s *Session) SetSort(ctx context.Context, optionID string) error {
	opt, ok := query.SortOptionByID(optionID)
	if !ok {
		return fmt.Errorf("%q: %w", optionID, ErrUnknownSort)
	}
	pref := types.SortPreference{SortBy: opt.SortBy, SortOrder: opt.SortOrder}

	s.mu.Lock()
	s.prefs.Set(s.category.Label, pref)
	q, isSearch := s.search.Query, s.search.IsSearchMode
	s.mu.Unlock()

	s.fb.Notify(feedback.Selection)
	return s.loadInitial(ctx, q, isSearch, pref)
}

// RestoreSort records a sort option for a category label without loading.
// It is used to apply a saved preference before the category is selected.
func (s *Session) RestoreSort(label, optionID string) error {
	opt, ok := query.SortOptionByID(optionID)
	if !ok {
		return fmt.Errorf("%q: %w", optionID, ErrUnknownSort)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.Set(label, types.SortPreference{SortBy: opt.SortBy, SortOrder: opt.SortOrder})
	return nil
}

// Refresh reloads the first page of the current query.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	q, isSearch := s.search.Query, s.search.IsSearchMode
	pref := types.SortPreference{SortBy: s.search.SortBy, SortOrder: s.search.SortOrder}
	s.mu.Unlock()

	return s.loadInitial(ctx, q, isSearch, pref)
}

// Retry repeats the request that last failed.
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()
	failedInitial := s.failedInitial
	s.mu.Unlock()

	if failedInitial {
		return s.Refresh(ctx)
	}
	return s.LoadMore(ctx)
}

func (s *Session) loadInitial(ctx context.Context, q string, isSearch bool, pref types.SortPreference) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.state = LoadingInitial
	s.errMsg = ""
	s.search.Query = q
	s.search.IsSearchMode = isSearch
	s.search.SortBy = pref.SortBy
	s.search.SortOrder = pref.SortOrder
	s.mu.Unlock()

	page, err := s.fetcher.FetchPage(ctx, feed.PageRequest{
		Query: q, SortBy: pref.SortBy, SortOrder: pref.SortOrder, Start: 0,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.log.Debug(ctx, "discarding stale page", "query", q)
		return nil
	}
	if err != nil {
		s.fail(ctx, err, true)
		return err
	}

	s.papers = page
	s.finish(len(page))
	s.log.Info(ctx, "loaded papers", "query", q, "count", len(page))
	return nil
}

// LoadMore appends the next page. It does nothing while a fetch is in
// flight or when the last page was short; callers should disable the
// trigger while View().Loading() is true.
func (s *Session) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.state == LoadingInitial || s.state == LoadingMore {
		s.mu.Unlock()
		return nil
	}
	if s.failedInitial && s.state == Failed {
		s.mu.Unlock()
		return s.Refresh(ctx)
	}
	if !s.search.HasMore {
		s.mu.Unlock()
		return nil
	}
	s.generation++
	gen := s.generation
	s.state = LoadingMore
	s.errMsg = ""
	req := feed.PageRequest{
		Query:     s.search.Query,
		SortBy:    s.search.SortBy,
		SortOrder: s.search.SortOrder,
		Start:     len(s.papers),
	}
	s.mu.Unlock()

	page, err := s.fetcher.FetchPage(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.log.Debug(ctx, "discarding stale page", "query", req.Query, "start", req.Start)
		return nil
	}
	if err != nil {
		s.fail(ctx, err, false)
		return err
	}

	s.papers = append(s.papers, page...)
	s.finish(len(page))
	s.log.Info(ctx, "loaded more papers", "query", req.Query, "start", req.Start, "count", len(page))
	return nil
}

// finish records a successful page of n papers. Caller holds s.mu.
func (s *Session) finish(n int) {
	s.state = Idle
	s.failedInitial = false
	s.search.ResultOffset = len(s.papers)
	s.search.HasMore = n >= s.pageSize
}

// fail records a failed fetch, keeping the papers already loaded. Caller
// holds s.mu.
func (s *Session) fail(ctx context.Context, err error, initial bool) {
	s.state = Failed
	s.failedInitial = initial
	s.errMsg = Message(err)
	s.log.Error(ctx, "fetch failed", "query", s.search.Query, "error", err)
	s.fb.Notify(feedback.Error)
}

// Message converts a pipeline error into the banner shown to the user.
func Message(err error) string {
	var fetchErr *feed.FetchError
	var formatErr *feed.FormatError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &formatErr):
		return "The paper feed returned an unexpected response. Please try again."
	case errors.As(err, &fetchErr):
		return "Failed to load papers. Check your connection."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "The request was cancelled. Please try again."
	}
	return "Failed to load papers."
}
