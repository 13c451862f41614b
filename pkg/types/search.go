// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Sort fields and directions understood by the feed.
const (
	SortByRelevance     = "relevance"
	SortBySubmittedDate = "submittedDate"
	SortByLastUpdated   = "lastUpdatedDate"

	SortAscending  = "ascending"
	SortDescending = "descending"
)

// Category is a browsable feed category shown in the sidebar.
type Category struct {
	Label        string `json:"label" yaml:"label"`
	SidebarLabel string `json:"sidebar_label" yaml:"sidebar_label"`

	// Query is the feed search expression for the category (e.g. "cat:cs.AI").
	Query string `json:"query" yaml:"query"`
}

// SortOption is one entry of the sort menu.
type SortOption struct {
	ID        string `json:"id" yaml:"id"`
	Label     string `json:"label" yaml:"label"`
	SortBy    string `json:"sort_by" yaml:"sort_by"`
	SortOrder string `json:"sort_order" yaml:"sort_order"`
}

// SortPreference is the remembered sort for one category.
type SortPreference struct {
	SortBy    string `json:"sort_by" yaml:"sort_by"`
	SortOrder string `json:"sort_order" yaml:"sort_order"`
}

// SortPreferences maps a category label to its remembered sort. Entries are
// created lazily on first visit and live only for the process lifetime.
type SortPreferences map[string]SortPreference

// Get returns the preference for label, storing and returning def when the
// category has not been visited yet.
func (p SortPreferences) Get(label string, def SortPreference) SortPreference {
	if pref, ok := p[label]; ok {
		return pref
	}
	p[label] = def
	return def
}

// Set overwrites the preference for label.
func (p SortPreferences) Set(label string, pref SortPreference) {
	p[label] = pref
}

// SearchState is the active browsing context.
type SearchState struct {
	// Query is the feed search expression or category expression.
	Query string `json:"query" yaml:"query"`

	SortBy    string `json:"sort_by" yaml:"sort_by"`
	SortOrder string `json:"sort_order" yaml:"sort_order"`

	// ResultOffset equals the number of loaded papers when no fetch is in flight.
	ResultOffset int `json:"result_offset" yaml:"result_offset"`

	// HasMore is false whenever the last page returned fewer papers than the page size.
	HasMore bool `json:"has_more" yaml:"has_more"`

	// IsSearchMode distinguishes a free search from a category browse.
	IsSearchMode bool `json:"is_search_mode" yaml:"is_search_mode"`
}
