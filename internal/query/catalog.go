// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import "github.com/pdiddy/parchment/pkg/types"

// Sort option identifiers.
const (
	SortRelevance = "relevance"
	SortNewest    = "newest"
	SortOldest    = "oldest"
)

var sortOptions = []types.SortOption{
	{ID: SortRelevance, Label: "Relevance", SortBy: types.SortByRelevance, SortOrder: types.SortDescending},
	{ID: SortNewest, Label: "Newest", SortBy: types.SortBySubmittedDate, SortOrder: types.SortDescending},
	{ID: SortOldest, Label: "Oldest", SortBy: types.SortBySubmittedDate, SortOrder: types.SortAscending},
}

var defaultCategory = types.Category{Label: "All Papers", SidebarLabel: "All Papers", Query: "cat:cs.AI"}

var categories = []types.Category{
	{Label: "CS.AI", SidebarLabel: "Artificial Intelligence", Query: "cat:cs.AI"},
	{Label: "CS.LG", SidebarLabel: "Deep Learning", Query: "cat:cs.LG"},
	{Label: "Stat.ML", SidebarLabel: "Machine Learning", Query: "cat:stat.ML"},
	{Label: "Physics", SidebarLabel: "Physics", Query: "cat:physics.gen-ph"},
}

// SortOptions returns the sort menu in display order.
func SortOptions() []types.SortOption {
	return append([]types.SortOption(nil), sortOptions...)
}

// SortOptionByID looks up a sort option.
func SortOptionByID(id string) (types.SortOption, bool) {
	for _, o := range sortOptions {
		if o.ID == id {
			return o, true
		}
	}
	return types.SortOption{}, false
}

// DefaultSort is the preference a category starts with.
func DefaultSort() types.SortPreference {
	o := sortOptions[0]
	return types.SortPreference{SortBy: o.SortBy, SortOrder: o.SortOrder}
}

// DefaultCategory is the category browsed when a session starts.
func DefaultCategory() types.Category {
	return defaultCategory
}

// Categories returns the browsable categories, default first.
func Categories() []types.Category {
	return append([]types.Category{defaultCategory}, categories...)
}

// CategoryByLabel looks up a category case-sensitively by label.
func CategoryByLabel(label string) (types.Category, bool) {
	for _, c := range Categories() {
		if c.Label == label {
			return c, true
		}
	}
	return types.Category{}, false
}

// CategoryForTag builds an ad hoc category for a single feed tag
// (e.g. "cs.CV" → "cat:cs.CV").
func CategoryForTag(tag types.ListTag) types.Category {
	label := tag.ID
	name := tag.Name
	if name == "" {
		name = tag.ID
	}
	return types.Category{Label: label, SidebarLabel: name, Query: PrefixCategory + tag.ID}
}
