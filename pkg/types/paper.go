// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures for parchment: papers
// returned by the feed, bookmarks and reading lists persisted per user, the
// browsing state, and configuration.
package types

import "time"

// DefaultTag is the tag given to a paper whose feed entry carries no category.
const DefaultTag = "Science"

// MaxPaperTags is the number of category terms kept as tags on a paper.
const MaxPaperTags = 2

// Link is one <link> element of a feed entry.
type Link struct {
	Href  string `json:"href" yaml:"href"`
	Rel   string `json:"rel,omitempty" yaml:"rel,omitempty"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`
}

// Paper is a normalized search result or bookmarked paper.
//
// ID is always the canonical identifier produced by arxivid.Normalize so
// that feed results and stored bookmarks compare equal. PDFLink is always an
// https URL ending in ".pdf". Papers are values: updates produce a new
// Paper rather than mutating one held in view state.
type Paper struct {
	// ID is the canonical arXiv identifier (e.g. "2101.00001").
	ID string `json:"id" yaml:"id"`

	// Title is the whitespace-normalized title.
	Title string `json:"title" yaml:"title"`

	// Authors holds the author names joined with ", ".
	Authors string `json:"authors" yaml:"authors"`

	// Summary is the whitespace-normalized abstract.
	Summary string `json:"summary" yaml:"summary"`

	Comments   string `json:"comments,omitempty" yaml:"comments,omitempty"`
	JournalRef string `json:"journal_ref,omitempty" yaml:"journal_ref,omitempty"`
	DOI        string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Links keeps the entry's links in feed order.
	Links []Link `json:"links,omitempty" yaml:"links,omitempty"`

	// Tags holds at most MaxPaperTags category terms.
	Tags []string `json:"tags" yaml:"tags"`

	// Date is a display string ("02 Jan 2006"), not a sortable value.
	Date string `json:"date" yaml:"date"`

	// Link is the abstract page URL.
	Link string `json:"link" yaml:"link"`

	// PDFLink is the direct PDF URL.
	PDFLink string `json:"pdf_link" yaml:"pdf_link"`
}

// Bookmark is a paper saved by a user. The stored document keyed by the
// paper ID is the only record of the bookmark; there is no separate flag.
type Bookmark struct {
	Paper `yaml:",inline"`

	// SavedAt is assigned by the document store when the bookmark is written.
	SavedAt time.Time `json:"saved_at" yaml:"saved_at"`
}
