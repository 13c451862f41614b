// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/parchment/internal/browse"
	"github.com/pdiddy/parchment/pkg/types"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPaper(w io.Writer, i int, p types.Paper, marked bool) {
	star := " "
	if marked {
		star = "*"
	}
	fmt.Fprintf(w, "%3d.%s %s  [%s]\n", i, star, p.Title, p.ID)
	fmt.Fprintf(w, "      %s\n", p.Authors)
	fmt.Fprintf(w, "      %s  %s\n", p.Date, strings.Join(p.Tags, ", "))
}

// printPapers lists papers, marking those for which marked returns true.
func printPapers(w io.Writer, papers []types.Paper, marked func(id string) bool) {
	if len(papers) == 0 {
		fmt.Fprintln(w, "No papers found.")
		return
	}
	for i, p := range papers {
		printPaper(w, i+1, p, marked != nil && marked(p.ID))
	}
}

func printPaperDetail(w io.Writer, p types.Paper) {
	fmt.Fprintf(w, "%s\n\n", p.Title)
	fmt.Fprintf(w, "ID:       %s\n", p.ID)
	fmt.Fprintf(w, "Authors:  %s\n", p.Authors)
	fmt.Fprintf(w, "Date:     %s\n", p.Date)
	fmt.Fprintf(w, "Tags:     %s\n", strings.Join(p.Tags, ", "))
	if p.JournalRef != "" {
		fmt.Fprintf(w, "Journal:  %s\n", p.JournalRef)
	}
	if p.DOI != "" {
		fmt.Fprintf(w, "DOI:      %s\n", p.DOI)
	}
	if p.Comments != "" {
		fmt.Fprintf(w, "Comments: %s\n", p.Comments)
	}
	fmt.Fprintf(w, "Abstract: %s\n", p.Link)
	fmt.Fprintf(w, "PDF:      %s\n\n", p.PDFLink)
	fmt.Fprintln(w, p.Summary)
}

// printView lists the results of a browse session followed by its status.
func printView(w io.Writer, v browse.View, marked func(id string) bool) {
	heading := v.Category.Label
	if v.Search.IsSearchMode {
		heading = "Search: " + v.Search.Query
	}
	fmt.Fprintf(w, "%s (sorted by %s, %s)\n\n", heading, v.Search.SortBy, v.Search.SortOrder)
	printPapers(w, v.Papers, marked)
	if v.Error != "" {
		fmt.Fprintf(w, "\n%s\n", v.Error)
	} else if v.Search.HasMore && len(v.Papers) > 0 {
		fmt.Fprintln(w, "\nMore results available; raise --pages to load them.")
	}
}

func printLists(w io.Writer, lists []types.UserList, activeID string) {
	if len(lists) == 0 {
		fmt.Fprintln(w, "No lists yet.")
		return
	}
	for _, l := range lists {
		mark := " "
		if l.ID == activeID {
			mark = "*"
		}
		names := make([]string, len(l.Tags))
		for i, t := range l.Tags {
			names[i] = t.Name
		}
		fmt.Fprintf(w, "%s %s  (%s)\n", mark, l.Name, strings.Join(names, ", "))
	}
}
