// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/parchment/internal/browse"
	"github.com/pdiddy/parchment/internal/query"
)

var searchCmd = &cobra.Command{
	Use:   "search [terms...]",
	Short: "Search arXiv papers",
	Long: `Search arXiv by free text or by field.

Free text searches every field; a query already written with field prefixes
(ti:, au:, abs:, ...) or boolean operators (AND, OR, ANDNOT) is sent as is.
The field flags build an advanced query instead, joining each filled field
with AND. Searches are sorted by relevance unless --sort is given.

Examples:
  parchment search transformer attention
  parchment search 'ti:"graph neural" AND au:kipf'
  parchment search --title "attention is all you need" --author vaswani
  parchment search diffusion --sort newest --pages 3`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("title", "", "match the title")
	searchCmd.Flags().String("author", "", "match an author")
	searchCmd.Flags().String("abstract", "", "match the abstract")
	searchCmd.Flags().String("journal", "", "match the journal reference")
	searchCmd.Flags().String("id", "", "match an arXiv identifier")
	searchCmd.Flags().String("sort", "", "sort: relevance, newest, oldest")
	searchCmd.Flags().Int("pages", 1, "number of result pages to load")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	terms := strings.TrimSpace(strings.Join(args, " "))

	var form query.AdvancedForm
	form.Title, _ = cmd.Flags().GetString("title")
	form.Author, _ = cmd.Flags().GetString("author")
	form.Abstract, _ = cmd.Flags().GetString("abstract")
	form.Journal, _ = cmd.Flags().GetString("journal")
	form.ID, _ = cmd.Flags().GetString("id")
	sortID, _ := cmd.Flags().GetString("sort")
	pages, _ := cmd.Flags().GetInt("pages")

	if err := checkSort(sortID); err != nil {
		return err
	}
	_, advanced := query.Advanced(form)
	switch {
	case advanced && terms != "":
		return errors.New("use either search terms or field flags, not both")
	case !advanced && terms == "":
		return errors.New("nothing to search: give terms or a field flag")
	}

	sess := browse.NewSession(newFeedClient(), logger, cues)
	if advanced {
		_, _ = sess.AdvancedSearch(ctx, form)
	} else {
		_ = sess.Search(ctx, terms)
	}
	if sortID != "" && sess.View().State != browse.Failed {
		_ = sess.SetSort(ctx, sortID)
	}
	loadPages(ctx, sess, pages)

	return showView(cmd, sess.View())
}

// checkSort validates a --sort value; empty means unset.
func checkSort(id string) error {
	if id == "" {
		return nil
	}
	if _, ok := query.SortOptionByID(id); !ok {
		ids := make([]string, 0, 3)
		for _, o := range query.SortOptions() {
			ids = append(ids, o.ID)
		}
		return fmt.Errorf("sort %q: %w (want %s)", id, browse.ErrUnknownSort, strings.Join(ids, ", "))
	}
	return nil
}

// loadPages loads more results until pages pages are loaded, the feed runs
// out, or a load fails.
func loadPages(ctx context.Context, sess *browse.Session, pages int) {
	for i := 1; i < pages; i++ {
		v := sess.View()
		if v.State == browse.Failed || !v.Search.HasMore {
			return
		}
		if err := sess.LoadMore(ctx); err != nil {
			return
		}
	}
}

// showView prints the session results and reports a failed load as the
// command's error.
func showView(cmd *cobra.Command, v browse.View) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if jsonOutput(cmd) {
		if err := writeJSON(out, v.Papers); err != nil {
			return err
		}
	} else {
		marked, release := bookmarkMarker(ctx)
		defer release()
		printView(out, v, marked)
	}

	if v.State == browse.Failed {
		return errors.New(v.Error)
	}
	return nil
}
