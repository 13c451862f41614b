// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/parchment/internal/arxivid"
	"github.com/pdiddy/parchment/internal/browse"
	"github.com/pdiddy/parchment/pkg/types"
)

var bookmarksCmd = &cobra.Command{
	Use:     "bookmarks",
	Aliases: []string{"saved"},
	Short:   "List your saved papers, newest first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary(cmd.Context())
		if err != nil {
			return errors.New(userMessage(err))
		}
		defer lib.Close()
		return showBookmarks(cmd, lib.bookmarks.List())
	},
}

var bookmarksToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Save a paper, or remove it if already saved",
	Args:  cobra.ExactArgs(1),
	RunE:  runBookmarksToggle,
}

var bookmarksFilterCmd = &cobra.Command{
	Use:   "filter <term>",
	Short: "List saved papers matching a term in title, authors, abstract or tags",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary(cmd.Context())
		if err != nil {
			return errors.New(userMessage(err))
		}
		defer lib.Close()
		return showBookmarks(cmd, lib.bookmarks.Filter(args[0]))
	},
}

func init() {
	bookmarksCmd.AddCommand(bookmarksToggleCmd)
	bookmarksCmd.AddCommand(bookmarksFilterCmd)
	rootCmd.AddCommand(bookmarksCmd)
}

func runBookmarksToggle(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	lib, err := openLibrary(ctx)
	if err != nil {
		return errors.New(userMessage(err))
	}
	defer lib.Close()

	id := arxivid.Normalize(args[0])
	paper := types.Paper{ID: id}
	if id != "" && !lib.bookmarks.IsBookmarked(id) {
		paper, err = newFeedClient().FetchPaper(ctx, id)
		if err != nil {
			logger.Error(ctx, "fetching paper to bookmark", "id", id, "error", err)
			return errors.New(browse.Message(err))
		}
	}

	saved, err := lib.bookmarks.Toggle(ctx, paper)
	if err != nil {
		return errors.New(userMessage(err))
	}
	if saved {
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s: %s\n", paper.ID, paper.Title)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from saved papers\n", id)
	}
	return nil
}

func showBookmarks(cmd *cobra.Command, bms []types.Bookmark) error {
	out := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		return writeJSON(out, bms)
	}
	if len(bms) == 0 {
		fmt.Fprintln(out, "No saved papers.")
		return nil
	}
	for i, b := range bms {
		printPaper(out, i+1, b.Paper, false)
		if !b.SavedAt.IsZero() {
			fmt.Fprintf(out, "      saved %s\n", b.SavedAt.Local().Format("02 Jan 2006 15:04"))
		}
	}
	return nil
}
