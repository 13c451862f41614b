// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/parchment/internal/browse"
	"github.com/pdiddy/parchment/internal/query"
	"github.com/pdiddy/parchment/pkg/types"
)

var browseCmd = &cobra.Command{
	Use:   "browse [category]",
	Short: "Browse the latest papers in a category or list",
	Long: `Browse a category, or every category of one of your lists.

Without arguments the default category is shown. Run "parchment categories"
for the available labels.

Examples:
  parchment browse
  parchment browse CS.LG --sort newest
  parchment browse --list "Vision" --pages 2`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List browsable categories and sort options",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if jsonOutput(cmd) {
			return writeJSON(out, map[string]any{
				"categories": query.Categories(),
				"sorts":      query.SortOptions(),
			})
		}
		fmt.Fprintln(out, "Categories:")
		for _, c := range query.Categories() {
			fmt.Fprintf(out, "  %-12s %-26s %s\n", c.Label, c.SidebarLabel, c.Query)
		}
		fmt.Fprintln(out, "\nSort options:")
		for _, o := range query.SortOptions() {
			fmt.Fprintf(out, "  %-12s %s\n", o.ID, o.Label)
		}
		return nil
	},
}

func init() {
	browseCmd.Flags().String("list", "", "browse the categories of one of your lists")
	browseCmd.Flags().String("sort", "", "sort: relevance, newest, oldest")
	browseCmd.Flags().Int("pages", 1, "number of result pages to load")
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(categoriesCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	listName, _ := cmd.Flags().GetString("list")
	sortID, _ := cmd.Flags().GetString("sort")
	pages, _ := cmd.Flags().GetInt("pages")

	if err := checkSort(sortID); err != nil {
		return err
	}
	if listName != "" && len(args) > 0 {
		return fmt.Errorf("use either a category or --list, not both")
	}

	cat := query.DefaultCategory()
	if len(args) > 0 {
		c, ok := findCategory(args[0])
		if !ok {
			return fmt.Errorf("unknown category %q; run \"parchment categories\"", args[0])
		}
		cat = c
	}

	var list *types.UserList
	if listName != "" {
		lib, err := openLibrary(ctx)
		if err != nil {
			return fmt.Errorf("browsing a list: %s", userMessage(err))
		}
		l, ok := lib.lists.FindByName(listName)
		lib.Close()
		if !ok {
			return fmt.Errorf("no list named %q", listName)
		}
		list = &l
		cat.Label = l.Name
	}

	sess := browse.NewSession(newFeedClient(), logger, cues)
	if sortID != "" {
		if err := sess.RestoreSort(cat.Label, sortID); err != nil {
			return err
		}
	}
	if list != nil {
		_ = sess.BrowseList(ctx, *list)
	} else {
		_ = sess.SelectCategory(ctx, cat)
	}
	loadPages(ctx, sess, pages)

	return showView(cmd, sess.View())
}

// findCategory matches a category label case-insensitively.
func findCategory(label string) (types.Category, bool) {
	if c, ok := query.CategoryByLabel(label); ok {
		return c, true
	}
	for _, c := range query.Categories() {
		if strings.EqualFold(c.Label, label) {
			return c, true
		}
	}
	return types.Category{}, false
}
