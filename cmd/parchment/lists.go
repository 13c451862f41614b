// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/parchment/internal/library"
	"github.com/pdiddy/parchment/internal/query"
	"github.com/pdiddy/parchment/pkg/types"
)

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Show your reading lists",
	Long: `Reading lists group arXiv categories under a name. Browse one with
"parchment browse --list NAME". Each account may keep up to five lists.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary(cmd.Context())
		if err != nil {
			return errors.New(userMessage(err))
		}
		defer lib.Close()

		lists := lib.lists.All()
		if jsonOutput(cmd) {
			return writeJSON(cmd.OutOrStdout(), lists)
		}
		printLists(cmd.OutOrStdout(), lists, "")
		return nil
	},
}

var listsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a list",
	Long: `Create a list from a name and one or more category tags.

Example:
  parchment lists create --name Vision --tag cs.CV --tag eess.IV`,
	Args: cobra.NoArgs,
	RunE: runListsCreate,
}

var listsEditCmd = &cobra.Command{
	Use:   "edit <name>",
	Short: "Rename a list or replace its tags",
	Args:  cobra.ExactArgs(1),
	RunE:  runListsEdit,
}

var listsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a list",
	Args:  cobra.ExactArgs(1),
	RunE:  runListsDelete,
}

var listsTagsCmd = &cobra.Command{
	Use:   "tags [term]",
	Short: "Show the category tags a list can use",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runListsTags,
}

func init() {
	listsCreateCmd.Flags().String("name", "", "list name")
	listsCreateCmd.Flags().StringSlice("tag", nil, "category tag ID (repeatable)")
	listsEditCmd.Flags().String("name", "", "new list name")
	listsEditCmd.Flags().StringSlice("tag", nil, "replacement category tag IDs (repeatable)")
	listsDeleteCmd.Flags().BoolP("yes", "y", false, "delete without asking")

	listsCmd.AddCommand(listsCreateCmd)
	listsCmd.AddCommand(listsEditCmd)
	listsCmd.AddCommand(listsDeleteCmd)
	listsCmd.AddCommand(listsTagsCmd)
	rootCmd.AddCommand(listsCmd)
}

// resolveTags looks up tag IDs in the catalog, dropping repeats.
func resolveTags(ids []string) ([]types.ListTag, error) {
	var form types.ListForm
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || form.HasTag(id) {
			continue
		}
		t, ok := query.TagByID(id)
		if !ok {
			return nil, fmt.Errorf("unknown tag %q; run \"parchment lists tags\"", id)
		}
		form.Tags = append(form.Tags, t)
	}
	return form.Tags, nil
}

func runListsCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name, _ := cmd.Flags().GetString("name")
	ids, _ := cmd.Flags().GetStringSlice("tag")

	tags, err := resolveTags(ids)
	if err != nil {
		return err
	}
	lib, err := openLibrary(ctx)
	if err != nil {
		return errors.New(userMessage(err))
	}
	defer lib.Close()

	if _, err := lib.lists.Save(ctx, types.ListForm{Name: name, Tags: tags}, nil); err != nil {
		return errors.New(userMessage(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created list %q\n", strings.TrimSpace(name))
	return nil
}

func runListsEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	lib, err := openLibrary(ctx)
	if err != nil {
		return errors.New(userMessage(err))
	}
	defer lib.Close()

	list, ok := lib.lists.FindByName(args[0])
	if !ok {
		return fmt.Errorf("no list named %q", args[0])
	}

	form := types.ListForm{Name: list.Name, Tags: list.Tags}
	if cmd.Flags().Changed("name") {
		form.Name, _ = cmd.Flags().GetString("name")
	}
	if cmd.Flags().Changed("tag") {
		ids, _ := cmd.Flags().GetStringSlice("tag")
		if form.Tags, err = resolveTags(ids); err != nil {
			return err
		}
	}

	if _, err := lib.lists.Save(ctx, form, &list); err != nil {
		return errors.New(userMessage(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated list %q\n", strings.TrimSpace(form.Name))
	return nil
}

func runListsDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	yes, _ := cmd.Flags().GetBool("yes")

	lib, err := openLibrary(ctx)
	if err != nil {
		return errors.New(userMessage(err))
	}
	defer lib.Close()

	list, ok := lib.lists.FindByName(args[0])
	if !ok {
		return fmt.Errorf("no list named %q", args[0])
	}

	var confirmer library.Confirmer = library.ConfirmFunc(confirm)
	if yes {
		confirmer = nil
	}
	deleted, err := lib.lists.Delete(ctx, list, confirmer)
	if err != nil {
		return errors.New(userMessage(err))
	}
	if deleted {
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted list %q\n", list.Name)
	}
	return nil
}

func runListsTags(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 1 {
		tags := query.FilterTags(args[0])
		if jsonOutput(cmd) {
			return writeJSON(out, tags)
		}
		if len(tags) == 0 {
			fmt.Fprintln(out, "No matching tags.")
		}
		for _, t := range tags {
			fmt.Fprintf(out, "  %-20s %s\n", t.ID, t.Name)
		}
		return nil
	}

	sections := query.TagSections()
	if jsonOutput(cmd) {
		return writeJSON(out, sections)
	}
	for _, s := range sections {
		fmt.Fprintf(out, "%s\n", s.Title)
		for _, t := range s.Tags {
			fmt.Fprintf(out, "  %-20s %s\n", t.ID, t.Name)
		}
	}
	return nil
}
