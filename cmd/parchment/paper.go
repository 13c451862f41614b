// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/parchment/internal/arxivid"
	"github.com/pdiddy/parchment/internal/browse"
	"github.com/pdiddy/parchment/internal/feed"
)

var paperCmd = &cobra.Command{
	Use:   "paper <id>",
	Short: "Show one paper",
	Long: `Show the details of one paper. The identifier may be a bare ID, a
versioned ID or an abstract or PDF URL.

Examples:
  parchment paper 1706.03762
  parchment paper https://arxiv.org/abs/1706.03762v7
  parchment paper hep-th/9901001 --pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runPaper,
}

func init() {
	paperCmd.Flags().Bool("pdf", false, "print only the PDF URL without fetching")
	rootCmd.AddCommand(paperCmd)
}

func runPaper(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if pdf, _ := cmd.Flags().GetBool("pdf"); pdf {
		url := arxivid.PDFURL(args[0])
		if url == "" {
			return errors.New("missing paper identifier")
		}
		fmt.Fprintln(out, url)
		return nil
	}

	p, err := newFeedClient().FetchPaper(ctx, args[0])
	if err != nil {
		logger.Error(ctx, "fetching paper", "id", args[0], "error", err)
		if errors.Is(err, feed.ErrPaperNotFound) {
			return fmt.Errorf("no paper with identifier %q", arxivid.Normalize(args[0]))
		}
		return errors.New(browse.Message(err))
	}
	if jsonOutput(cmd) {
		return writeJSON(out, p)
	}
	printPaperDetail(out, p)

	marked, release := bookmarkMarker(ctx)
	defer release()
	if marked != nil && marked(p.ID) {
		fmt.Fprintln(out, "\n(bookmarked)")
	}
	return nil
}
