// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/parchment/internal/export"
	"github.com/pdiddy/parchment/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export your bookmarks and lists",
	Long: `Write your bookmarks and lists to an archive file in export.dir, or upload
it to the configured S3 bucket with --upload.

Examples:
  parchment export
  parchment export --format json
  parchment export --upload`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore bookmarks and lists from an export archive",
	Long: `Restore an archive written by "parchment export". Papers already saved and
lists whose name is taken are skipped; the list limit still applies.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	exportCmd.Flags().String("format", "", "archive format: yaml or json (default from export.format)")
	exportCmd.Flags().Bool("upload", false, "upload to export.bucket instead of writing a file")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = cfg.Export.Format
	}
	upload, _ := cmd.Flags().GetBool("upload")

	lib, err := openLibrary(ctx)
	if err != nil {
		return errors.New(userMessage(err))
	}
	defer lib.Close()

	a := export.Build(lib.session.UserID, lib.bookmarks.List(), lib.lists.All(), time.Now())

	if upload {
		client, err := export.NewS3Putter(ctx, cfg.Export)
		if err != nil {
			return err
		}
		key, err := export.Upload(ctx, client, cfg.Export.Bucket, a, format)
		if err != nil {
			logger.Error(ctx, "export upload failed", "bucket", cfg.Export.Bucket, "error", err)
			return err
		}
		logger.Info(ctx, "export uploaded", "bucket", cfg.Export.Bucket, "key", key)
		fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d bookmarks and %d lists to s3://%s/%s\n",
			len(a.Bookmarks), len(a.Lists), cfg.Export.Bucket, key)
		return nil
	}

	path, err := export.WriteFile(cfg.Export.Dir, a, format)
	if err != nil {
		return err
	}
	logger.Info(ctx, "export written", "path", path)
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bookmarks and %d lists to %s\n", len(a.Bookmarks), len(a.Lists), path)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	format := export.FormatYAML
	if strings.EqualFold(filepath.Ext(args[0]), ".json") {
		format = export.FormatJSON
	}
	a, err := export.Decode(data, format)
	if err != nil {
		return err
	}

	lib, err := openLibrary(ctx)
	if err != nil {
		return errors.New(userMessage(err))
	}
	defer lib.Close()

	var saved, created int
	for _, b := range a.Bookmarks {
		if lib.bookmarks.IsBookmarked(b.ID) {
			continue
		}
		if _, err := lib.bookmarks.Toggle(ctx, b.Paper); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipping %s: %s\n", b.ID, userMessage(err))
			continue
		}
		saved++
	}
	for _, l := range a.Lists {
		if _, ok := lib.lists.FindByName(l.Name); ok {
			continue
		}
		if _, err := lib.lists.Save(ctx, types.ListForm{Name: l.Name, Tags: l.Tags}, nil); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipping list %q: %s\n", l.Name, userMessage(err))
			continue
		}
		created++
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d bookmarks and %d lists\n", saved, created)
	return nil
}
