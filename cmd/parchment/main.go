// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the parchment CLI: browse and search
// arXiv, and keep bookmarks and reading lists in a local account.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/parchment/internal/feedback"
	"github.com/pdiddy/parchment/internal/logging"
	"github.com/pdiddy/parchment/internal/secrets"
	"github.com/pdiddy/parchment/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Resolved at startup by PersistentPreRunE.
var (
	cfg    types.Config
	logger logging.Logger = logging.Discard()
	cues   feedback.Notifier = feedback.Nop{}
)

// rootCmd is the base command for the parchment CLI.
var rootCmd = &cobra.Command{
	Use:   "parchment",
	Short: "Browse, search and bookmark arXiv papers",
	Long: `parchment browses arXiv categories, runs simple and advanced searches,
and keeps bookmarks and reading lists for a signed-in account.

Browsing and searching work without an account. Bookmarks, lists and export
require signing in with "parchment account signin".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		l, err := logging.New(os.Stderr, c.Log)
		if err != nil {
			return err
		}
		logger = l

		s, err := secrets.Load(cmd.Context(), ".secrets/", logger)
		if err != nil {
			return err
		}
		secrets.Apply(&c, s)
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug(cmd.Context(), "loaded secrets", "keys", keys)
		}

		cfg = c
		cues = feedback.New(cfg.Platform, os.Stderr)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./parchment.yaml or ~/.config/parchment/parchment.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("json", false, "output results as JSON")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("parchment")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "parchment"))
		}
	}

	viper.SetEnvPrefix("PARCHMENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper(), types.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
