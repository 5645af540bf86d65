// Package main provides the entry point for the chanscout CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for chanscout.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chanscout",
		Short: "Recommendation crawler for Telegram channels",
		Long: `chanscout discovers Telegram channels through the platform's
"similar channels" recommendations.

The crawl runs two levels deep: the seed channel's recommendations first,
then the recommendations of every discovered channel. Results are
deduplicated, filtered by subscriber count, classified by topic, and
written as text, CSV, JSON, or Markdown reports.

All platform traffic goes through a session gateway that holds the
authorized account session (see --gateway).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewSimilarCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
