package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chanscout/chanscout/internal/config"
	"github.com/chanscout/chanscout/internal/database"
	"github.com/chanscout/chanscout/internal/lineformat"
	"github.com/chanscout/chanscout/internal/model"
	"github.com/chanscout/chanscout/internal/report"
)

// NewHistoryCmd creates the history command.
// This command queries crawl results stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [seed-channel]",
		Short: "Query past crawl results stored in the database",
		Long: `History lists past crawls and discovered channels from the local database.

Every crawl is saved automatically, so this command works offline: no
gateway connection is made. Without flags it lists the crawl runs for
the given seed channel.

Examples:
  # List crawl runs for a seed
  chanscout history durov

  # Show the latest stored report for a seed
  chanscout history --latest durov

  # Show a specific stored report by ID
  chanscout history --show-id 5 durov

  # List all crawled seeds in the database
  chanscout history --list-seeds

  # Show the largest channels ever discovered
  chanscout history --top 20`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	// Listing flags
	cmd.Flags().BoolP("list-seeds", "L", false,
		"List all crawled seeds in the database")
	cmd.Flags().Int("top", 0,
		"List the N largest channels ever discovered")

	// Report selection flags
	cmd.Flags().Bool("latest", false,
		"Show the latest stored report for the seed")
	cmd.Flags().Int64P("show-id", "i", 0,
		"Show a stored report by ID (use the listing to see available IDs)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output stored reports in JSON format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listSeeds, err := cmd.Flags().GetBool("list-seeds")
	if err != nil {
		return err
	}
	topN, err := cmd.Flags().GetInt("top")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	// This prevents database lock issues when validation fails.
	var seed string
	if !listSeeds && topN == 0 {
		if len(args) == 0 {
			return errors.New("seed channel is required (use --list-seeds to see available seeds)")
		}
		seed = strings.TrimPrefix(strings.TrimSpace(args[0]), "@")
		if seed == "" {
			return errors.New("seed channel is empty")
		}
	}

	// Use XDG data directory for database
	dbDir := config.XDGDataDir()

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if listSeeds {
		return listCrawledSeeds(ctx, db)
	}
	if topN > 0 {
		return listTopChannels(ctx, db, topN)
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	latest, err := cmd.Flags().GetBool("latest")
	if err != nil {
		return err
	}
	showID, err := cmd.Flags().GetInt64("show-id")
	if err != nil {
		return err
	}

	if latest || showID > 0 {
		return showStoredReport(ctx, db, seed, showID, jsonOutput)
	}

	return listCrawlRuns(ctx, db, seed)
}

// listCrawledSeeds lists all seeds that have crawl records in the database.
func listCrawledSeeds(ctx context.Context, db *database.CrawlDB) error {
	seeds, err := db.ListSeeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to list seeds: %w", err)
	}

	if len(seeds) == 0 {
		fmt.Println("No crawled seeds found in the database.")
		fmt.Println("\nUse 'chanscout crawl <seed>' to crawl a channel.")
		return nil
	}

	fmt.Printf("Crawled seeds (%d):\n\n", len(seeds))
	for _, seed := range seeds {
		fmt.Printf("  • @%s\n", seed)
	}
	fmt.Println("\nUse 'chanscout history <seed>' to see the crawl runs for a seed.")

	return nil
}

// listTopChannels lists the largest channels ever discovered, across all
// crawls.
func listTopChannels(ctx context.Context, db *database.CrawlDB, limit int) error {
	channels, err := db.TopChannels(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list top channels: %w", err)
	}

	if len(channels) == 0 {
		fmt.Println("No channels found in the database.")
		fmt.Println("\nUse 'chanscout crawl <seed>' to crawl a channel.")
		return nil
	}

	fmt.Printf("Largest discovered channels (%d):\n\n", len(channels))
	fmt.Printf("  %-24s  %12s  %-24s  %s\n", "Username", "Subscribers", "Topic", "Title")
	fmt.Println("  " + strings.Repeat("-", 80))

	for _, ch := range channels {
		marker := " "
		if ch.Notable {
			marker = "*"
		}
		fmt.Printf("%s %-24s  %12d  %-24s  %s\n",
			marker, "@"+ch.Username, ch.ParticipantsCount, ch.Topic, ch.Title)
	}
	fmt.Println("\nChannels marked with * crossed the notable threshold.")

	return nil
}

// listCrawlRuns lists all stored crawl runs for a specific seed.
func listCrawlRuns(ctx context.Context, db *database.CrawlDB, seed string) error {
	runs, err := db.GetCrawlHistoryWithMetadata(ctx, seed)
	if err != nil {
		return fmt.Errorf("failed to get crawl history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Printf("No crawl history found for @%s\n", seed)
		fmt.Println("\nUse 'chanscout crawl' to crawl this channel.")
		return nil
	}

	fmt.Printf("Crawl history for @%s (%d runs):\n\n", seed, len(runs))
	fmt.Printf("  %-6s  %-20s  %s\n", "ID", "Date", "Summary")
	fmt.Println("  " + strings.Repeat("-", 60))

	for _, meta := range runs {
		fmt.Printf("  %-6d  %-20s  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			formatStatsSummary(meta.Stats),
		)
	}

	fmt.Println("\nUse 'chanscout history --latest <seed>' to show the latest report.")
	fmt.Println("Use 'chanscout history --show-id <id> <seed>' to show a specific report.")

	return nil
}

// formatStatsSummary formats aggregation stats into a compact one-line
// summary for the history listing.
func formatStatsSummary(stats model.AggregateStats) string {
	if stats.Input == 0 {
		return "empty"
	}

	parts := []string{fmt.Sprintf("kept:%d", stats.Kept)}
	if stats.FilteredOut > 0 {
		parts = append(parts, fmt.Sprintf("filtered:%d", stats.FilteredOut))
	}
	if stats.Duplicates > 0 {
		parts = append(parts, fmt.Sprintf("dup:%d", stats.Duplicates))
	}
	if stats.Invalid > 0 {
		parts = append(parts, fmt.Sprintf("invalid:%d", stats.Invalid))
	}
	return strings.Join(parts, " ")
}

// showStoredReport renders one stored crawl report, either the latest for
// the seed or the one selected by ID.
func showStoredReport(ctx context.Context, db *database.CrawlDB, seed string, showID int64, jsonOutput bool) error {
	var crawlReport *model.CrawlReport
	var err error

	if showID > 0 {
		crawlReport, err = db.GetCrawlReportByID(ctx, showID)
		if err != nil {
			return fmt.Errorf("failed to get crawl with ID %d: %w", showID, err)
		}
		if crawlReport == nil {
			return fmt.Errorf("crawl with ID %d not found", showID)
		}
		// Validate that the report belongs to the requested seed
		if crawlReport.Seed != seed {
			return fmt.Errorf("crawl ID %d belongs to @%s, not @%s", showID, crawlReport.Seed, seed)
		}
	} else {
		crawlReport, err = db.GetLatestCrawlReport(ctx, seed)
		if err != nil {
			return fmt.Errorf("failed to get latest crawl: %w", err)
		}
		if crawlReport == nil {
			return fmt.Errorf("no crawl history found for @%s", seed)
		}
	}

	if jsonOutput {
		writer := report.NewJSONWriter(os.Stdout, report.WithPrettyPrint())
		_, err = writer.Write(crawlReport)
		return err
	}

	codec := lineformat.New(lineformat.DefaultFormat)
	writer := report.NewTextWriter(os.Stdout, report.WithLineCodec(codec))
	_, err = writer.Write(crawlReport)
	return err
}
