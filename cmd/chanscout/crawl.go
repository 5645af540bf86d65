package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chanscout/chanscout/internal/aggregate"
	"github.com/chanscout/chanscout/internal/config"
	"github.com/chanscout/chanscout/internal/crawler"
	"github.com/chanscout/chanscout/internal/database"
	"github.com/chanscout/chanscout/internal/lineformat"
	"github.com/chanscout/chanscout/internal/log"
	"github.com/chanscout/chanscout/internal/model"
	"github.com/chanscout/chanscout/internal/report"
	"github.com/chanscout/chanscout/internal/telegram"
	"github.com/chanscout/chanscout/internal/topic"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-channel]...",
		Short: "Run a two-level recommendation crawl from seed channels",
		Long: `Crawl fetches the "similar channels" recommendations for each seed
channel (level 1), then the recommendations of every discovered channel
(level 2).

Level-2 discoveries are deduplicated, filtered by subscriber count,
classified by topic, and written as a report. Two files are produced per
seed: a level-1 text list and a level-2 CSV.

Examples:
  # Crawl a single seed channel
  chanscout crawl durov

  # Crawl several seeds concurrently
  chanscout crawl channelone channeltwo channelthree

  # Slow down between requests and keep only bigger channels
  chanscout crawl --delay 3s --filter-threshold 5000 durov

  # Output a Markdown report to a file
  chanscout crawl --markdown -o report.md durov

  # Use a custom configuration file
  chanscout crawl -c myconfig.yaml durov`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Gateway connection flags
	cmd.Flags().StringP("gateway", "g", config.DefaultGatewayURL,
		"Session gateway base URL")
	cmd.Flags().String("token", "",
		"Bearer token for the session gateway")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy URL for gateway connections (e.g., socks5://127.0.0.1:1080)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each gateway request")
	cmd.Flags().Float64P("rate", "r", config.DefaultRequestsPerSecond,
		"Gateway request rate cap in requests per second")

	// Crawl behavior flags
	cmd.Flags().DurationP("delay", "d", config.DefaultDelay,
		"Pause after every level-2 fetch")
	cmd.Flags().Int("filter-threshold", config.DefaultFilterThreshold,
		"Minimum subscriber count for report rows")
	cmd.Flags().Int("notable-threshold", config.DefaultNotableThreshold,
		"Subscriber count at which a channel is highlighted as notable")
	cmd.Flags().String("line-format", lineformat.DefaultFormat,
		"Template for level-1 output lines")

	// Batch crawling flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent crawls")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .chanscout in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().String("dir", "",
		"Directory for the level-1 list and level-2 CSV files")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	// Build config from the config file and flags
	cfg, err := buildCrawlConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	cfg.Verbose = getVerboseFlag(cmd)
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildCrawlConfig creates a Config from the config file and cobra flags.
// Merge order is defaults, then config file, then flags set on the
// command line.
func buildCrawlConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load the configuration file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently keep the defaults if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.FileConfig, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if err := cfg.FileConfig.Apply(cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	// Flags that overlap the config file override it only when actually
	// set on the command line; their cobra defaults must not clobber
	// values the file provided.
	if err := applyFlagOverrides(cmd, cfg); err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	// Always save to database using XDG data directory
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	// Get positional arguments (seed channels)
	cfg.Seeds = normalizeSeeds(args)

	return cfg, nil
}

// applyFlagOverrides copies file-overlapping flag values onto cfg for
// flags that were set on the command line.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("gateway") {
		if cfg.GatewayURL, err = flags.GetString("gateway"); err != nil {
			return err
		}
	}
	if flags.Changed("token") {
		if cfg.GatewayToken, err = flags.GetString("token"); err != nil {
			return err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyURL, err = flags.GetString("proxy"); err != nil {
			return err
		}
	}
	if flags.Changed("rate") {
		if cfg.RequestsPerSecond, err = flags.GetFloat64("rate"); err != nil {
			return err
		}
	}
	if flags.Changed("delay") {
		if cfg.Delay, err = flags.GetDuration("delay"); err != nil {
			return err
		}
	}
	if flags.Changed("filter-threshold") {
		if cfg.FilterThreshold, err = flags.GetInt("filter-threshold"); err != nil {
			return err
		}
	}
	if flags.Changed("notable-threshold") {
		if cfg.NotableThreshold, err = flags.GetInt("notable-threshold"); err != nil {
			return err
		}
	}
	if flags.Changed("line-format") {
		if cfg.LineFormat, err = flags.GetString("line-format"); err != nil {
			return err
		}
	}
	if flags.Changed("dir") {
		if cfg.SavingDirectory, err = flags.GetString("dir"); err != nil {
			return err
		}
	}

	return nil
}

// normalizeSeeds strips the optional "@" prefix from seed usernames.
func normalizeSeeds(args []string) []string {
	seeds := make([]string, 0, len(args))
	for _, arg := range args {
		seed := strings.TrimPrefix(strings.TrimSpace(arg), "@")
		if seed != "" {
			seeds = append(seeds, seed)
		}
	}
	return seeds
}

// runCrawl executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if len(cfg.Seeds) == 0 {
		return errors.New("no seed channels provided (specify one or more usernames as arguments)")
	}

	logger.Info("starting crawl",
		"seeds", cfg.Seeds,
		"batchSize", cfg.BatchSize,
		"delay", cfg.Delay,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.CrawlDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	// One gateway client and session for all crawls; the rate budget is
	// shared, so concurrency never exceeds the flood control limits.
	client, err := telegram.NewGatewayClient(cfg.GatewayURL, cfg.GatewayToken, cfg.ProxyURL,
		telegram.WithRequestsPerSecond(cfg.RequestsPerSecond),
		telegram.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create gateway client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to gateway at %s: %w", cfg.GatewayURL, err)
	}
	defer client.Close()

	logger.Info("gateway session verified", "gateway", cfg.GatewayURL)

	c, codec := buildCrawler(cfg, client, logger)

	// Use the batch runner for parallel crawling if multiple seeds
	if len(cfg.Seeds) > 1 && cfg.BatchSize > 1 {
		return runBatchCrawl(ctx, cfg, c, codec, db, logger)
	}

	// Single seed or sequential crawling
	return runSequentialCrawl(ctx, cfg, c, codec, db, logger)
}

// buildCrawler assembles the crawler and the line codec from the
// configuration.
func buildCrawler(cfg *config.Config, client telegram.Client, logger *slog.Logger) (*crawler.Crawler, *lineformat.Codec) {
	fetcher := telegram.NewFetcher(client, telegram.WithFetcherLogger(logger))
	codec := lineformat.New(cfg.LineFormat, lineformat.WithLogger(logger))

	rules := topic.DefaultRules()
	if cfg.FileConfig != nil {
		rules = cfg.FileConfig.TopicRules()
	}

	stage := aggregate.New(topic.New(rules),
		aggregate.WithFilterThreshold(cfg.FilterThreshold),
		aggregate.WithNotableThreshold(cfg.NotableThreshold),
		aggregate.WithLogger(logger),
	)

	c := crawler.New(fetcher, codec, stage,
		crawler.WithDelay(cfg.Delay),
		crawler.WithLogger(logger),
	)

	return c, codec
}

// runSequentialCrawl crawls seeds one at a time. Each crawl runs as an
// async job so an interrupt cancels it mid-level rather than between
// seeds only.
func runSequentialCrawl(ctx context.Context, cfg *config.Config, c *crawler.Crawler, codec *lineformat.Codec, db *database.CrawlDB, logger *slog.Logger) error {
	for _, seed := range cfg.Seeds {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Printf("Crawling @%s...\n", seed)
		startTime := time.Now()

		job := c.Start(ctx, seed)
		crawlReport, err := job.Wait(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			logger.Error("crawl failed", "seed", seed, "job", job.ID(), "error", err)
			fmt.Fprintf(os.Stderr, "Crawl error for @%s: %v\n", seed, err)
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Crawl completed in %s\n\n", elapsed.Round(time.Millisecond))

		handleCrawlReport(ctx, cfg, crawlReport, codec, db, logger)
	}

	return nil
}

// runBatchCrawl crawls multiple seeds concurrently using the batch runner.
func runBatchCrawl(ctx context.Context, cfg *config.Config, c *crawler.Crawler, codec *lineformat.Codec, db *database.CrawlDB, logger *slog.Logger) error {
	fmt.Printf("Starting batch crawl of %d seeds (concurrency: %d)...\n\n",
		len(cfg.Seeds), cfg.BatchSize)

	startTime := time.Now()

	batch := crawler.NewBatch(c,
		crawler.WithConcurrency(cfg.BatchSize),
		crawler.WithBatchLogger(logger),
	)

	reports, err := batch.Run(ctx, cfg.Seeds)

	for i, crawlReport := range reports {
		if crawlReport == nil {
			continue
		}
		fmt.Printf("[%d/%d] Crawl completed: @%s\n", i+1, len(cfg.Seeds), crawlReport.Seed)
		handleCrawlReport(ctx, cfg, crawlReport, codec, db, logger)
	}

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch crawl completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// handleCrawlReport outputs a finished crawl report, writes the per-seed
// files, and saves the report to the database. Failures are logged, not
// fatal: one bad sink must not discard the crawl.
func handleCrawlReport(ctx context.Context, cfg *config.Config, crawlReport *model.CrawlReport, codec *lineformat.Codec, db *database.CrawlDB, logger *slog.Logger) {
	if err := outputReport(cfg, crawlReport, codec); err != nil {
		logger.Error("report failed", "seed", crawlReport.Seed, "error", err)
	}

	if err := saveArtifacts(cfg, crawlReport, codec); err != nil {
		logger.Error("failed to write output files", "seed", crawlReport.Seed, "error", err)
	}

	if err := saveCrawlReport(ctx, db, crawlReport, logger); err != nil {
		logger.Error("failed to save crawl report", "seed", crawlReport.Seed, "error", err)
	}
}

// outputReport outputs the crawl report in the requested format.
func outputReport(cfg *config.Config, crawlReport *model.CrawlReport, codec *lineformat.Codec) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Create/overwrite the output file with owner-only permissions.
		// Reports reveal what the account crawled.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // path comes from the user's own flag
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	// JSON output (full report with version envelope)
	if cfg.JSONReport {
		writer := report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
		_, err := writer.Write(crawlReport)
		return err
	}

	// Markdown output
	if cfg.MarkdownReport {
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(crawlReport)
		return err
	}

	// Human-readable report (default)
	writer := report.NewTextWriter(output,
		report.WithLineCodec(codec),
		report.WithVerbose(cfg.Verbose),
	)
	_, err := writer.Write(crawlReport)
	return err
}

// saveArtifacts writes the level-1 text list and the level-2 CSV into the
// saving directory.
func saveArtifacts(cfg *config.Config, crawlReport *model.CrawlReport, codec *lineformat.Codec) error {
	dir := cfg.SavingDirectory
	if dir == "" {
		dir = "."
	}

	paths, err := report.Save(dir, crawlReport, codec)
	if err != nil {
		return err
	}

	for _, path := range paths {
		fmt.Printf("Wrote %s\n", path)
	}
	return nil
}

// saveCrawlReport saves the crawl report to the database if enabled.
// If db is nil, this function is a no-op.
func saveCrawlReport(ctx context.Context, db *database.CrawlDB, crawlReport *model.CrawlReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	if err := db.SaveCrawlReport(ctx, crawlReport); err != nil {
		return fmt.Errorf("failed to save crawl report: %w", err)
	}

	logger.Info("crawl report saved to database", "seed", crawlReport.Seed)
	return nil
}
