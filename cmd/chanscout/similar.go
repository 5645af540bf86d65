package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chanscout/chanscout/internal/config"
	"github.com/chanscout/chanscout/internal/lineformat"
	"github.com/chanscout/chanscout/internal/log"
	"github.com/chanscout/chanscout/internal/model"
	"github.com/chanscout/chanscout/internal/report"
	"github.com/chanscout/chanscout/internal/telegram"
)

// NewSimilarCmd creates the similar command.
// It fetches the first-hop recommendations only, without the recursive
// level-2 crawl.
func NewSimilarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "similar [channel]",
		Short: "List the similar channels recommended for one channel",
		Long: `Similar fetches the platform's "similar channels" recommendations for a
single channel and prints them one per line.

This is the first hop of a crawl without the recursive second level:
no filtering, no deduplication, no delay between requests. The output
line template is configurable with --line-format.

Examples:
  # List recommendations for a channel
  chanscout similar durov

  # Custom line template
  chanscout similar --line-format "{username} ({participants_count})" durov

  # JSON output
  chanscout similar --json durov`,
		Args: cobra.ExactArgs(1),
		RunE: runSimilarCmd,
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

	// Output flags
	cmd.Flags().String("line-format", lineformat.DefaultFormat,
		"Template for output lines")
	cmd.Flags().BoolP("json", "j", false,
		"Output the channel list as JSON")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .chanscout in current or home directory)")

	return cmd
}

// runSimilarCmd executes the similar command.
func runSimilarCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildSimilarConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	cfg.Verbose = getVerboseFlag(cmd)
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return runSimilar(ctx, cfg, logger)
}

// buildSimilarConfig creates a Config for the similar command.
// The similar command has no level-2 behavior, so only connection and
// output settings are read.
func buildSimilarConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

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
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if err := applyFlagOverrides(cmd, cfg); err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.Seeds = []string{strings.TrimPrefix(strings.TrimSpace(args[0]), "@")}

	return cfg, nil
}

// runSimilar fetches and prints the level-1 recommendations.
func runSimilar(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	seed := cfg.Seeds[0]

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

	fetcher := telegram.NewFetcher(client, telegram.WithFetcherLogger(logger))
	records := fetcher.Fetch(ctx, seed)
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Printf("No recommendations found for @%s\n", seed)
		return nil
	}

	crawlReport := model.NewCrawlReport(seed)
	crawlReport.Level1 = records

	if cfg.JSONReport {
		writer := report.NewJSONWriter(os.Stdout, report.WithPrettyPrint())
		_, err = writer.WriteLevel1(crawlReport)
		return err
	}

	codec := lineformat.New(cfg.LineFormat, lineformat.WithLogger(logger))
	writer := report.NewTextWriter(os.Stdout, report.WithLineCodec(codec))
	_, err = writer.WriteLevel1(crawlReport)
	return err
}
