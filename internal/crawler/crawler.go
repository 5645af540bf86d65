package crawler

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/chanscout/chanscout/internal/aggregate"
	"github.com/chanscout/chanscout/internal/lineformat"
	"github.com/chanscout/chanscout/internal/model"
)

// DefaultDelay is the inter-request delay observed after every level-2
// fetch, including the last one. This is a deliberate cooperative backoff
// against the platform's flood control, not an optimization target.
const DefaultDelay = 1500 * time.Millisecond

// Fetcher is the one operation the orchestrator needs from the transport
// layer. telegram.Fetcher satisfies it; tests substitute fakes.
//
// Fetch must never fail: transport failures degrade to an empty slice
// inside the fetcher, so the orchestrator only observes result counts.
type Fetcher interface {
	Fetch(ctx context.Context, channel string) []model.ChannelRecord
}

// Crawler drives two-level similar-channel crawls.
//
// A Crawler holds no per-crawl state and is safe for concurrent use; each
// Crawl call owns its own accumulating result list.
type Crawler struct {
	// fetcher issues the recommendation calls.
	fetcher Fetcher

	// codec encodes level-1 records to lines and decodes usernames back.
	// The round trip mirrors the on-disk level-1 format, so whatever is
	// written to the level-1 file is exactly what seeds level 2.
	codec *lineformat.Codec

	// stage filters, deduplicates and enriches the raw level-2 results.
	stage *aggregate.Stage

	// delay is the post-fetch throttle for the level-2 loop.
	delay time.Duration

	// logger records crawl progress.
	logger *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithDelay overrides the inter-request delay.
func WithDelay(d time.Duration) Option {
	return func(c *Crawler) {
		if d >= 0 {
			c.delay = d
		}
	}
}

// WithLogger sets a custom logger for the crawler.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// New creates a Crawler.
// A nil codec falls back to the default line format; a nil stage falls back
// to the default thresholds and topic rules.
func New(fetcher Fetcher, codec *lineformat.Codec, stage *aggregate.Stage, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher: fetcher,
		codec:   codec,
		stage:   stage,
		delay:   DefaultDelay,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.codec == nil {
		c.codec = lineformat.New(lineformat.DefaultFormat)
	}
	if c.stage == nil {
		c.stage = aggregate.New(nil)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// Crawl performs one two-level crawl from the seed channel.
//
// State machine: a single level-1 fetch; no level-1 results terminates the
// crawl early with an empty (but valid) report. Otherwise the level-2 loop
// fetches recommendations for each level-1 result in order, observing the
// throttle delay after every fetch, then hands the accumulated results to
// the aggregation stage.
//
// Cancellation is observed between level-2 iterations and during throttle
// delays; an in-flight fetch is not interrupted mid-call. A cancelled crawl
// returns ctx.Err() and no report - partial reports are never produced.
func (c *Crawler) Crawl(ctx context.Context, seed string) (*model.CrawlReport, error) {
	seed = strings.TrimPrefix(strings.TrimSpace(seed), "@")
	report := model.NewCrawlReport(seed)
	start := time.Now()

	c.logger.Info("level 1: fetching similar channels", "seed", seed)
	level1 := c.fetcher.Fetch(ctx, "@"+seed)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report.Level1 = level1

	if len(level1) == 0 {
		c.logger.Warn("no level 1 results, skipping level 2", "seed", seed)
		report.Duration = time.Since(start)
		return report, nil
	}

	c.logger.Info("level 2: expanding level 1 results",
		"seed", seed,
		"level1", len(level1),
	)

	results := make([]model.CrawlResult, 0, len(level1))
	for i, record := range level1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		username, ok := c.decodeUsername(record)
		if !ok {
			c.logger.Warn("could not extract username from level 1 record",
				"seed", seed,
				"title", record.Title,
			)
			continue
		}

		c.logger.Info("level 2 fetch",
			"progress", i+1,
			"total", len(level1),
			"channel", username,
		)

		level2 := c.fetcher.Fetch(ctx, "@"+username)
		report.Level2Attempted++
		report.Level2Found += len(level2)

		for _, found := range level2 {
			results = append(results, model.CrawlResult{Source: username, Record: found})
		}

		// The delay applies after every fetch, the last one included:
		// the next request may belong to a different crawl on the same
		// session.
		if err := c.throttle(ctx); err != nil {
			return nil, err
		}
	}

	report.Rows, report.Stats = c.stage.Apply(results)
	report.Duration = time.Since(start)

	c.logger.Info("crawl finished",
		"seed", seed,
		"level1", len(report.Level1),
		"attempted", report.Level2Attempted,
		"found", report.Level2Found,
		"kept", len(report.Rows),
		"duration", report.Duration,
	)

	return report, nil
}

// decodeUsername round-trips a level-1 record through the line format and
// extracts the username group, mirroring how level-1 lines persisted to
// disk are re-read to seed level 2.
func (c *Crawler) decodeUsername(record model.ChannelRecord) (string, bool) {
	line, err := c.codec.Encode(record)
	if err != nil {
		return "", false
	}
	return c.codec.DecodeUsername(line)
}

// throttle waits out the inter-request delay or the context, whichever
// ends first.
func (c *Crawler) throttle(ctx context.Context) error {
	if c.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.delay):
		return nil
	}
}
