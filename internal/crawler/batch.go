package crawler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chanscout/chanscout/internal/model"
)

// DefaultConcurrency is the number of independent crawls run in parallel
// by a Batch. Crawls share one transport handle whose session-wide rate
// limiter spaces the actual requests, so batch concurrency mostly overlaps
// throttle delays rather than multiplying request rate.
const DefaultConcurrency = 2

// Batch runs independent crawls for multiple seeds concurrently.
//
// Each seed gets its own crawl with its own result list; the only shared
// resource is the transport handle inside the Crawler's fetcher, which is
// safe for concurrent use.
type Batch struct {
	// crawler performs the individual crawls.
	crawler *Crawler

	// concurrency is the maximum number of crawls in flight.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithConcurrency sets the maximum number of concurrent crawls.
func WithConcurrency(n int) BatchOption {
	return func(b *Batch) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *Batch) {
		b.logger = logger
	}
}

// NewBatch creates a Batch over the given Crawler.
func NewBatch(crawler *Crawler, opts ...BatchOption) *Batch {
	b := &Batch{
		crawler:     crawler,
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = slog.Default()
	}

	return b
}

// Run crawls every seed and returns the reports in seed order.
//
// A seed whose crawl produced no rows still yields its (empty) report;
// only cancellation aborts the batch, in which case Run returns the
// context error and no reports.
func (b *Batch) Run(ctx context.Context, seeds []string) ([]*model.CrawlReport, error) {
	b.logger.Info("starting crawl batch",
		"seeds", len(seeds),
		"concurrency", b.concurrency,
	)
	start := time.Now()

	reports := make([]*model.CrawlReport, len(seeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			report, err := b.crawler.Crawl(gctx, seed)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	b.logger.Info("crawl batch finished",
		"seeds", len(seeds),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return reports, nil
}
