package crawler

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/chanscout/chanscout/internal/model"
)

// Job is a cancellable asynchronous handle around one crawl.
//
// Start returns immediately; the caller may poll Done, block on Wait, or
// Cancel the job between level-2 iterations. The final report is delivered
// through the handle on completion, never through a fire-and-forget side
// effect.
type Job struct {
	// id uniquely identifies the job for logging and history records.
	id string

	// seed is the channel the job crawls from.
	seed string

	// cancel aborts the crawl at its next iteration boundary.
	cancel context.CancelFunc

	// done closes when the crawl goroutine finishes.
	done chan struct{}

	// mu guards report and err, written once by the crawl goroutine.
	mu     sync.Mutex
	report *model.CrawlReport
	err    error
}

// Start launches a crawl for the seed and returns its handle.
// The crawl runs on its own goroutine; cancelling ctx cancels the job.
func (c *Crawler) Start(ctx context.Context, seed string) *Job {
	jobCtx, cancel := context.WithCancel(ctx)

	j := &Job{
		id:     uuid.NewString(),
		seed:   seed,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	c.logger.Info("crawl job started", "job", j.id, "seed", seed)

	go func() {
		defer close(j.done)
		defer cancel()

		report, err := c.Crawl(jobCtx, seed)

		j.mu.Lock()
		j.report = report
		j.err = err
		j.mu.Unlock()

		if err != nil {
			c.logger.Warn("crawl job aborted", "job", j.id, "seed", seed, "error", err)
			return
		}
		c.logger.Info("crawl job finished", "job", j.id, "seed", seed)
	}()

	return j
}

// ID returns the job identifier.
func (j *Job) ID() string {
	return j.id
}

// Seed returns the seed channel the job crawls from.
func (j *Job) Seed() string {
	return j.seed
}

// Done returns a channel closed when the job finishes, whether it
// completed or was cancelled.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Cancel requests cancellation. The crawl stops at its next iteration
// boundary; an in-flight fetch is not interrupted. Safe to call more than
// once and after completion.
func (j *Job) Cancel() {
	j.cancel()
}

// Wait blocks until the job finishes or ctx is cancelled, then returns the
// job's result. Cancelling ctx abandons the wait, not the job.
func (j *Job) Wait(ctx context.Context) (*model.CrawlReport, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-j.done:
		return j.Result()
	}
}

// Result returns the report and error of a finished job.
// Calling Result before the job finishes returns (nil, nil); poll Done or
// use Wait for completion.
func (j *Job) Result() (*model.CrawlReport, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.report, j.err
}
