package aggregate

import (
	"log/slog"

	"github.com/chanscout/chanscout/internal/model"
	"github.com/chanscout/chanscout/internal/topic"
)

// Threshold defaults.
// The two thresholds are independent constants: the filter decides whether
// a row survives at all, the notable threshold only highlights large
// channels among the survivors.
const (
	// DefaultFilterThreshold is the minimum subscriber count required to
	// retain a level-2 result. It applies only to level-2 aggregation;
	// level-1 output is never filtered.
	DefaultFilterThreshold = 1000

	// DefaultNotableThreshold is the subscriber count above which a
	// surviving row is flagged as notable in reports.
	DefaultNotableThreshold = 50000
)

// Stage deduplicates, filters and enriches crawl results.
// Construct once and reuse; Apply is read-only on the stage state.
type Stage struct {
	// filterThreshold is the minimum-size filter.
	filterThreshold int

	// notableThreshold flags large channels.
	notableThreshold int

	// classifier assigns topic labels from titles.
	classifier *topic.Classifier

	// logger records diagnostic counts.
	logger *slog.Logger
}

// Option configures a Stage.
type Option func(*Stage)

// WithFilterThreshold overrides the minimum subscriber count.
func WithFilterThreshold(n int) Option {
	return func(s *Stage) {
		if n >= 0 {
			s.filterThreshold = n
		}
	}
}

// WithNotableThreshold overrides the notable subscriber count.
func WithNotableThreshold(n int) Option {
	return func(s *Stage) {
		if n >= 0 {
			s.notableThreshold = n
		}
	}
}

// WithLogger sets a custom logger for the stage.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Stage) {
		s.logger = logger
	}
}

// New creates a Stage using the given classifier.
// A nil classifier falls back to the default rule set.
func New(classifier *topic.Classifier, opts ...Option) *Stage {
	s := &Stage{
		filterThreshold:  DefaultFilterThreshold,
		notableThreshold: DefaultNotableThreshold,
		classifier:       classifier,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.classifier == nil {
		s.classifier = topic.New(nil)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Apply runs the stage over raw crawl results.
//
// Processing order per row: the minimum-size filter first, then the
// username validity check, then deduplication by username (first occurrence
// wins). Survivors are enriched with the notable flag and a topic label.
// Input order is preserved.
func (s *Stage) Apply(results []model.CrawlResult) ([]model.ReportRow, model.AggregateStats) {
	stats := model.AggregateStats{Input: len(results)}

	seen := make(map[string]struct{}, len(results))
	rows := make([]model.ReportRow, 0, len(results))

	for _, result := range results {
		record := result.Record

		// Filter before deduplication: a small duplicate of a kept
		// channel counts as filtered, not as a duplicate.
		if record.ParticipantsCount < s.filterThreshold {
			stats.FilteredOut++
			continue
		}

		if !record.Usable() {
			stats.Invalid++
			s.logger.Warn("skipping row without a usable username",
				"source", result.Source,
				"title", record.Title,
			)
			continue
		}

		if _, dup := seen[record.Username]; dup {
			stats.Duplicates++
			continue
		}
		seen[record.Username] = struct{}{}

		rows = append(rows, model.ReportRow{
			Source:  result.Source,
			Record:  record,
			Topic:   s.classifier.Classify(record.Title),
			Notable: record.ParticipantsCount >= s.notableThreshold,
		})
	}

	stats.Kept = len(rows)

	s.logger.Info("aggregation finished",
		"input", stats.Input,
		"kept", stats.Kept,
		"filtered_out", stats.FilteredOut,
		"duplicates", stats.Duplicates,
		"invalid", stats.Invalid,
	)

	return rows, stats
}
