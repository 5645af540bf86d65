package model

import "time"

// ReportRow is one row of the final level-2 report: a deduplicated,
// filtered discovery enriched with its topic and the notable flag.
type ReportRow struct {
	// Source is the level-1 username that led to this discovery.
	Source string `json:"source"`

	// Record is the discovered channel.
	Record ChannelRecord `json:"record"`

	// Topic is the classifier label derived from the title.
	Topic string `json:"topic"`

	// Notable is true when the subscriber count reached the notable
	// threshold. It is independent of the minimum-size filter: every row in
	// a report already passed the filter, notable only highlights the large
	// ones.
	Notable bool `json:"notable"`
}

// NotableLink returns the channel link for notable rows and an empty string
// otherwise. Report sinks render it as a dedicated highlight column.
func (r ReportRow) NotableLink() string {
	if !r.Notable {
		return ""
	}
	return r.Record.Link()
}

// AggregateStats records what the aggregation stage did to the raw result
// list. The counts are diagnostic only and not part of the data contract.
type AggregateStats struct {
	// Input is the number of raw CrawlResults handed to the stage.
	Input int `json:"input"`

	// Kept is the number of rows that survived filtering and deduplication.
	Kept int `json:"kept"`

	// FilteredOut is the number of rows dropped by the minimum-size filter.
	FilteredOut int `json:"filtered_out"`

	// Duplicates is the number of rows dropped because their username was
	// already seen.
	Duplicates int `json:"duplicates"`

	// Invalid is the number of rows dropped for an absent or sentinel
	// username.
	Invalid int `json:"invalid"`
}

// CrawlReport is the complete result of one two-level crawl.
type CrawlReport struct {
	// Seed is the channel the crawl started from, without the leading "@".
	Seed string `json:"seed"`

	// StartedAt is when the crawl began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the total wall-clock time of the crawl, including the
	// mandatory inter-request delays.
	Duration time.Duration `json:"duration"`

	// Level1 holds the first-hop records in the order the platform returned
	// them. Level-1 output is never filtered.
	Level1 []ChannelRecord `json:"level1"`

	// Rows holds the final aggregated level-2 report rows.
	Rows []ReportRow `json:"rows"`

	// Stats describes the aggregation outcome.
	Stats AggregateStats `json:"stats"`

	// Level2Attempted is the number of level-1 channels whose
	// recommendations were fetched.
	Level2Attempted int `json:"level2_attempted"`

	// Level2Found is the total number of raw level-2 records before
	// filtering and deduplication.
	Level2Found int `json:"level2_found"`
}

// NewCrawlReport creates an empty report for the given seed with the start
// time set to now.
func NewCrawlReport(seed string) *CrawlReport {
	return &CrawlReport{
		Seed:      seed,
		StartedAt: time.Now(),
	}
}

// Empty reports whether the crawl produced no usable level-2 rows.
// An empty report is a valid, non-exceptional terminal state.
func (r *CrawlReport) Empty() bool {
	return len(r.Rows) == 0
}
