package model

// TitleUnknown is the sentinel title used when the platform returns a channel
// without a readable title. Decoders and the fetcher both fall back to it so
// that downstream stages can treat the sentinel uniformly.
const TitleUnknown = "N/A"

// LinkPrefix is the public URL prefix for a channel username.
const LinkPrefix = "https://t.me/"

// ChannelRecord is one discovered channel.
//
// The record is constructed by the fetcher from one raw API entry and is
// immutable after construction; topic classification happens later, on the
// ReportRow wrapper, so that enrichment never mutates fetched truth.
type ChannelRecord struct {
	// Username is the public handle of the channel, without the leading "@".
	// It is the identity key used for deduplication. An empty username marks
	// the record as unusable.
	Username string `json:"username"`

	// ParticipantsCount is the subscriber count reported by the platform.
	// Zero means unknown or unparseable, never negative.
	ParticipantsCount int `json:"participants_count"`

	// Title is the free-text channel title. Defaults to TitleUnknown when
	// the platform reports none.
	Title string `json:"title"`
}

// Usable reports whether the record carries an identity key.
// Records without a username cannot be deduplicated or linked and are
// skipped by the aggregation stage.
func (r ChannelRecord) Usable() bool {
	return r.Username != "" && r.Username != TitleUnknown
}

// Link returns the public t.me URL for the channel, or an empty string for
// an unusable record.
func (r ChannelRecord) Link() string {
	if !r.Usable() {
		return ""
	}
	return LinkPrefix + r.Username
}

// CrawlResult is an edge-annotated level-2 discovery: the record found plus
// the level-1 username that led to it.
//
// The orchestrator owns the in-flight list of CrawlResults for one crawl;
// the list is replaced at the start of each new crawl, never shared.
type CrawlResult struct {
	// Source is the level-1 username whose recommendations produced this
	// record.
	Source string `json:"source"`

	// Record is the channel found under that source.
	Record ChannelRecord `json:"record"`
}
