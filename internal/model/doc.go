// Package model defines the core data structures used throughout chanscout.
//
// This package contains the following main types:
//   - ChannelRecord: One discovered channel (username, subscribers, title)
//   - CrawlResult: A level-2 discovery annotated with its level-1 source
//   - ReportRow: A filtered, classified row of the final report
//   - CrawlReport: The complete result of one two-level crawl
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (telegram, crawler, aggregate, report,
// database) need to use these types, so centralizing them prevents import
// cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
