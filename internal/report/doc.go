// Package report renders crawl results to their output formats.
//
// A Writer produces two artifacts from one crawl: the level-1 channel list
// (text lines in the configured line format) and the aggregated level-2
// report. Text, CSV, JSON, and Markdown writers share the Writer interface,
// so the command layer composes them freely and MultiWriter fans a report
// out to several destinations at once.
package report
