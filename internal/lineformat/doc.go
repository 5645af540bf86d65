// Package lineformat implements the delimited-line codec for channel
// records.
//
// A format specification is a template string with named placeholders, for
// example "{username}:{participants_count}:{title}". The codec compiles the
// specification into a matcher once at construction time and reuses it for
// every line, so the hot per-line decode path never rebuilds patterns and
// never uses errors for the ordinary "no match" outcome.
package lineformat
