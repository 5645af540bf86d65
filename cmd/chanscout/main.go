// Package main is the entry point for the chanscout CLI.
//
// chanscout crawls Telegram's "similar channels" recommendations: one
// level-1 fetch for a seed channel, then one level-2 fetch per level-1
// discovery, aggregated into a deduplicated, size-filtered report.
package main

// main delegates to Execute to keep this function trivially testable.
func main() {
	Execute()
}
