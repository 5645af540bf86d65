// Package crawler implements the two-level similar-channel crawl
// orchestrator.
//
// One crawl walks the recommendation graph two hops deep from a seed
// channel: a single level-1 fetch, then one level-2 fetch per level-1
// result with a mandatory inter-request delay. Fetches within one crawl
// are strictly sequential - at most one request is in flight per crawl -
// because the remote endpoint enforces a flood limit keyed on the shared
// session.
//
// The package also provides Job, a cancellable asynchronous handle around
// one crawl, and Batch, which runs independent crawls for multiple seeds
// concurrently over the same transport handle.
package crawler
