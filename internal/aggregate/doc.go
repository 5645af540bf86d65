// Package aggregate implements the filter, deduplication and enrichment
// stage applied to raw level-2 crawl results.
//
// The stage is order-preserving (first occurrence wins) and idempotent:
// applying it to an already-aggregated sequence yields the same sequence.
package aggregate
