// Package tasks compares the film lists of two Letterboxd members with real-time progress reporting.
//
// # Pipeline
//
// [Engine.Compare] runs these steps for members A and B:
//
//  1. [Engine.ResolveIdentities] : both profile pages, fetched concurrently
//  2. [Engine.Catalog] for A, then for B : watched films and watchlist harvested in turn by [Engine.Harvest],
//     then folded together by [Merge] so a watched film wins over the same film on the watchlist
//  3. [Intersect] : films present in both catalogs, in A's order
//  4. [Engine.Enrich] : missing or placeholder posters of the shared films, looked up in small concurrent batches
//
// Everything except identity resolution and the members of one enrichment batch runs sequentially, with a fixed
// pause between consecutive page fetches and between enrichment batches.
//
// # Failure Policy
//
// Nothing is retried. A list page that cannot be fetched or parsed ends that list as if it were the last page;
// a profile that cannot be read falls back to the bare handle; a poster lookup that fails leaves the poster empty.
// Cancelling the context stops further requests and makes [Engine.Compare] return the context error.
//
// # Batch Comparison
//
// [CompareMany] fans one anchor member out against several others through a small worker pool,
// writes an export per pairing and a manifest ranking the pairings by films in common.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, owner, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
