// Package models defines the entities of a two-member Letterboxd comparison.
//
// The package contains two groups of types:
//
// 1. Harvest entities: values produced while reading member pages
//   - [Record] : one film on a member's list with slug key, title, poster and optional rating
//   - [Category] : which list a record came from ([Watched] or [Watchlist])
//   - [Identity] : a member's handle, display name and avatar
//
// 2. Comparison entities: values built from two harvested members
//   - [Catalog] : one member's deduplicated key to record mapping, in first-seen order
//   - [PairedRecord] : a film present in both catalogs with each member's record
//   - [ComparisonResult] : both identities plus the pairs handed to presentation
//
// All entities are created fresh for every comparison and are not shared between runs.
// [SavedComparison] wraps a result that a caller chose to archive in the export database, and [Page]
// carries raw fetched content between the HTTP client and the extractors.
package models
