// Package repositories archives finished comparisons in SQLite.
//
// The comparison pipeline never reads from here; [ComparisonRepository] only stores results that a user asked to
// keep (`incommon compare --save`) and reads them back for `incommon saved`.
//
// A saved comparison is one row in comparisons (both identities and the pair count) plus one row per shared film
// in comparison_pairs, ordered by position so the original intersection order survives a round trip.
// Deleting a comparison cascades to its pairs.
package repositories
