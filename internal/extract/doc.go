// Package extract turns Letterboxd HTML into harvest records, next-page links, poster URLs and member identities.
//
// # Record Strategies
//
// List pages have changed markup over time, so records are read by an ordered chain of [Strategy] values.
// [Extractor.Extract] runs them in order against one parsed [Document]; the first strategy that yields at
// least one record wins. A page where every strategy finds nothing is a valid empty page, not an error.
//
//  1. [LazyPosterStrategy] : current React markup, `[data-component-class="LazyPoster"]` with `data-item-link`
//  2. [LegacyPosterStrategy] : older markup keyed by `data-film-slug`
//
// The next-page link is read once per page, independently of the strategy that matched.
//
// # Asset Strategies
//
// Film detail pages are searched for a poster by [AssetExtractor], again as an ordered chain:
// JSON-LD `image`, then `og:image`, then the `.poster img` element. URLs containing a placeholder
// marker (such as "empty-poster") are never returned.
//
// Nothing in this package performs I/O; callers fetch pages and hand the bodies to [Parse].
package extract
