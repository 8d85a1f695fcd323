package tasks

import (
	"context"

	"github.com/desertthunder/incommon/internal/models"
	"golang.org/x/sync/errgroup"
)

// Enrich backfills posters for records whose ImageRef is empty or a placeholder.
//
// Candidates are looked up in batches of [EnrichOpts.BatchSize]; each batch runs concurrently and finishes before
// the next one starts, with [EnrichOpts.BatchDelay] between batches. A failed lookup leaves ImageRef empty.
// Only ImageRef is written, and each record by exactly one goroutine; callers must not read records until it returns.
func (e *Engine) Enrich(ctx context.Context, progress chan<- ProgressUpdate, records []*models.Record) {
	var candidates []*models.Record
	for _, r := range records {
		if e.assets.IsPlaceholder(r.ImageRef) {
			candidates = append(candidates, r)
		}
	}

	total := len(candidates)
	if total == 0 {
		return
	}
	e.logger.Debug("enriching posters", "candidates", total, "records", len(records))

	for start := 0; start < total; start += e.enrich.BatchSize {
		if start > 0 {
			if err := e.sleep(ctx, e.enrich.BatchDelay); err != nil {
				e.logger.Warn("poster enrichment interrupted", "completed", start, "total", total, "err", err)
				return
			}
		}

		end := min(start+e.enrich.BatchSize, total)

		var g errgroup.Group
		g.SetLimit(e.enrich.BatchSize)
		for _, r := range candidates[start:end] {
			g.Go(func() error {
				r.ImageRef = e.lookupPoster(ctx, r.Key)
				return nil
			})
		}
		g.Wait()

		e.sendProgress(progress, enrichUpdate(end, total))
	}
}

// lookupPoster fetches a film's detail page and returns its poster URL, or "" on any failure.
func (e *Engine) lookupPoster(ctx context.Context, key string) string {
	locator := e.site.FilmURL(key)
	doc, err := e.fetchDocument(ctx, locator)
	if err != nil {
		e.logger.Warn("poster lookup failed", "film", key, "err", err)
		return ""
	}
	return e.assets.Find(doc)
}
