package tasks

import (
	"context"

	"github.com/desertthunder/incommon/internal/models"
	"github.com/desertthunder/incommon/internal/shared"
)

// Harvest walks a member list from start, following next-page links, and returns its records tagged with category.
//
// Records are deduplicated by key (a later page replaces an earlier record but keeps its position). Traversal
// stops on the last page, after [HarvestOpts.MaxPages] fetches, or at the first page that cannot be fetched or
// parsed; such failures are logged and otherwise treated as an empty final page.
func (e *Engine) Harvest(ctx context.Context, progress chan<- ProgressUpdate, owner, start string, category models.Category) []models.Record {
	logger := shared.WithLogger(e.logger, "owner", owner, "list", category)

	index := make(map[string]int)
	var records []models.Record

	locator := start
	pages := 0
	for locator != "" && pages < e.harvest.MaxPages {
		if pages > 0 {
			if err := e.sleep(ctx, e.harvest.PageDelay); err != nil {
				logger.Warn("harvest interrupted", "err", err)
				break
			}
		}

		pages++
		e.sendProgress(progress, harvestPageUpdate(owner, category, pages, e.harvest.MaxPages, len(records)))

		doc, err := e.fetchDocument(ctx, locator)
		if err != nil {
			logger.Warn("page unavailable, ending list", "url", locator, "err", err)
			break
		}

		result := e.records.Extract(doc)
		for _, r := range result.Records {
			r.Category = category
			if i, ok := index[r.Key]; ok {
				records[i] = r
				continue
			}
			index[r.Key] = len(records)
			records = append(records, r)
		}
		locator = result.Next
	}

	if locator != "" && pages >= e.harvest.MaxPages {
		logger.Warn("page ceiling reached", "pages", pages, "next", locator)
	}

	e.sendProgress(progress, harvestDoneUpdate(owner, category, pages, len(records)))
	logger.Debug("harvested list", "pages", pages, "records", len(records))
	return records
}

// Catalog harvests a member's watched films and then their watchlist, and merges the two.
func (e *Engine) Catalog(ctx context.Context, progress chan<- ProgressUpdate, owner string) *models.Catalog {
	watched := e.Harvest(ctx, progress, owner, e.site.ListURL(owner, models.Watched), models.Watched)
	watchlist := e.Harvest(ctx, progress, owner, e.site.ListURL(owner, models.Watchlist), models.Watchlist)
	return Merge(watchlist, watched)
}

// Merge folds a member's secondary (watchlist) and primary (watched) records into one catalog.
//
// Secondary records go in first so a film on both lists keeps its primary record.
func Merge(secondary, primary []models.Record) *models.Catalog {
	catalog := models.NewCatalog(len(secondary) + len(primary))
	for _, r := range secondary {
		catalog.Put(r)
	}
	for _, r := range primary {
		catalog.Put(r)
	}
	return catalog
}

// Intersect pairs the records of every key present in both catalogs, in a's insertion order.
//
// No common keys yields an empty, non-nil slice.
func Intersect(a, b *models.Catalog) []models.PairedRecord {
	pairs := make([]models.PairedRecord, 0)
	for _, key := range a.Keys() {
		rb, ok := b.Get(key)
		if !ok {
			continue
		}
		ra, _ := a.Get(key)
		pairs = append(pairs, models.PairedRecord{Key: key, OwnerA: ra, OwnerB: rb})
	}
	return pairs
}
