package tasks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/incommon/internal/extract"
	"github.com/desertthunder/incommon/internal/models"
	"github.com/desertthunder/incommon/internal/services"
	"github.com/desertthunder/incommon/internal/shared"
	"golang.org/x/sync/errgroup"
)

// PageFetcher fetches one page by absolute URL.
//
// List pages, profile pages and film detail pages all go through it.
// [services.Client] is the production implementation.
type PageFetcher interface {
	FetchPage(ctx context.Context, locator string) (*models.Page, error)
}

// Comparer computes the films two members have in common.
type Comparer interface {
	// Compare resolves both identities, harvests and merges each member's watched films and watchlist,
	// intersects the two catalogs and backfills missing posters on the shared films.
	Compare(ctx context.Context, progress chan<- ProgressUpdate, handleA, handleB string) (*models.ComparisonResult, error)
}

// HarvestOpts bounds pagination of one member list.
type HarvestOpts struct {
	MaxPages  int           // page ceiling guarding against pagination cycles (default: 100)
	PageDelay time.Duration // pause between consecutive page fetches
}

// EnrichOpts controls poster backfilling.
type EnrichOpts struct {
	BatchSize          int           // concurrent detail fetches per batch (default: 5)
	BatchDelay         time.Duration // pause between batches
	PlaceholderMarkers []string      // substrings marking a placeholder poster URL
}

// EngineOpts configures an [Engine].
type EngineOpts struct {
	Harvest HarvestOpts
	Enrich  EnrichOpts
	Logger  *log.Logger
	// Sleep pauses between requests. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Engine implements [Comparer] on top of a [PageFetcher].
type Engine struct {
	fetcher PageFetcher
	site    *services.Site
	records *extract.Extractor
	assets  *extract.AssetExtractor
	harvest HarvestOpts
	enrich  EnrichOpts
	logger  *log.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewEngine creates an Engine that reads pages of site through fetcher.
func NewEngine(fetcher PageFetcher, site *services.Site, opts EngineOpts) *Engine {
	if opts.Harvest.MaxPages <= 0 {
		opts.Harvest.MaxPages = 100
	}
	if opts.Enrich.BatchSize <= 0 {
		opts.Enrich.BatchSize = 5
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}

	return &Engine{
		fetcher: fetcher,
		site:    site,
		records: extract.NewExtractor(opts.Logger),
		assets:  extract.NewAssetExtractor(opts.Enrich.PlaceholderMarkers),
		harvest: opts.Harvest,
		enrich:  opts.Enrich,
		logger:  opts.Logger,
		sleep:   opts.Sleep,
	}
}

func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	sendProgress(progress, update)
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Compare runs the full comparison for handleA and handleB.
//
// Fetch failures never abort the run; they shrink the harvested lists or leave posters empty.
// The only errors are a missing dependency and cancellation of ctx.
func (e *Engine) Compare(ctx context.Context, progress chan<- ProgressUpdate, handleA, handleB string) (*models.ComparisonResult, error) {
	if e.fetcher == nil || e.site == nil {
		return nil, fmt.Errorf("%w: page fetcher not initialized", shared.ErrServiceUnavailable)
	}

	start := time.Now()
	e.sendProgress(progress, fetchProfilesUpdate(handleA, handleB))
	idA, idB := e.ResolveIdentities(ctx, handleA, handleB)

	catalogA := e.Catalog(ctx, progress, handleA)
	catalogB := e.Catalog(ctx, progress, handleB)

	pairs := Intersect(catalogA, catalogB)
	e.sendProgress(progress, intersectUpdate(len(pairs)))

	records := make([]*models.Record, 0, 2*len(pairs))
	for i := range pairs {
		records = append(records, &pairs[i].OwnerA, &pairs[i].OwnerB)
	}
	e.Enrich(ctx, progress, records)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &models.ComparisonResult{IdentityA: idA, IdentityB: idB, Pairs: pairs}
	e.logger.Info("comparison complete",
		"a", handleA, "b", handleB,
		"catalog_a", catalogA.Len(), "catalog_b", catalogB.Len(),
		"common", len(pairs), "duration", time.Since(start).Round(time.Millisecond))
	e.sendProgress(progress, completeUpdate(result))
	return result, nil
}

// ResolveIdentities reads both members' profiles concurrently.
//
// A profile that cannot be fetched yields [models.FallbackIdentity].
func (e *Engine) ResolveIdentities(ctx context.Context, handleA, handleB string) (models.Identity, models.Identity) {
	handles := [2]string{handleA, handleB}
	var ids [2]models.Identity

	var g errgroup.Group
	for i, handle := range handles {
		g.Go(func() error {
			ids[i] = e.resolveIdentity(ctx, handle)
			return nil
		})
	}
	g.Wait()

	return ids[0], ids[1]
}

func (e *Engine) resolveIdentity(ctx context.Context, handle string) models.Identity {
	doc, err := e.fetchDocument(ctx, e.site.ProfileURL(handle))
	if err != nil {
		e.logger.Warn("profile unavailable, using handle", "handle", handle, "err", err)
		return models.FallbackIdentity(handle)
	}
	return extract.Identity(doc, handle)
}

func (e *Engine) fetchDocument(ctx context.Context, locator string) (*extract.Document, error) {
	page, err := e.fetcher.FetchPage(ctx, locator)
	if err != nil {
		return nil, err
	}
	return extract.Parse(page.URL, bytes.NewReader(page.Body))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
