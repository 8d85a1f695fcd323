package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/incommon/internal/formatter"
	"github.com/desertthunder/incommon/internal/services"
	"github.com/desertthunder/incommon/internal/shared"
)

const maxBatchWorkers = 4

// BatchOpts configures [CompareMany].
type BatchOpts struct {
	Format    formatter.Format // Export format for each pairing (default: json)
	OutputDir string           // Base output directory (default: incommon_export_{epoch})
	Workers   int              // Concurrent comparisons (default: 1, max: 4)
	Site      *services.Site   // Film links for CSV and Markdown exports
}

// PairingResult is the outcome of comparing the anchor with one other member.
type PairingResult struct {
	Other  string `json:"other"`
	Common int    `json:"common"`
	File   string `json:"file,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BatchResult summarizes a [CompareMany] run. Results are ranked by films in common.
type BatchResult struct {
	Anchor       string          `json:"anchor"`
	Total        int             `json:"total"`
	Succeeded    int             `json:"succeeded"`
	Failed       int             `json:"failed"`
	OutputDir    string          `json:"output_dir"`
	ManifestPath string          `json:"-"`
	Results      []PairingResult `json:"results"`
}

// CompareMany compares anchor with each of others using a small worker pool and writes one export per pairing.
//
// A failed pairing is recorded and the rest continue. A manifest.json listing every pairing is written last.
// Every worker runs a full comparison, so the anchor's lists are read once per pairing.
// With the default single worker list pages are walked one at a time, as in a lone comparison.
func CompareMany(ctx context.Context, prog chan<- ProgressUpdate, comparer Comparer, anchor string, others []string, opts BatchOpts) (*BatchResult, error) {
	if comparer == nil {
		return nil, fmt.Errorf("%w: comparer not initialized", shared.ErrServiceUnavailable)
	}
	if len(others) == 0 {
		return nil, fmt.Errorf("%w: no members to compare with", shared.ErrMissingArgument)
	}

	if opts.Format == "" {
		opts.Format = formatter.JSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("incommon_export_%d", time.Now().Unix())
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Workers > maxBatchWorkers {
		opts.Workers = maxBatchWorkers
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	jobs := make(chan string, len(others))
	results := make(chan PairingResult, len(others))

	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for other := range jobs {
				if ctx.Err() != nil {
					return
				}
				results <- comparePairing(ctx, comparer, anchor, other, opts)
			}
		}()
	}

	for _, other := range others {
		jobs <- other
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	batch := &BatchResult{
		Anchor:    anchor,
		Total:     len(others),
		OutputDir: opts.OutputDir,
		Results:   make([]PairingResult, 0, len(others)),
	}

	completed := 0
	for res := range results {
		completed++
		batch.Results = append(batch.Results, res)
		if res.Error == "" {
			batch.Succeeded++
			sendProgress(prog, pairDoneUpdate(completed, len(others), res.Other, res.Common))
		} else {
			batch.Failed++
			sendProgress(prog, pairFailedUpdate(completed, len(others), res.Other, errors.New(res.Error)))
		}
	}

	if err := ctx.Err(); err != nil {
		return batch, err
	}

	sort.SliceStable(batch.Results, func(i, j int) bool {
		a, b := batch.Results[i], batch.Results[j]
		if (a.Error == "") != (b.Error == "") {
			return a.Error == ""
		}
		if a.Common != b.Common {
			return a.Common > b.Common
		}
		return a.Other < b.Other
	})

	manifestPath := filepath.Join(opts.OutputDir, "manifest.json")
	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return batch, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, append(data, '\n'), 0644); err != nil {
		return batch, fmt.Errorf("comparisons completed but failed to write manifest: %w", err)
	}
	batch.ManifestPath = manifestPath
	return batch, nil
}

// comparePairing runs one comparison and writes its export.
func comparePairing(ctx context.Context, comparer Comparer, anchor, other string, opts BatchOpts) PairingResult {
	res := PairingResult{Other: other}

	result, err := comparer.Compare(ctx, nil, anchor, other)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Common = len(result.Pairs)

	path := filepath.Join(opts.OutputDir, fmt.Sprintf("%s_%s.%s", anchor, other, opts.Format.Ext()))
	if err := formatter.WriteExport(result, opts.Format, opts.Site, path); err != nil {
		res.Error = err.Error()
		return res
	}
	res.File = path
	return res
}
