package main

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/desertthunder/incommon/internal/formatter"
	"github.com/desertthunder/incommon/internal/services"
	"github.com/desertthunder/incommon/internal/shared"
	"github.com/desertthunder/incommon/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Compare finds the films two members have in common and prints or writes the export.
func (r *Runner) Compare(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	a, b, err := services.ParsePair(cmd.StringArg("a"), cmd.StringArg("b"))
	if err != nil {
		return err
	}

	quiet := cmd.Bool("quiet")
	r.logger.Info("starting comparison", "a", a, "b", b)

	progressCh := make(chan tasks.ProgressUpdate, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progressCh {
			if quiet {
				continue
			}
			switch update.Phase {
			case tasks.FetchProfiles, tasks.MatchFilms:
				r.writeStatus("%s\n", update.Message)
			case tasks.HarvestPage, tasks.FetchPosters:
				r.writeStatus("   %s\n", update.Message)
			case tasks.HarvestDone:
				r.writeStatus("✓ %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Compare(ctx, progressCh, a, b)
	close(progressCh)
	wg.Wait()
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	if !quiet {
		r.writeStatus("\n%s\n\n", formatter.Summary(result))
	}

	if cmd.Bool("save") {
		repo, db, err := r.openRepository(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		saved, err := repo.Save(result)
		if err != nil {
			return err
		}
		r.logger.Info("comparison saved", "id", saved.ID, "pairs", saved.PairCount)
		r.writeStatus("Saved comparison %s\n", saved.ID)
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(result, format, r.site, path); err != nil {
			return err
		}
		r.writeStatus("Wrote %s export to %s\n", format, path)
		return nil
	}

	data, err := formatter.Export(result, format, r.site)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// CompareMany compares one member with several others and writes an export per pairing.
func (r *Runner) CompareMany(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) < 2 {
		return fmt.Errorf("%w: an anchor member and at least one other member", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	anchor, err := services.ParseHandle(args[0])
	if err != nil {
		return err
	}
	others := make([]string, 0, len(args)-1)
	seen := map[string]bool{}
	for _, raw := range args[1:] {
		_, other, err := services.ParsePair(anchor, raw)
		if err != nil {
			return err
		}
		if !seen[other] {
			seen[other] = true
			others = append(others, other)
		}
	}

	progressCh := make(chan tasks.ProgressUpdate, len(others))
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progressCh {
			r.writeStatus("%s\n", update.Message)
		}
	}()

	result, err := tasks.CompareMany(ctx, progressCh, r.engine, anchor, others, tasks.BatchOpts{
		Format:    format,
		OutputDir: cmd.String("output-dir"),
		Workers:   int(cmd.Int("workers")),
		Site:      r.site,
	})
	close(progressCh)
	wg.Wait()
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(result.Results))
	for i, res := range result.Results {
		row := []string{strconv.Itoa(i + 1), res.Other, strconv.Itoa(res.Common), res.File}
		if res.Error != "" {
			row = []string{strconv.Itoa(i + 1), res.Other, "-", "failed: " + res.Error}
		}
		rows = append(rows, row)
	}

	r.writePlainHeader(fmt.Sprintf("Films in common with %s", anchor))
	table := renderTable([]string{"#", "Member", "Common", "Export"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft})
	r.writePlain("%s\n", table)
	return r.writePlain("\nManifest: %s\n", result.ManifestPath)
}
