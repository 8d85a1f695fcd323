package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/incommon/internal/formatter"
	"github.com/desertthunder/incommon/internal/models"
	"github.com/desertthunder/incommon/internal/services"
	"github.com/desertthunder/incommon/internal/shared"
	"github.com/urfave/cli/v3"
)

// SavedList lists archived comparisons, newest first.
func (r *Runner) SavedList(ctx context.Context, cmd *cli.Command) error {
	repo, db, err := r.openRepository(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	var saved []*models.SavedComparison
	if raw := cmd.String("handle"); raw != "" {
		handle, err := services.ParseHandle(raw)
		if err != nil {
			return err
		}
		saved, err = repo.ListForHandle(handle)
		if err != nil {
			return err
		}
	} else {
		saved, err = repo.List(int(cmd.Int("limit")))
		if err != nil {
			return err
		}
	}

	if cmd.Bool("json") {
		if saved == nil {
			saved = []*models.SavedComparison{}
		}
		return r.writeJSON(saved, cmd.Bool("pretty"))
	}

	if len(saved) == 0 {
		return r.writePlain("No saved comparisons\n")
	}

	rows := make([][]string, 0, len(saved))
	for _, s := range saved {
		rows = append(rows, []string{
			s.ID,
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
			s.IdentityA.Handle + " & " + s.IdentityB.Handle,
			strconv.Itoa(s.PairCount),
		})
	}

	r.writePlainHeader(fmt.Sprintf("Saved comparisons (%d)", len(saved)))
	table := renderTable([]string{"ID", "Created", "Members", "Films"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight})
	return r.writePlain("%s\n", table)
}

// SavedShow renders one archived comparison in the requested format.
func (r *Runner) SavedShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: comparison id", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	repo, db, err := r.openRepository(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	saved, err := repo.Get(id)
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		return formatter.WriteExport(&saved.ComparisonResult, format, r.site, path)
	}

	data, err := formatter.Export(&saved.ComparisonResult, format, r.site)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// SavedDelete removes an archived comparison.
func (r *Runner) SavedDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: comparison id", shared.ErrMissingArgument)
	}

	repo, db, err := r.openRepository(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repo.Delete(id); err != nil {
		return err
	}
	r.logger.Info("comparison deleted", "id", id)
	return r.writePlain("Deleted %s\n", id)
}
