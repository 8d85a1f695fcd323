package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/incommon/internal/shared"
	"github.com/desertthunder/incommon/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI. Handles given as arguments skip the input form.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	if err := r.SetLogger(fileLogger); err != nil {
		return err
	}

	model := ui.NewModel(ctx, r.engine, r.site, cmd.StringArg("a"), cmd.StringArg("b"))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
