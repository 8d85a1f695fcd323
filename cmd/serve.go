package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/incommon/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}

	var store server.ComparisonStore
	if !cmd.Bool("no-archive") {
		repo, db, err := r.openRepository(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		store = repo
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []server.RouterOption
	if !cmd.Bool("no-metrics") {
		opts = append(opts, server.WithMetrics(server.NewMetrics()))
	}

	srv := server.New(cfg.Addr(), server.NewRouter(r.engine, store, r.logger, opts...))
	if err := server.Run(ctx, srv, r.logger); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
