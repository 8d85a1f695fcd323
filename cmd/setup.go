package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/incommon/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes a config file when none exists, then initializes the export database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return err
		}
		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if err := r.SetConfig(config, configPath); err != nil {
			return err
		}
		r.writePlain("✓ Created %s\n", configPath)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back latest migration")
		rollback := func() error { return shared.RollbackMigration(db) }
		if err := shared.WithMigrationLock(ctx, r.config.Database.Path, rollback); err != nil {
			return err
		}
		return r.writePlain("✓ Rolled back latest migration in %s\n", r.config.Database.Path)
	}

	r.logger.Info("running database migrations")
	migrate := func() error { return shared.RunMigrations(db) }
	if err := shared.WithMigrationLock(ctx, r.config.Database.Path, migrate); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
}
