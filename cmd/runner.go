package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/incommon/internal/repositories"
	"github.com/desertthunder/incommon/internal/services"
	"github.com/desertthunder/incommon/internal/shared"
	"github.com/desertthunder/incommon/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer // results
	status     io.Writer // progress lines, kept off output so exports can be piped
	fetcher    tasks.PageFetcher
	site       *services.Site
	engine     tasks.Comparer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Status     io.Writer
	Fetcher    tasks.PageFetcher // replaces the HTTP client, mainly for tests
	Comparer   tasks.Comparer    // replaces the engine built from Fetcher
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) (*Runner, error) {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Status == nil {
		opts.Status = os.Stderr
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		status:     opts.Status,
		fetcher:    opts.Fetcher,
		engine:     opts.Comparer,
	}
	if err := r.wire(); err != nil {
		return nil, err
	}
	return r, nil
}

// wire builds the site, fetcher and engine from the current config and logger.
// A Comparer supplied through [RunnerOpts] is kept as is.
func (r *Runner) wire() error {
	site, err := services.NewSite(r.config.Letterboxd.BaseURL)
	if err != nil {
		return err
	}
	r.site = site

	if r.fetcher == nil {
		r.fetcher = services.NewClient(services.ClientOpts{
			UserAgent:         r.config.Letterboxd.UserAgent,
			Timeout:           r.config.Letterboxd.Timeout(),
			RequestsPerSecond: r.config.Letterboxd.RequestsPerSecond,
		}, r.logger)
	}

	if _, built := r.engine.(*tasks.Engine); r.engine == nil || built {
		r.engine = tasks.NewEngine(r.fetcher, site, tasks.EngineOpts{
			Harvest: tasks.HarvestOpts{
				MaxPages:  r.config.Harvest.MaxPages,
				PageDelay: r.config.Harvest.PageDelay(),
			},
			Enrich: tasks.EnrichOpts{
				BatchSize:          r.config.Enrich.BatchSize,
				BatchDelay:         r.config.Enrich.BatchDelay(),
				PlaceholderMarkers: r.config.Enrich.PlaceholderMarkers,
			},
			Logger: r.logger,
		})
	}
	return nil
}

// SetConfig swaps the configuration and rewires the engine.
func (r *Runner) SetConfig(config *shared.Config, path string) error {
	if err := config.Validate(); err != nil {
		return err
	}
	r.config = config
	r.configPath = path
	if _, ok := r.fetcher.(*services.Client); ok {
		r.fetcher = nil
	}
	return r.wire()
}

// SetLogger replaces the logger used by the runner and the engine.
func (r *Runner) SetLogger(logger *log.Logger) error {
	r.logger = logger
	if _, ok := r.fetcher.(*services.Client); ok {
		r.fetcher = nil
	}
	return r.wire()
}

// openRepository opens the export database from config and brings its schema up to date.
func (r *Runner) openRepository(ctx context.Context) (*repositories.ComparisonRepository, *sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	migrate := func() error { return shared.RunMigrations(db) }
	if err := shared.WithMigrationLock(ctx, r.config.Database.Path, migrate); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return repositories.NewComparisonRepository(db), db, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	output = append(output, '\n')
	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeStatus(format string, args ...any) {
	fmt.Fprintf(r.status, format, args...)
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
