// submodule cmd contains command definitions
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/incommon/internal/formatter"
	"github.com/desertthunder/incommon/internal/shared"
	"github.com/urfave/cli/v3"
)

func formatFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   fmt.Sprintf("Export format %v", formatter.Formats),
		Value:   string(formatter.Text),
	}
}

func outputFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write the export to a file instead of stdout",
	}
}

// rootFlags are shared by every command.
func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
	}
}

// Configure loads the config file named by --config before any command runs.
//
// A missing file falls back to built-in defaults so `setup` can create it.
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	path := cmd.String("config")
	if _, err := os.Stat(path); err != nil {
		if cmd.IsSet("config") {
			r.logger.Warn("config file not found, using defaults", "path", path, "error", shared.ErrMissingConfig)
		}
		r.configPath = path
		return ctx, nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return ctx, err
	}
	r.logger.Debug("loaded config", "path", path)
	return ctx, r.SetConfig(config, path)
}

// compareCommand runs a comparison from the command line.
func compareCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Aliases:   []string{"cmp"},
		Usage:     "List the films two Letterboxd members have in common",
		ArgsUsage: "<member-a> <member-b>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "a"},
			&cli.StringArg{Name: "b"},
		},
		Flags: []cli.Flag{
			formatFlag(),
			outputFlag(),
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Archive the result in the export database",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Suppress progress output",
			},
		},
		Action: r.Compare,
	}
}

// compareManyCommand ranks several members by overlap with one anchor member.
func compareManyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "compare-many",
		Aliases:   []string{"rank"},
		Usage:     "Compare one member with several others and rank them by films in common",
		ArgsUsage: "<anchor> <member>...",
		Flags: []cli.Flag{
			formatFlag(),
			&cli.StringFlag{
				Name:  "output-dir",
				Usage: "Directory for per-pairing exports (default: incommon_export_{epoch})",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent comparisons (max 4); above 1 the site sees parallel list walks",
				Value: 1,
			},
		},
		Action: r.CompareMany,
	}
}

// savedCommand manages archived comparisons.
func savedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "saved",
		Usage: "Browse archived comparisons",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List archived comparisons, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "handle",
						Usage: "Only comparisons involving this member",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of comparisons to list (0 for all)",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SavedList,
			},
			{
				Name:      "show",
				Usage:     "Render an archived comparison",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{formatFlag(), outputFlag()},
				Action: r.SavedShow,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete an archived comparison",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.SavedDelete,
			},
		},
	}
}

// serveCommand starts the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve comparisons over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides server.port)",
			},
			&cli.BoolFlag{
				Name:  "no-archive",
				Usage: "Disable saving and the /comparisons routes",
			},
			&cli.BoolFlag{
				Name:  "no-metrics",
				Usage: "Do not serve Prometheus metrics on /metrics",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand initializes configuration and the export database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml if missing and run database migrations",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Revert the most recent migration instead",
			},
		},
		Action: r.Setup,
	}
}

// tuiCommand returns the top-level TUI command for interactive comparisons.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "tui",
		Aliases:   []string{"interactive", "ui"},
		Usage:     "Launch the interactive comparison browser",
		ArgsUsage: "[member-a] [member-b]",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "a"},
			&cli.StringArg{Name: "b"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI owns the terminal",
				Value: "./tmp/incommon-tui.log",
			},
		},
		Action: r.TUI,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		compareCommand, compareManyCommand, savedCommand, serveCommand, setupCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// newApp builds the root command around r.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "incommon",
		Usage:    "Find the films two Letterboxd members have in common",
		Version:  "0.1.0",
		Flags:    rootFlags(),
		Before:   r.Configure,
		Commands: r.register(),
	}
}
