// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles configuration and database initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Create a config.toml from the embedded template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the run history database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "session",
				Usage: "Seed the platform session from a browser cURL command",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to file containing cURL command",
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Config file to store the extracted token in",
						Value:   "config.toml",
					},
				},
				Action: r.SetupSession,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication against the platform",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with the configured credentials and verify the session",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "email",
						Usage: "Override the configured account email",
					},
					&cli.StringFlag{
						Name:  "password",
						Usage: "Override the configured account password",
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Config file to store the session token in",
						Value:   "config.toml",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check backend health and current session state",
				Action: r.AuthStatus,
			},
			{
				Name:  "spotify",
				Usage: "Authenticate with Spotify using OAuth2",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Config file to store refreshed tokens in",
						Value:   "config.toml",
					},
				},
				Action: r.AuthSpotify,
			},
		},
	}
}

// apiCommand handles direct API calls against the platform
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the platform backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET against a backend path, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:  "dump",
				Usage: "Dump account state (profile, songs, requests, playlists, subscription)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Save dump to account_dump.json",
						Value: false,
					},
				},
				Action: r.APIDump,
			},
		},
	}
}

// checkCommand runs the smoke-test suites.
func checkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Run check suites against the configured deployment",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run all suites, or the named ones",
				Arguments: []cli.Argument{
					&cli.StringArgs{
						Name: "suites",
						Min:  0,
						Max:  -1,
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the run report as JSON",
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Persist the run report to the history database",
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Worker count for the concurrent suite (overrides config)",
					},
				},
				Action: r.CheckRun,
			},
			{
				Name:   "list",
				Usage:  "List available suites and their checks",
				Action: r.CheckList,
			},
		},
	}
}

// probeCommand runs load-shaped probes.
func probeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "probe",
		Usage: "Targeted probes against the platform",
		Commands: []*cli.Command{
			{
				Name:  "concurrent",
				Usage: "Submit audience requests concurrently and verify all land",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent submitters",
						Value: 5,
					},
					&cli.IntFlag{
						Name:  "requests",
						Usage: "Total requests to dispatch (default: one per worker)",
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Dispatch rate in requests/sec (0 = client default)",
					},
					&cli.StringFlag{
						Name:  "slug",
						Usage: "Musician page to submit against (default: authenticated musician)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the probe result as JSON",
					},
				},
				Action: r.ProbeConcurrent,
			},
		},
	}
}

// reportCommand reviews and exports persisted runs.
func reportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Review and export persisted check runs",
		Commands: []*cli.Command{
			{
				Name:  "history",
				Usage: "List recent runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum runs to list",
						Value: 20,
					},
				},
				Action: r.ReportHistory,
			},
			{
				Name:  "show",
				Usage: "Show a persisted run's results",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "run-id"},
				},
				Action: r.ReportShow,
			},
			{
				Name:  "export",
				Usage: "Export a persisted run to a file",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "run-id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: json, csv, or markdown",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output base path (extension is added)",
					},
				},
				Action: r.ReportExport,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive check runs.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for running check suites",
		Action:  r.TUI,
	}
}
