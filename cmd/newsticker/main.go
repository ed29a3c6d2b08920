package main

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("newsticker failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "newsticker",
		Usage: "RSS news ticker backend",
		Description: `Periodically pulls the configured RSS feeds, stores the items
deduplicated by link in PostgreSQL and serves them as JSON.

Settings come from the YAML file given by --config, a .env file and the
environment (DATABASE_URL, APP_ENV, PORT, LOG_LEVEL, RABBITMQ_URL).`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the YAML config file (optional)",
				EnvVars: []string{"CONFIG_PATH"},
				Value:   "config.yaml",
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			syncCmd(),
			migrateCmd(),
		},
		Action: serve,
	}
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:        "serve",
		Usage:       "Run the HTTP API and the sync scheduler",
		Description: `Applies pending migrations, runs one sync immediately, then one per sync interval, and serves the API until SIGINT or SIGTERM.`,
		Action:      serve,
	}
}

func syncCmd() *cli.Command {
	return &cli.Command{
		Name:   "sync",
		Usage:  "Run a single sync cycle and print its stats",
		Action: syncOnce,
	}
}

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:   "migrate",
		Usage:  "Apply database migrations",
		Action: migrateOnly,
	}
}
