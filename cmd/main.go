package main

import (
	"context"
	"os"

	"github.com/desertthunder/mvx/internal/services"
	"github.com/desertthunder/mvx/internal/shared"
	"github.com/urfave/cli/v3"
)

const configPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	config, err := shared.LoadOrDefault(configPath)
	if err != nil {
		logger.Warn("failed to load config, using defaults", "error", err)
		config = shared.DefaultConfig()
	}

	opts := RunnerOpts{Config: config, ConfigPath: configPath, Logger: logger}
	if config.TMDB.HasCredentials() {
		if tmdb, err := services.NewTMDBService(config.TMDB, nil); err == nil {
			opts.Catalog = tmdb
			opts.Authenticator = tmdb
			opts.Provider = tmdb
		} else {
			logger.Warn("catalog unavailable", "error", err)
		}
	}

	runner := NewRunner(opts)
	defer runner.Close()

	app := &cli.Command{
		Name:     "mvx",
		Usage:    "Explore movies and keep track of your favorites",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		runner.Close()
		logger.Fatalf("application error: %v", err)
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml when missing, initialize the database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   configPath,
			},
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Roll back the most recent migration instead",
			},
		},
		Action: r.SetupDatabase,
	}
}
