package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/mvx/internal/shared"
	"github.com/urfave/cli/v3"
)

// loadOrCreateConfig reads path, writing the embedded template there first when it does not exist.
// Any failure falls back to the defaults.
func (r *Runner) loadOrCreateConfig(path string) *shared.Config {
	if _, err := os.Stat(path); err != nil {
		r.logger.Info("config file not found, creating from template", "path", path)
		if err := shared.CreateConfigFile(path); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			return shared.DefaultConfig()
		}
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "error", err)
		return shared.DefaultConfig()
	}
	return config
}

// SetupDatabase creates the config file when missing, then initializes the database and runs migrations.
// With --rollback it reverts the latest migration instead.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	config := r.loadOrCreateConfig(configPath)

	r.logger.Info("initializing database", "path", config.Database.Path)
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if cmd.Bool("rollback") {
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		version, _ := shared.SchemaVersion(db)
		return r.writePlain("✓ Rolled back %s to schema version %d\n", config.Database.Path, version)
	}

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	version, err := shared.SchemaVersion(db)
	if err != nil {
		return err
	}
	r.logger.Info("setup complete", "database", config.Database.Path, "schema", version)

	if !config.TMDB.HasCredentials() {
		r.writePlainln("Next steps:")
		r.writePlain("1. Set tmdb.api_key in %s or export TMDB_API_KEY\n", configPath)
		r.writePlain("2. Run 'mvx movies search \"your movie\"' to test the catalog\n")
	}
	return r.writePlain("✓ Database ready at %s (schema version %d)\n", config.Database.Path, version)
}
