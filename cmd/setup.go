package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/gaelon/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file from the embedded template when missing,
// then initializes the token database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath

	config := r.config
	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("✓ Config written to %s\n", configPath)

		if config, err = shared.ResolveConfig(configPath); err != nil {
			return err
		}
	} else {
		r.writePlain("✓ Using config %s\n", configPath)
	}
	if config == nil {
		config = shared.DefaultConfig()
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.writePlain("✓ Database ready at %s\n", config.Database.Path)

	if err := config.Validate(); err != nil {
		r.writePlainln("Next steps:")
		r.writePlain("1. Register an app at https://developer.spotify.com/dashboard\n")
		r.writePlain("2. Set credentials.spotify.client_id in %s (or %s in .env)\n", configPath, shared.EnvClientID)
		r.writePlain("3. Add %s as a redirect URI, then run 'gaelon auth login'\n", config.Credentials.Spotify.RedirectURI)
		return nil
	}

	r.writePlain("\nRun 'gaelon auth login' to sign in.\n")
	return nil
}
