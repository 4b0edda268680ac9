package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/musicagent/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the embedded example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", configPath)
	return r.writePlain("%s %s\n", styles.ok.Render("✓"), "Config written to "+configPath)
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", config.Database.Path, "name", config.Database.Name)

	db, err := shared.OpenDatabase(ctx, config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	version, err := shared.CurrentMigration(db)
	if err != nil {
		return err
	}
	r.logger.Infof("setup complete at migration %d", version)
	return r.writePlain("%s Database ready at migration %d\n", styles.ok.Render("✓"), version)
}

// SetupRollback rolls back the most recently applied migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	dsn, err := config.Database.DSN()
	if err != nil {
		return err
	}
	db, err := shared.NewDatabase(dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		if errors.Is(err, shared.ErrNoMigrations) {
			r.logger.Warn("nothing to roll back")
			return r.writePlain("%s\n", styles.warn.Render("No migrations to roll back"))
		}
		return err
	}

	version, err := shared.CurrentMigration(db)
	if err != nil {
		return err
	}
	return r.writePlain("%s Rolled back to migration %d\n", styles.ok.Render("✓"), version)
}
