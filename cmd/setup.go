package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/taskdeck/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to --config unless a file is already there.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); err == nil {
		r.logger.Info("config file already exists", "path", r.configPath)
		return r.writePlain("Config already present at %s\n", r.configPath)
	}

	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", r.configPath)
	return r.writePlain("✓ Config written to %s\n", r.configPath)
}

// SetupDatabase initializes the journal database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		return r.writePlain("✓ Rolled back latest migration\n")
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
}

// SetupSession lifts the bearer token and cookie out of a browser "Copy as cURL"
// command and stores them in the [api] section of the config file.
func (r *Runner) SetupSession(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var session *shared.Session
	var err error
	if curlFile != "" {
		session, err = shared.ParseSessionFile(curlFile)
	} else {
		session, err = shared.ParseSession(curlCmd)
	}
	if err != nil {
		return fmt.Errorf("failed to parse cURL command: %w", err)
	}

	config, err := shared.LoadConfig(r.configPath)
	if errors.Is(err, shared.ErrMissingConfig) {
		config, err = shared.DefaultConfig(), nil
	}
	if err != nil {
		return err
	}

	session.Apply(config)
	if err := shared.SaveConfig(r.configPath, config); err != nil {
		return err
	}
	r.config = config

	r.logger.Info("session saved", "path", r.configPath, "token", session.Token != "", "cookie", session.Cookie != "")
	return r.writePlain("✓ Session saved to %s\n", r.configPath)
}
