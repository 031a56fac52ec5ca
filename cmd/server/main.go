// Package main runs the Scry deck scheduler API: users, nested decks,
// cards and spaced repetition review sessions.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "scry-decks: %v\n", err)
		os.Exit(1)
	}
}

// run parses args, then either applies a migration command or serves HTTP
// until SIGINT or SIGTERM.
func run(args []string) error {
	flags := pflag.NewFlagSet("scry-decks", pflag.ContinueOnError)
	registerFlags(flags)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := loadAppConfig(flags)
	if err != nil {
		return err
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := setupAppDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}

	if command, _ := flags.GetString(migrateFlag); command != "" {
		defer closeDatabase(db, logger)
		return handleMigrations(ctx, db, cfg.Database.Driver, command, logger)
	}

	app, err := newApplication(cfg, logger, db)
	if err != nil {
		closeDatabase(db, logger)
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
