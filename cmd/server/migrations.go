package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-decks/internal/platform/migrations"
)

// handleMigrations runs one goose command against db and reports the
// resulting schema version.
func handleMigrations(ctx context.Context, db *sql.DB, driver, command string, logger *slog.Logger) error {
	switch command {
	case migrations.CommandUp, migrations.CommandDown, migrations.CommandReset,
		migrations.CommandStatus, migrations.CommandVersion:
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}

	logger.Info("executing migrations", slog.String("command", command), slog.String("driver", driver))
	if err := migrations.Run(ctx, db, driver, command, logger); err != nil {
		return err
	}

	version, err := migrations.Version(ctx, db, driver)
	if err != nil {
		return err
	}
	logger.Info("schema version", slog.Int64("version", version))
	return nil
}
