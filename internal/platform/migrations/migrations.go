// Package migrations embeds the SQL schema for each supported database
// driver and applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pressly/goose/v3"
)

// TableName is the goose bookkeeping table.
const TableName = "schema_migrations"

//go:embed postgres/*.sql sqlite/*.sql
var embedded embed.FS

// goose keeps its dialect, base FS and table name in package globals.
var gooseMu sync.Mutex

// Supported migration commands.
const (
	CommandUp      = "up"
	CommandDown    = "down"
	CommandReset   = "reset"
	CommandStatus  = "status"
	CommandVersion = "version"
)

// slogGooseLogger forwards goose output to slog. Fatalf does not exit so
// the error can reach the caller.
type slogGooseLogger struct {
	log *slog.Logger
}

func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.log.Info(fmt.Sprintf(format, v...))
}

func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Error(fmt.Sprintf(format, v...))
}

// dialect maps a database driver name to its goose dialect and migration
// directory.
func dialect(driver string) (string, string, error) {
	switch driver {
	case "postgres", "pgx":
		return "postgres", "postgres", nil
	case "sqlite", "sqlite3":
		return "sqlite3", "sqlite", nil
	default:
		return "", "", fmt.Errorf("unsupported database driver for migrations: %q", driver)
	}
}

// setup configures goose for driver. Callers must hold gooseMu.
func setup(driver string, log *slog.Logger) (string, error) {
	d, dir, err := dialect(driver)
	if err != nil {
		return "", err
	}
	if err := goose.SetDialect(d); err != nil {
		return "", fmt.Errorf("failed to set goose dialect: %w", err)
	}
	goose.SetBaseFS(embedded)
	goose.SetTableName(TableName)
	goose.SetLogger(&slogGooseLogger{log: log})
	return dir, nil
}

// Run executes a goose command against db.
func Run(ctx context.Context, db *sql.DB, driver, command string, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "migrations"), slog.String("command", command))

	gooseMu.Lock()
	defer gooseMu.Unlock()

	dir, err := setup(driver, log)
	if err != nil {
		return err
	}

	switch command {
	case CommandUp:
		err = goose.UpContext(ctx, db, dir)
	case CommandDown:
		err = goose.DownContext(ctx, db, dir)
	case CommandReset:
		err = goose.ResetContext(ctx, db, dir)
	case CommandStatus:
		err = goose.StatusContext(ctx, db, dir)
	case CommandVersion:
		var version int64
		version, err = goose.GetDBVersionContext(ctx, db)
		if err == nil {
			log.Info("current schema version", slog.Int64("version", version))
		}
	default:
		return fmt.Errorf("unknown migration command: %q", command)
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	log.Info("migration command completed")
	return nil
}

// Version reports the schema version currently applied to db.
func Version(ctx context.Context, db *sql.DB, driver string) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if _, err := setup(driver, slog.Default()); err != nil {
		return 0, err
	}
	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
