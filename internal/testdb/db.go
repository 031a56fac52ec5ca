package testdb

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/phrazzld/scry-decks/internal/platform/migrations"
	"github.com/phrazzld/scry-decks/internal/platform/sqlite"
	"github.com/stretchr/testify/require"
)

// EnvTestDatabaseURL names the variable holding a PostgreSQL URL for
// integration tests.
const EnvTestDatabaseURL = "SCRY_TEST_DB_URL"

// GetTestDatabaseURL returns the integration database URL, or "" when
// integration tests are not configured.
func GetTestDatabaseURL() string {
	return os.Getenv(EnvTestDatabaseURL)
}

// GetTestDBWithT returns a migrated SQLite database private to t. It is
// closed when the test finishes.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") +
		"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	db, err := sqlite.Open(context.Background(), dsn)
	require.NoError(t, err, "open sqlite test database")
	t.Cleanup(func() { _ = db.Close() })

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t,
		migrations.Run(context.Background(), db, "sqlite", migrations.CommandUp, quiet),
		"migrate sqlite test database")
	return db
}

// WithTx runs fn inside a transaction that is always rolled back.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err, "begin test transaction")
	defer func() { _ = tx.Rollback() }()

	fn(t, tx)
}
