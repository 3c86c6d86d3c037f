package testhelpers

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/acme/taskmanager/pkg/database"
)

// NewSQLiteDB returns a migrated SQLite database in a fresh temp file. It is
// closed when the test ends.
func NewSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")

	// golang-migrate closes the handle it is given, so migrate through a
	// separate one.
	migrateDB, err := database.OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := database.RunMigrations(migrateDB, database.DriverSQLite, zap.NewNop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db, err := database.OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}
