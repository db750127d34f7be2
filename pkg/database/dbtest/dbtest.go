// Package dbtest opens throwaway SQLite stores for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/wz-hub/a-stock-scanner/pkg/config"
	"github.com/wz-hub/a-stock-scanner/pkg/database"
)

// New returns a migrated store in t.TempDir(), closed on cleanup
func New(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.Open(config.DriverSQLite, filepath.Join(t.TempDir(), "scanner.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate test store: %v", err)
	}
	return db
}
