// Package testutil provides database fixtures shared by package tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/Bekawhite/DigitalLab/config"
	"github.com/Bekawhite/DigitalLab/internal/db"
)

// OpenSQLite opens a fresh, fully migrated SQLite database under t.TempDir.
// The pool is closed when the test finishes.
func OpenSQLite(t testing.TB) *sql.DB {
	t.Helper()

	cfg := config.Config{
		Database: config.DatabaseConfig{
			Driver:     config.DriverSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "lab_results.db"),
		},
	}
	conn, err := db.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})

	if err := db.MigrateUp(conn, config.DriverSQLite); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}
