package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/Bekawhite/DigitalLab/config"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// MigrateUp applies every pending migration for driver.
func MigrateUp(conn *sql.DB, driver string) error {
	migrator, err := newMigrator(conn, driver)
	if err != nil {
		return err
	}
	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migrate up failed: %w", err)
	}
	return nil
}

// MigrateDown reverts every applied migration for driver.
func MigrateDown(conn *sql.DB, driver string) error {
	migrator, err := newMigrator(conn, driver)
	if err != nil {
		return err
	}
	if err := migrator.Down(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migrate down failed: %w", err)
	}
	return nil
}

// newMigrator binds the embedded migrations to an existing pool. The
// migrator is not closed by callers: closing it would close conn.
func newMigrator(conn *sql.DB, driver string) (*migrate.Migrate, error) {
	if driver == "" {
		driver = config.DriverPostgres
	}

	src, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return nil, fmt.Errorf("load %s migrations: %w", driver, err)
	}

	var target database.Driver
	switch driver {
	case config.DriverPostgres:
		target, err = postgres.WithInstance(conn, &postgres.Config{})
	case config.DriverSQLite:
		target, err = migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("init migrator failed: %w", err)
	}

	return migrate.NewWithInstance("iofs", src, driver, target)
}
