package db

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// DefaultMigrationsURL points at the migrations shipped with the repository,
// relative to the repository root.
const DefaultMigrationsURL = "file://internal/db/migrations"

// MigrateUp applies all pending up migrations. It is a no-op when the schema
// is already current.
func MigrateUp(migrationsURL, dsn string) error {
	return runMigration(migrationsURL, dsn, func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateDown rolls back the given number of migrations.
func MigrateDown(migrationsURL, dsn string, steps int) error {
	if steps < 1 {
		return errors.New("steps must be positive")
	}
	return runMigration(migrationsURL, dsn, func(m *migrate.Migrate) error { return m.Steps(-steps) })
}

func runMigration(migrationsURL, dsn string, run func(*migrate.Migrate) error) error {
	migrator, err := migrate.New(migrationsURL, dsn)
	if err != nil {
		return fmt.Errorf("init migrator failed: %w", err)
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := run(migrator); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
