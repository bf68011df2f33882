package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Direction selects which way Migrate moves the schema.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Migrate moves the applications schema in dir using the embedded SQL files
// and returns the resulting schema version (0 when fully reverted).
// Nothing to apply is not an error.
func Migrate(dir Direction, databaseURL string) (uint, error) {
	if dir != Up && dir != Down {
		return 0, fmt.Errorf("unknown migration direction %q", dir)
	}

	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return 0, fmt.Errorf("iofs.New: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return 0, fmt.Errorf("migrate.NewWithSourceInstance: %w", err)
	}
	defer m.Close()

	step := m.Up
	if dir == Down {
		step = m.Down
	}
	if err := step(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migrate %s: %w", dir, err)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("schema version: %w", err)
	case dirty:
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}
