package db

import (
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_UnknownDirection(t *testing.T) {
	_, err := Migrate(Direction("sideways"), "postgres://unused")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown migration direction "sideways"`)
}

func TestMigrationFiles_Embedded(t *testing.T) {
	src, err := iofs.New(migrationFiles, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, name, err := src.ReadUp(first)
	require.NoError(t, err)
	defer up.Close()
	assert.Equal(t, "applications", name)
}
