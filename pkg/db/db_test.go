package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	database, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer database.Close()

	var journalMode string
	require.NoError(t, database.Get(&journalMode, "PRAGMA journal_mode"))
	assert.Equal(t, "wal", journalMode)
}

func TestOpenCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	database, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer database.Close()

	_, err = os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err)
}

func TestOpenReadOnly(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	rw, err := Open(ctx, dbPath)
	require.NoError(t, err)
	_, err = rw.ExecContext(ctx, "CREATE TABLE things (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
	require.NoError(t, rw.Close())

	ro, err := OpenReadOnly(ctx, dbPath)
	require.NoError(t, err)
	defer ro.Close()

	var count int
	require.NoError(t, ro.Get(&count, "SELECT COUNT(*) FROM things"))
	assert.Equal(t, 0, count)

	_, err = ro.ExecContext(ctx, "INSERT INTO things (id) VALUES (1)")
	assert.Error(t, err)
}

func TestOpenReadOnlyMissingFile(t *testing.T) {
	_, err := OpenReadOnly(context.Background(), filepath.Join(t.TempDir(), "nope.db"))
	assert.Error(t, err)
}

func TestDefaultOutputDBPath(t *testing.T) {
	orig := os.Getenv("SKILLHARVEST_BASE_PATH")
	defer os.Setenv("SKILLHARVEST_BASE_PATH", orig)

	t.Run("with base path override", func(t *testing.T) {
		os.Setenv("SKILLHARVEST_BASE_PATH", "/custom/path")
		path, err := DefaultOutputDBPath()
		require.NoError(t, err)
		assert.Equal(t, "/custom/path/validation.db", path)
	})

	t.Run("defaults under home", func(t *testing.T) {
		os.Setenv("SKILLHARVEST_BASE_PATH", "")
		path, err := DefaultOutputDBPath()
		require.NoError(t, err)
		home, _ := os.UserHomeDir()
		assert.Equal(t, filepath.Join(home, ".skillharvest", "validation.db"), path)
	})
}

func TestMigrationRunner(t *testing.T) {
	ctx := context.Background()
	database, err := Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer database.Close()

	migrations := []Migration{
		{
			Version:     20250101000000,
			Description: "create widgets",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec("CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)")
				return err
			},
		},
		{
			Version:     20250102000000,
			Description: "add widget index",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec("CREATE INDEX idx_widgets_name ON widgets(name)")
				return err
			},
		},
	}

	runner := NewMigrationRunner(database)
	require.NoError(t, runner.Run(ctx, migrations))

	applied, err := runner.AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{20250101000000, 20250102000000}, applied)

	// re-running is a no-op
	require.NoError(t, runner.Run(ctx, migrations))
	applied, err = runner.AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, 2)
}

func TestMigrationRunnerRollsBackFailedMigration(t *testing.T) {
	ctx := context.Background()
	database, err := Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer database.Close()

	migrations := []Migration{
		{
			Version:     20250101000000,
			Description: "broken",
			Up: func(tx *sql.Tx) error {
				if _, err := tx.Exec("CREATE TABLE half_done (id INTEGER)"); err != nil {
					return err
				}
				return errors.New("deliberate failure")
			},
		},
	}

	runner := NewMigrationRunner(database)
	require.Error(t, runner.Run(ctx, migrations))

	// the failed migration's table must not exist
	var count int
	err = database.Get(&count, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='half_done'")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	applied, err := runner.AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
}
