package db

import (
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// ---------------------------------------------------------------------------
// Migrations
// ---------------------------------------------------------------------------

func TestEmbeddedMigrations(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	version, dirty, err := db.MigrateVersion(Migrations())
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='runs'`).Scan(&count))
	assert.Equal(t, 1, count)

	// Reapplying is a no-op.
	require.NoError(t, db.MigrateUp(Migrations()))
}

func TestMigrate_MapFS(t *testing.T) {
	t.Parallel()

	migrationsFS := fstest.MapFS{
		"000001_init.up.sql":   &fstest.MapFile{Data: []byte("CREATE TABLE IF NOT EXISTS test_table (id INTEGER PRIMARY KEY);")},
		"000001_init.down.sql": &fstest.MapFile{Data: []byte("DROP TABLE IF EXISTS test_table;")},
	}

	db, err := OpenDB(filepath.Join(t.TempDir(), "mapfs.db"))
	require.NoError(t, err)
	defer db.Close()

	version, _, err := db.MigrateVersion(migrationsFS)
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	require.NoError(t, db.MigrateUp(migrationsFS))
	version, dirty, err := db.MigrateVersion(migrationsFS)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	require.NoError(t, db.MigrateDown(migrationsFS))
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name='test_table'`).Scan(&count))
	assert.Equal(t, 0, count)
}

// ---------------------------------------------------------------------------
// Runs
// ---------------------------------------------------------------------------

func TestRecordAndGetRun(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	at := time.Date(2025, 1, 7, 17, 31, 29, 123000000, time.UTC)
	in := Run{
		Dataset:             "walk2024-05-01_10-00-00",
		RecordedAt:          at,
		Threshold:           0.1,
		Corrected:           true,
		SampleCount:         120,
		Discontinuities:     []int{3, 57},
		PathLengthRaw:       42.5,
		PathLengthCorrected: 30.25,
		OutputDir:           "plots/walk2024-05-01_10-00-00/20250107_173129",
	}

	id, err := db.RecordRun(in)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := db.GetRun(id)
	require.NoError(t, err)
	in.ID = id
	assert.True(t, in.RecordedAt.Equal(got.RecordedAt))
	got.RecordedAt = in.RecordedAt
	assert.Equal(t, in, *got)
}

func TestRecordRun_NoDiscontinuities(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	id, err := db.RecordRun(Run{ID: "fixed-id", Dataset: "a", RecordedAt: time.Unix(0, 0), Threshold: 1})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", id)

	got, err := db.GetRun(id)
	require.NoError(t, err)
	assert.Equal(t, []int{}, got.Discontinuities)
	assert.False(t, got.Corrected)

	_, err = db.RecordRun(Run{ID: "fixed-id", Dataset: "a", RecordedAt: time.Unix(0, 0), Threshold: 1})
	assert.Error(t, err, "duplicate id must fail")
}

func TestGetRun_NotFound(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	_, err := db.GetRun("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"a", "b", "a", "a"} {
		_, err := db.RecordRun(Run{
			ID:         name + string(rune('0'+i)),
			Dataset:    name,
			RecordedAt: base.Add(time.Duration(i) * time.Minute),
			Threshold:  1,
		})
		require.NoError(t, err)
	}

	t.Run("all newest first", func(t *testing.T) {
		runs, err := db.ListRuns("", 0)
		require.NoError(t, err)
		ids := make([]string, len(runs))
		for i, r := range runs {
			ids[i] = r.ID
		}
		assert.Equal(t, []string{"a3", "a2", "b1", "a0"}, ids)
	})

	t.Run("filtered and limited", func(t *testing.T) {
		runs, err := db.ListRuns("a", 2)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, "a3", runs[0].ID)
		assert.Equal(t, "a2", runs[1].ID)
	})

	t.Run("unknown dataset", func(t *testing.T) {
		runs, err := db.ListRuns("zzz", 0)
		require.NoError(t, err)
		assert.Empty(t, runs)
	})
}
