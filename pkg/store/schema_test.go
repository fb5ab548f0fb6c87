package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateSchema(t *testing.T) {
	// Arrange
	db := openMemoryDB(t)

	// Act
	err := CreateSchema(db)

	// Assert
	require.NoError(t, err)

	// Verify schema version table exists
	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)

	// Verify all tables exist
	tables := []string{"documents", "spans", "warnings"}
	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}
}

func TestCreateSchema_Idempotent(t *testing.T) {
	// Arrange
	db := openMemoryDB(t)

	// Act - create schema twice
	err := CreateSchema(db)
	require.NoError(t, err)

	err = CreateSchema(db)

	// Assert - should not error on second call
	assert.NoError(t, err)
}

func TestCreateSchema_NewerVersion(t *testing.T) {
	// Arrange
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "future.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, CreateSchema(db))
	_, err = db.Exec("UPDATE schema_version SET version = ?", SchemaVersion+1)
	require.NoError(t, err)

	// Act
	err = CreateSchema(db)

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}
