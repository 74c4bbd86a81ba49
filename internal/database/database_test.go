package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/sessionauth/internal/entities"
)

// setupTestDB creates a fresh test database
func setupTestDB(t *testing.T) *Database {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDatabase(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewDatabase_Migrates(t *testing.T) {
	db := setupTestDB(t)

	assert.True(t, db.DB.Migrator().HasTable(&entities.User{}))
	assert.True(t, db.DB.Migrator().HasIndex(&entities.User{}, "Username"))
	assert.True(t, db.DB.Migrator().HasTable(&entities.AuditEvent{}))
}

func TestDatabase_Ping(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Ping(context.Background()))

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping(context.Background()))
}

func TestDatabase_MigrateIsIdempotent(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())
}

func TestDatabase_SQLDB(t *testing.T) {
	db := setupTestDB(t)

	sqlDB, err := db.SQLDB()
	require.NoError(t, err)

	var n int
	require.NoError(t, sqlDB.QueryRow("SELECT COUNT(*) FROM users").Scan(&n))
	assert.Zero(t, n)
}
