package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/sessionauth/internal/database"
	"github.com/mrlokans/sessionauth/internal/database/users"
)

func TestSeed(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "auth.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, seed(context.Background(), dbPath, true, logger))
	// A second run without -fresh skips the existing accounts.
	require.NoError(t, seed(context.Background(), dbPath, false, logger))

	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	found, err := users.NewRepository(db.DB).FindBy(context.Background(), users.Filter{})
	require.NoError(t, err)
	require.Len(t, found, len(demoAccounts))
	for i, u := range found {
		assert.Equal(t, demoAccounts[i].Username, u.Username)
		assert.NotEqual(t, demoAccounts[i].Password, u.Password)
	}
}
