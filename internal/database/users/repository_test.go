package users

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/sessionauth/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "users.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewRepository(db)
}

func TestRepository_Add(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	user, err := repo.Add(ctx, &entities.User{Username: "sue", Password: "hash-1"})

	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)
	assert.Equal(t, "sue", user.Username)
	assert.Equal(t, "hash-1", user.Password)

	second, err := repo.Add(ctx, &entities.User{Username: "bob", Password: "hash-2"})
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.ID)
}

func TestRepository_Add_DoesNotMutateInput(t *testing.T) {
	repo := setupTestDB(t)

	input := &entities.User{Username: "sue", Password: "hash"}
	_, err := repo.Add(context.Background(), input)

	require.NoError(t, err)
	assert.Zero(t, input.ID)
}

func TestRepository_Add_DuplicateUsername(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.Add(ctx, &entities.User{Username: "sue", Password: "hash-1"})
	require.NoError(t, err)

	_, err = repo.Add(ctx, &entities.User{Username: "sue", Password: "hash-2"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	found, err := repo.FindBy(ctx, ByUsername("sue"))
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, "hash-1", found[0].Password)
}

func TestRepository_Add_UsernameIsCaseSensitive(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.Add(ctx, &entities.User{Username: "sue", Password: "hash"})
	require.NoError(t, err)

	_, err = repo.Add(ctx, &entities.User{Username: "Sue", Password: "hash"})
	require.NoError(t, err)

	found, err := repo.FindBy(ctx, ByUsername("SUE"))
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestRepository_FindBy(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	sue, err := repo.Add(ctx, &entities.User{Username: "sue", Password: "hash-1"})
	require.NoError(t, err)
	_, err = repo.Add(ctx, &entities.User{Username: "bob", Password: "hash-2"})
	require.NoError(t, err)

	t.Run("by username", func(t *testing.T) {
		found, err := repo.FindBy(ctx, ByUsername("sue"))
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, sue.ID, found[0].ID)
		assert.Equal(t, "hash-1", found[0].Password)
	})

	t.Run("by id", func(t *testing.T) {
		found, err := repo.FindBy(ctx, Filter{"id": sue.ID})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "sue", found[0].Username)
	})

	t.Run("no match returns empty slice", func(t *testing.T) {
		found, err := repo.FindBy(ctx, ByUsername("nobody"))
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("empty username matches literally", func(t *testing.T) {
		found, err := repo.FindBy(ctx, ByUsername(""))
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("empty filter returns all users in id order", func(t *testing.T) {
		found, err := repo.FindBy(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, "sue", found[0].Username)
		assert.Equal(t, "bob", found[1].Username)
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		_, err := repo.FindBy(ctx, Filter{"password": "hash-1"})
		assert.ErrorIs(t, err, ErrUnknownFilterField)
	})
}

func TestFilter_Fields(t *testing.T) {
	f := Filter{"username": "sue", "id": 1}
	assert.Equal(t, []string{"id", "username"}, f.Fields())
}
