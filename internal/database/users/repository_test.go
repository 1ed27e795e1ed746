package users

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewSilentDatabase(config.Database{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "users.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.DB)
}

func TestRepository_CreateUser(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	user := &entities.User{Name: "John Doe", Email: "john@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))

	assert.Len(t, user.ID, 36)
	assert.False(t, user.CreatedAt.IsZero())

	found, err := repo.GetByEmail(ctx, "john@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, "hash", found.PasswordHash)
}

func TestRepository_CreateUser_DuplicateEmail(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entities.User{Name: "A", Email: "dup@example.com", PasswordHash: "x"}))
	err := repo.Create(ctx, &entities.User{Name: "B", Email: "dup@example.com", PasswordHash: "x"})

	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.True(t, database.IsNotFound(err))
}

func TestRepository_ListExistsCount(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	a := &entities.User{Name: "A", Email: "a@example.com", PasswordHash: "x"}
	b := &entities.User{Name: "B", Email: "b@example.com", PasswordHash: "x"}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	exists, err := repo.Exists(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, exists)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
