package authors

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	db, err := database.NewSilentDatabase(config.Database{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "authors.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.DB), db.DB
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	bio := "British author"
	author := &entities.Author{Name: "J.K. Rowling", Bio: &bio}
	require.NoError(t, repo.Create(ctx, author))

	found, err := repo.GetByID(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, "J.K. Rowling", found.Name)
	require.NotNil(t, found.Bio)
	assert.Equal(t, bio, *found.Bio)
}

func TestRepository_ListOrderedByName(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"Jane Austen", "George R.R. Martin", "J.K. Rowling"} {
		require.NoError(t, repo.Create(ctx, &entities.Author{Name: name}))
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "George R.R. Martin", list[0].Name)
	assert.Equal(t, "J.K. Rowling", list[1].Name)
	assert.Equal(t, "Jane Austen", list[2].Name)
}

func TestRepository_UpdateAndDelete(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	author := &entities.Author{Name: "Old"}
	require.NoError(t, repo.Create(ctx, author))

	author.Name = "New"
	require.NoError(t, repo.Update(ctx, author))
	found, err := repo.GetByID(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", found.Name)

	require.NoError(t, repo.Delete(ctx, author.ID))
	assert.True(t, database.IsNotFound(repo.Delete(ctx, author.ID)))
	assert.True(t, database.IsNotFound(repo.Update(ctx, author)))
}

func TestRepository_DeleteWithBooksViolatesForeignKey(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()

	author := &entities.Author{Name: "Jane Austen"}
	require.NoError(t, repo.Create(ctx, author))
	require.NoError(t, db.Create(&entities.Book{Title: "Emma", AuthorID: author.ID}).Error)

	err := repo.Delete(ctx, author.ID)
	require.Error(t, err)
	assert.True(t, database.IsForeignKeyViolation(err))
}

func TestRepository_BookCounts(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()

	rowling := &entities.Author{Name: "J.K. Rowling"}
	austen := &entities.Author{Name: "Jane Austen"}
	require.NoError(t, repo.Create(ctx, rowling))
	require.NoError(t, repo.Create(ctx, austen))
	require.NoError(t, db.Create(&entities.Book{Title: "HP 1", AuthorID: rowling.ID}).Error)
	require.NoError(t, db.Create(&entities.Book{Title: "HP 2", AuthorID: rowling.ID}).Error)

	counts, err := repo.BookCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[rowling.ID])
	assert.Zero(t, counts[austen.ID])

	n, err := repo.CountBooks(ctx, rowling.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	withBooks, err := repo.GetWithBooks(ctx, rowling.ID)
	require.NoError(t, err)
	assert.Len(t, withBooks.Books, 2)
}
