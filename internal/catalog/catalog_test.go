package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/database/authors"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/borrows"
	"github.com/mrlokans/library/internal/database/users"
	"github.com/mrlokans/library/internal/entities"
)

const missingID = "0b0e5e7a-3333-4333-8333-333333333333"

type catalogRecorder struct {
	actions []string
}

func (r *catalogRecorder) LogCatalog(_ context.Context, action, _, _, _ string) {
	r.actions = append(r.actions, action)
}

func newService(t *testing.T, path string) (*Service, *gorm.DB, *catalogRecorder) {
	t.Helper()
	db, err := database.NewSilentDatabase(config.Database{Driver: config.DriverSQLite, Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	recorder := &catalogRecorder{}
	svc := NewService(
		authors.NewRepository(db.DB),
		books.NewRepository(db.DB),
		borrows.NewRepository(db.DB),
		users.NewRepository(db.DB),
		WithRecorder(recorder),
	)
	return svc, db.DB, recorder
}

func setupService(t *testing.T) (*Service, *gorm.DB, *catalogRecorder) {
	return newService(t, filepath.Join(t.TempDir(), "catalog.db"))
}

func strPtr(s string) *string { return &s }

func TestService_CreateAuthor(t *testing.T) {
	svc, _, recorder := setupService(t)
	ctx := context.Background()

	author, err := svc.CreateAuthor(ctx, AuthorInput{Name: "  Jane Austen ", Bio: strPtr("English novelist")})
	require.NoError(t, err)
	assert.Equal(t, "Jane Austen", author.Name)
	assert.Equal(t, []string{"author_create"}, recorder.actions)

	_, err = svc.CreateAuthor(ctx, AuthorInput{Name: "   "})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestService_ListAuthorsWithCounts(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	rowling, err := svc.CreateAuthor(ctx, AuthorInput{Name: "J.K. Rowling"})
	require.NoError(t, err)
	_, err = svc.CreateAuthor(ctx, AuthorInput{Name: "Jane Austen"})
	require.NoError(t, err)
	_, err = svc.CreateBook(ctx, BookInput{Title: "HP 1", AuthorID: rowling.ID})
	require.NoError(t, err)

	list, err := svc.ListAuthors(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "J.K. Rowling", list[0].Name)
	assert.Equal(t, int64(1), list[0].BookCount)
	assert.Equal(t, int64(0), list[1].BookCount)

	detail, err := svc.GetAuthor(ctx, rowling.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), detail.BookCount)
	assert.Len(t, detail.Books, 1)

	_, err = svc.GetAuthor(ctx, missingID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestService_UpdateAuthor(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	author, err := svc.CreateAuthor(ctx, AuthorInput{Name: "G. Martin"})
	require.NoError(t, err)

	updated, err := svc.UpdateAuthor(ctx, author.ID, AuthorPatch{Name: strPtr("George R.R. Martin"), Bio: strPtr("American novelist")})
	require.NoError(t, err)
	assert.Equal(t, "George R.R. Martin", updated.Name)
	assert.Equal(t, "American novelist", *updated.Bio)

	_, err = svc.UpdateAuthor(ctx, author.ID, AuthorPatch{Name: strPtr("")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.UpdateAuthor(ctx, missingID, AuthorPatch{Name: strPtr("x")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestService_DeleteAuthor(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	author, err := svc.CreateAuthor(ctx, AuthorInput{Name: "Jane Austen"})
	require.NoError(t, err)
	book, err := svc.CreateBook(ctx, BookInput{Title: "Emma", AuthorID: author.ID})
	require.NoError(t, err)

	err = svc.DeleteAuthor(ctx, author.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	require.NoError(t, svc.DeleteBook(ctx, book.ID))
	require.NoError(t, svc.DeleteAuthor(ctx, author.ID))

	assert.ErrorIs(t, svc.DeleteAuthor(ctx, author.ID), apperr.ErrNotFound)
}

func TestService_CreateBook(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()

	author, err := svc.CreateAuthor(ctx, AuthorInput{Name: "J.K. Rowling"})
	require.NoError(t, err)

	published := time.Date(1997, 6, 26, 0, 0, 0, 0, time.UTC)
	book, err := svc.CreateBook(ctx, BookInput{
		Title:       "Harry Potter and the Philosopher's Stone",
		ISBN:        strPtr("978-0747532699"),
		PublishedAt: &published,
		AuthorID:    author.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, book.Author)
	assert.Equal(t, "J.K. Rowling", book.Author.Name)

	t.Run("unknown author creates nothing", func(t *testing.T) {
		_, err := svc.CreateBook(ctx, BookInput{Title: "Orphan", AuthorID: missingID})
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		var count int64
		require.NoError(t, db.Model(&entities.Book{}).Where("title = ?", "Orphan").Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("blank title rejected", func(t *testing.T) {
		_, err := svc.CreateBook(ctx, BookInput{Title: " ", AuthorID: author.ID})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("blank isbn stored as null", func(t *testing.T) {
		created, err := svc.CreateBook(ctx, BookInput{Title: "No ISBN", ISBN: strPtr("  "), AuthorID: author.ID})
		require.NoError(t, err)
		assert.Nil(t, created.ISBN)
	})
}

func TestService_UpdateBook(t *testing.T) {
	svc, _, recorder := setupService(t)
	ctx := context.Background()

	rowling, err := svc.CreateAuthor(ctx, AuthorInput{Name: "J.K. Rowling"})
	require.NoError(t, err)
	austen, err := svc.CreateAuthor(ctx, AuthorInput{Name: "Jane Austen"})
	require.NoError(t, err)
	book, err := svc.CreateBook(ctx, BookInput{Title: "Emma", AuthorID: rowling.ID})
	require.NoError(t, err)

	updated, err := svc.UpdateBook(ctx, book.ID, BookPatch{AuthorID: &austen.ID, ISBN: strPtr("978-0141439587")})
	require.NoError(t, err)
	assert.Equal(t, austen.ID, updated.AuthorID)
	assert.Equal(t, "Jane Austen", updated.Author.Name)
	assert.Equal(t, "978-0141439587", *updated.ISBN)
	assert.Contains(t, recorder.actions, "book_update")

	_, err = svc.UpdateBook(ctx, book.ID, BookPatch{AuthorID: strPtr(missingID)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.UpdateBook(ctx, missingID, BookPatch{Title: strPtr("x")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.UpdateBook(ctx, book.ID, BookPatch{Title: strPtr("")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestService_DeleteBookWithHistory(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()

	author, err := svc.CreateAuthor(ctx, AuthorInput{Name: "Jane Austen"})
	require.NoError(t, err)
	book, err := svc.CreateBook(ctx, BookInput{Title: "Pride and Prejudice", AuthorID: author.ID})
	require.NoError(t, err)
	user := entities.User{Name: "John Doe", Email: "john@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	returned := time.Now().UTC()
	require.NoError(t, db.Create(&entities.BorrowRecord{BookID: book.ID, UserID: user.ID, BorrowedAt: returned, ReturnedAt: &returned}).Error)

	assert.ErrorIs(t, svc.DeleteBook(ctx, book.ID), apperr.ErrConflict)
	assert.ErrorIs(t, svc.DeleteBook(ctx, missingID), apperr.ErrNotFound)
}

func TestService_ListAndGetBooks(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()

	author, err := svc.CreateAuthor(ctx, AuthorInput{Name: "George R.R. Martin"})
	require.NoError(t, err)
	got, err := svc.CreateBook(ctx, BookInput{Title: "A Game of Thrones", AuthorID: author.ID})
	require.NoError(t, err)
	_, err = svc.CreateBook(ctx, BookInput{Title: "A Clash of Kings", AuthorID: author.ID})
	require.NoError(t, err)

	user := entities.User{Name: "John Doe", Email: "john@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&entities.BorrowRecord{BookID: got.ID, UserID: user.ID, BorrowedAt: time.Now().UTC()}).Error)

	page, err := svc.ListBooks(ctx, BookQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 2, page.Take, "take defaults to total")
	assert.Equal(t, 0, page.Skip)

	var borrowed *BookSummary
	for i := range page.Data {
		if page.Data[i].ID == got.ID {
			borrowed = &page.Data[i]
		}
	}
	require.NotNil(t, borrowed)
	assert.True(t, borrowed.IsBorrowed)
	require.NotNil(t, borrowed.ActiveBorrow)
	assert.Equal(t, "John Doe", borrowed.ActiveBorrow.User.Name)

	limited, err := svc.ListBooks(ctx, BookQuery{Take: 1, Skip: 1})
	require.NoError(t, err)
	assert.Len(t, limited.Data, 1)
	assert.Equal(t, 1, limited.Take)
	assert.Equal(t, int64(2), limited.Total)

	_, err = svc.ListBooks(ctx, BookQuery{Skip: -1})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	detail, err := svc.GetBook(ctx, got.ID)
	require.NoError(t, err)
	assert.True(t, detail.IsBorrowed)
	assert.Len(t, detail.BorrowRecords, 1)
	assert.Equal(t, "George R.R. Martin", detail.Author.Name)

	_, err = svc.GetBook(ctx, missingID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestService_Stats(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()

	author, err := svc.CreateAuthor(ctx, AuthorInput{Name: "Jane Austen"})
	require.NoError(t, err)
	book, err := svc.CreateBook(ctx, BookInput{Title: "Emma", AuthorID: author.ID})
	require.NoError(t, err)
	_, err = svc.CreateBook(ctx, BookInput{Title: "Persuasion", AuthorID: author.ID})
	require.NoError(t, err)
	user := entities.User{Name: "John Doe", Email: "john@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&entities.BorrowRecord{BookID: book.ID, UserID: user.ID, BorrowedAt: time.Now().UTC()}).Error)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{TotalBooks: 2, TotalAuthors: 1, TotalUsers: 1, ActiveBorrows: 1}, *stats)
}
