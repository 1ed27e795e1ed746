// Package books provides database operations for the book catalog.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	borrowed := true
//	page, total, err := repo.List(ctx, books.Filter{Borrowed: &borrowed, Take: 20})
package books

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/entities"
)

const openBorrowExists = "EXISTS (SELECT 1 FROM borrow_records br WHERE br.book_id = books.id AND br.returned_at IS NULL)"

// Filter narrows a book listing. Zero values mean "no constraint";
// Take == 0 returns every row after Skip.
type Filter struct {
	Search   string
	AuthorID string
	Borrowed *bool
	Skip     int
	Take     int
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, book *entities.Book) error {
	return r.db.WithContext(ctx).Omit("Author").Create(book).Error
}

// GetByID loads a book with its author.
func (r *Repository) GetByID(ctx context.Context, id string) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.WithContext(ctx).Preload("Author").First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// GetWithHistory loads a book, its author and every borrow record with the borrower, newest first.
func (r *Repository) GetWithHistory(ctx context.Context, id string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("BorrowRecords", func(db *gorm.DB) *gorm.DB {
			return db.Order("borrowed_at DESC")
		}).
		Preload("BorrowRecords.User").
		First(&book, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// List returns one page of books matching f, newest first, plus the total match count.
func (r *Repository) List(ctx context.Context, f Filter) ([]entities.Book, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.filtered(ctx, f).
		Preload("Author").
		Order("books.created_at DESC").
		Order("books.id DESC")
	if f.Take > 0 {
		query = query.Limit(f.Take)
	}
	if f.Skip > 0 {
		query = query.Offset(f.Skip)
	}

	var result []entities.Book
	if err := query.Find(&result).Error; err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *Repository) filtered(ctx context.Context, f Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&entities.Book{})

	if f.AuthorID != "" {
		query = query.Where("books.author_id = ?", f.AuthorID)
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
		query = query.Where(
			"(LOWER(books.title) LIKE ? ESCAPE '\\' OR LOWER(COALESCE(books.isbn, '')) LIKE ? ESCAPE '\\')",
			pattern, pattern,
		)
	}
	if f.Borrowed != nil {
		if *f.Borrowed {
			query = query.Where(openBorrowExists)
		} else {
			query = query.Where("NOT " + openBorrowExists)
		}
	}
	return query
}

// Update persists the editable fields. Returns gorm.ErrRecordNotFound if the book vanished.
func (r *Repository) Update(ctx context.Context, book *entities.Book) error {
	result := r.db.WithContext(ctx).Model(&entities.Book{}).
		Where("id = ?", book.ID).
		Updates(map[string]any{
			"title":        book.Title,
			"isbn":         book.ISBN,
			"published_at": book.PublishedAt,
			"author_id":    book.AuthorID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a book. Borrow records referencing it make the foreign key fail.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Book{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Book{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Book{}).Count(&count).Error
	return count, err
}

// escapeLike makes user input match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
