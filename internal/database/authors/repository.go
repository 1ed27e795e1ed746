// Package authors provides database operations for authors.
package authors

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, author *entities.Author) error {
	return r.db.WithContext(ctx).Create(author).Error
}

func (r *Repository) GetByID(ctx context.Context, id string) (*entities.Author, error) {
	var author entities.Author
	if err := r.db.WithContext(ctx).First(&author, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &author, nil
}

// GetWithBooks loads an author and their books, newest first.
func (r *Repository) GetWithBooks(ctx context.Context, id string) (*entities.Author, error) {
	var author entities.Author
	err := r.db.WithContext(ctx).
		Preload("Books", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		First(&author, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &author, nil
}

// List returns all authors ordered by name.
func (r *Repository) List(ctx context.Context) ([]entities.Author, error) {
	var authors []entities.Author
	err := r.db.WithContext(ctx).Order("name ASC").Find(&authors).Error
	return authors, err
}

// Update persists name and bio. Returns gorm.ErrRecordNotFound if the author vanished.
func (r *Repository) Update(ctx context.Context, author *entities.Author) error {
	result := r.db.WithContext(ctx).Model(&entities.Author{}).
		Where("id = ?", author.ID).
		Updates(map[string]any{"name": author.Name, "bio": author.Bio})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes an author. Books referencing it make the foreign key fail.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Author{})
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
	err := r.db.WithContext(ctx).Model(&entities.Author{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Author{}).Count(&count).Error
	return count, err
}

// CountBooks returns how many books reference the author.
func (r *Repository) CountBooks(ctx context.Context, authorID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Book{}).Where("author_id = ?", authorID).Count(&count).Error
	return count, err
}

// BookCounts returns the number of books per author id. Authors with no books are absent.
func (r *Repository) BookCounts(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		AuthorID string
		Count    int64
	}
	err := r.db.WithContext(ctx).Model(&entities.Book{}).
		Select("author_id, COUNT(*) AS count").
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.AuthorID] = row.Count
	}
	return counts, nil
}
