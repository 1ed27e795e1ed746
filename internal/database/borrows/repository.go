// Package borrows stores borrow records, the storage side of the borrow ledger.
//
// Create never checks for an existing open record first. The partial unique
// index on borrow_records(book_id) WHERE returned_at IS NULL rejects a second
// open record and Create reports that as ErrOpenRecordExists. Close is a
// conditional update, so two concurrent returns cannot both succeed.
package borrows

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/entities"
)

var (
	// ErrOpenRecordExists means the book already has an open borrow record.
	ErrOpenRecordExists = errors.New("book already has an open borrow record")
	// ErrMissingReference means the book or user row disappeared before the insert.
	ErrMissingReference = errors.New("borrow record references a missing book or user")
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts an open record.
func (r *Repository) Create(ctx context.Context, record *entities.BorrowRecord) error {
	err := r.db.WithContext(ctx).Omit("Book", "User").Create(record).Error
	switch {
	case err == nil:
		return nil
	case database.IsUniqueViolation(err):
		return ErrOpenRecordExists
	case database.IsForeignKeyViolation(err):
		return ErrMissingReference
	default:
		return err
	}
}

// GetByID loads a record with its book, the book's author and the borrower.
func (r *Repository) GetByID(ctx context.Context, id string) (*entities.BorrowRecord, error) {
	var record entities.BorrowRecord
	err := r.db.WithContext(ctx).
		Preload("Book.Author").
		Preload("User").
		First(&record, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindOpen returns the open record of bookID held by userID.
func (r *Repository) FindOpen(ctx context.Context, bookID, userID string) (*entities.BorrowRecord, error) {
	var record entities.BorrowRecord
	err := r.db.WithContext(ctx).
		Where("book_id = ? AND user_id = ? AND returned_at IS NULL", bookID, userID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Close stamps returnedAt on the record if it is still open.
// It reports false when the record was already closed, e.g. by a concurrent return.
func (r *Repository) Close(ctx context.Context, id string, returnedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entities.BorrowRecord{}).
		Where("id = ? AND returned_at IS NULL", id).
		Update("returned_at", returnedAt)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListByUser returns every record of the user, newest first, with book and author.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]entities.BorrowRecord, error) {
	var records []entities.BorrowRecord
	err := r.db.WithContext(ctx).
		Preload("Book.Author").
		Where("user_id = ?", userID).
		Order("borrowed_at DESC").
		Find(&records).Error
	return records, err
}

// ListOpen returns all open records, newest first, with book, author and borrower.
func (r *Repository) ListOpen(ctx context.Context) ([]entities.BorrowRecord, error) {
	var records []entities.BorrowRecord
	err := r.db.WithContext(ctx).
		Preload("Book.Author").
		Preload("User").
		Where("returned_at IS NULL").
		Order("borrowed_at DESC").
		Find(&records).Error
	return records, err
}

// OpenForBooks returns the open record of each given book that has one, keyed by book id.
func (r *Repository) OpenForBooks(ctx context.Context, bookIDs []string) (map[string]entities.BorrowRecord, error) {
	open := make(map[string]entities.BorrowRecord)
	if len(bookIDs) == 0 {
		return open, nil
	}

	var records []entities.BorrowRecord
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("book_id IN ? AND returned_at IS NULL", bookIDs).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		open[record.BookID] = record
	}
	return open, nil
}

// CountForBook returns how many records, open or closed, reference the book.
func (r *Repository) CountForBook(ctx context.Context, bookID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.BorrowRecord{}).Where("book_id = ?", bookID).Count(&count).Error
	return count, err
}

func (r *Repository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.BorrowRecord{}).Where("returned_at IS NULL").Count(&count).Error
	return count, err
}
