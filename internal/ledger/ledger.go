// Package ledger implements borrowing and returning books.
//
// A book has at most one open borrow record at any time. The ledger does not
// check for an open record before inserting one. It inserts and lets the
// storage constraint decide, so concurrent borrows of the same book cannot
// both succeed: the loser gets an apperr Conflict.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/database/borrows"
	"github.com/mrlokans/library/internal/entities"
)

// ExistenceChecker reports whether a row with the given id exists.
type ExistenceChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// RecordStore is the storage the ledger writes to.
type RecordStore interface {
	Create(ctx context.Context, record *entities.BorrowRecord) error
	GetByID(ctx context.Context, id string) (*entities.BorrowRecord, error)
	FindOpen(ctx context.Context, bookID, userID string) (*entities.BorrowRecord, error)
	Close(ctx context.Context, id string, returnedAt time.Time) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]entities.BorrowRecord, error)
	ListOpen(ctx context.Context) ([]entities.BorrowRecord, error)
}

var _ RecordStore = (*borrows.Repository)(nil)

// Recorder receives successful ledger transitions, e.g. for an audit trail.
type Recorder interface {
	LogBorrow(ctx context.Context, record *entities.BorrowRecord)
	LogReturn(ctx context.Context, record *entities.BorrowRecord)
}

type noopRecorder struct{}

func (noopRecorder) LogBorrow(context.Context, *entities.BorrowRecord) {}
func (noopRecorder) LogReturn(context.Context, *entities.BorrowRecord) {}

type Option func(*Service)

// WithClock replaces time.Now for borrowedAt and returnedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

type Service struct {
	books    ExistenceChecker
	users    ExistenceChecker
	records  RecordStore
	recorder Recorder
	now      func() time.Time
}

func NewService(books, users ExistenceChecker, records RecordStore, opts ...Option) *Service {
	s := &Service{
		books:    books,
		users:    users,
		records:  records,
		recorder: noopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Borrow opens a borrow record of bookID for userID.
func (s *Service) Borrow(ctx context.Context, bookID, userID string) (*entities.BorrowRecord, error) {
	if err := s.requireBook(ctx, bookID); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	record := &entities.BorrowRecord{
		BookID:     bookID,
		UserID:     userID,
		BorrowedAt: s.now().UTC(),
	}
	err := s.records.Create(ctx, record)
	switch {
	case errors.Is(err, borrows.ErrOpenRecordExists):
		return nil, apperr.Conflict("This book is already borrowed")
	case errors.Is(err, borrows.ErrMissingReference):
		// The book or user was deleted between the existence checks and the insert.
		return nil, apperr.NotFound("Book or user not found")
	case err != nil:
		return nil, fmt.Errorf("create borrow record: %w", err)
	}

	s.recorder.LogBorrow(ctx, record)
	return s.load(ctx, record.ID)
}

// Return closes the open record of bookID held by userID.
// Never borrowed, already returned and held by someone else all look the same.
func (s *Service) Return(ctx context.Context, bookID, userID string) (*entities.BorrowRecord, error) {
	record, err := s.records.FindOpen(ctx, bookID, userID)
	if database.IsNotFound(err) {
		return nil, errNoOpenRecord()
	}
	if err != nil {
		return nil, fmt.Errorf("find open borrow record: %w", err)
	}

	closed, err := s.records.Close(ctx, record.ID, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("close borrow record: %w", err)
	}
	if !closed {
		// A concurrent return got there first.
		return nil, errNoOpenRecord()
	}

	s.recorder.LogReturn(ctx, record)
	return s.load(ctx, record.ID)
}

// ListByUser returns the user's full borrow history, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]entities.BorrowRecord, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	records, err := s.records.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list borrow records of user: %w", err)
	}
	return records, nil
}

// ListActive returns every open record, newest first.
func (s *Service) ListActive(ctx context.Context) ([]entities.BorrowRecord, error) {
	records, err := s.records.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open borrow records: %w", err)
	}
	return records, nil
}

func (s *Service) load(ctx context.Context, id string) (*entities.BorrowRecord, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load borrow record: %w", err)
	}
	return record, nil
}

func (s *Service) requireBook(ctx context.Context, id string) error {
	ok, err := s.books.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check book: %w", err)
	}
	if !ok {
		return apperr.NotFound("Book with ID %s not found", id)
	}
	return nil
}

func (s *Service) requireUser(ctx context.Context, id string) error {
	ok, err := s.users.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !ok {
		return apperr.NotFound("User with ID %s not found", id)
	}
	return nil
}

func errNoOpenRecord() error {
	return apperr.NotFound("Borrowed record not found or already returned")
}
