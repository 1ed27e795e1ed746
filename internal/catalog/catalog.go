// Package catalog manages authors and books: CRUD with referential checks,
// the filtered book listing and dashboard counts.
package catalog

import (
	"context"
	"time"

	"github.com/mrlokans/library/internal/database/authors"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/borrows"
	"github.com/mrlokans/library/internal/entities"
)

type AuthorStore interface {
	Create(ctx context.Context, author *entities.Author) error
	GetByID(ctx context.Context, id string) (*entities.Author, error)
	GetWithBooks(ctx context.Context, id string) (*entities.Author, error)
	List(ctx context.Context) ([]entities.Author, error)
	Update(ctx context.Context, author *entities.Author) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int64, error)
	CountBooks(ctx context.Context, authorID string) (int64, error)
	BookCounts(ctx context.Context) (map[string]int64, error)
}

type BookStore interface {
	Create(ctx context.Context, book *entities.Book) error
	GetByID(ctx context.Context, id string) (*entities.Book, error)
	GetWithHistory(ctx context.Context, id string) (*entities.Book, error)
	List(ctx context.Context, f books.Filter) ([]entities.Book, int64, error)
	Update(ctx context.Context, book *entities.Book) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// BorrowReader is the read-only view of the ledger the catalog needs.
type BorrowReader interface {
	OpenForBooks(ctx context.Context, bookIDs []string) (map[string]entities.BorrowRecord, error)
	CountForBook(ctx context.Context, bookID string) (int64, error)
	CountOpen(ctx context.Context) (int64, error)
}

type UserCounter interface {
	Count(ctx context.Context) (int64, error)
}

var (
	_ AuthorStore  = (*authors.Repository)(nil)
	_ BookStore    = (*books.Repository)(nil)
	_ BorrowReader = (*borrows.Repository)(nil)
)

// Recorder receives catalog changes, e.g. for an audit trail.
type Recorder interface {
	LogCatalog(ctx context.Context, action, entityType, entityID, description string)
}

type noopRecorder struct{}

func (noopRecorder) LogCatalog(context.Context, string, string, string, string) {}

// AuthorSummary is an author with the number of books attributed to them.
type AuthorSummary struct {
	entities.Author
	BookCount int64 `json:"bookCount"`
}

// BookSummary is a book with its current availability.
type BookSummary struct {
	entities.Book
	IsBorrowed   bool                   `json:"isBorrowed"`
	ActiveBorrow *entities.BorrowRecord `json:"activeBorrow,omitempty"`
}

// BookPage is one page of a book listing. Take equals Total when the caller did not limit the page.
type BookPage struct {
	Data  []BookSummary `json:"data"`
	Total int64         `json:"total"`
	Skip  int           `json:"skip"`
	Take  int           `json:"take"`
}

type Stats struct {
	TotalBooks    int64 `json:"totalBooks"`
	TotalAuthors  int64 `json:"totalAuthors"`
	TotalUsers    int64 `json:"totalUsers"`
	ActiveBorrows int64 `json:"activeBorrows"`
}

type AuthorInput struct {
	Name string
	Bio  *string
}

// AuthorPatch holds optional changes; nil fields stay untouched.
type AuthorPatch struct {
	Name *string
	Bio  *string
}

type BookInput struct {
	Title       string
	ISBN        *string
	PublishedAt *time.Time
	AuthorID    string
}

// BookPatch holds optional changes; nil fields stay untouched.
type BookPatch struct {
	Title       *string
	ISBN        *string
	PublishedAt *time.Time
	AuthorID    *string
}

type Option func(*Service)

func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

type Service struct {
	authors  AuthorStore
	books    BookStore
	borrows  BorrowReader
	users    UserCounter
	recorder Recorder
}

func NewService(authors AuthorStore, books BookStore, borrows BorrowReader, users UserCounter, opts ...Option) *Service {
	s := &Service{
		authors:  authors,
		books:    books,
		borrows:  borrows,
		users:    users,
		recorder: noopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
