package catalog

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/entities"
)

// BookQuery filters ListBooks. Take == 0 means no limit.
type BookQuery struct {
	Search   string
	AuthorID string
	Borrowed *bool
	Skip     int
	Take     int
}

// CreateBook adds a book after verifying its author exists.
func (s *Service) CreateBook(ctx context.Context, in BookInput) (*entities.Book, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.InvalidField("title", "must not be empty")
	}
	if err := s.requireAuthor(ctx, in.AuthorID); err != nil {
		return nil, err
	}

	book := &entities.Book{
		Title:       title,
		ISBN:        normalizeISBN(in.ISBN),
		PublishedAt: in.PublishedAt,
		AuthorID:    in.AuthorID,
	}
	err := s.books.Create(ctx, book)
	if database.IsForeignKeyViolation(err) {
		return nil, authorNotFound(in.AuthorID)
	}
	if err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.recorder.LogCatalog(ctx, "book_create", "book", book.ID, "Created book "+book.Title)
	return s.books.GetByID(ctx, book.ID)
}

// ListBooks returns one page of books, newest first, with availability.
func (s *Service) ListBooks(ctx context.Context, q BookQuery) (*BookPage, error) {
	if q.Skip < 0 || q.Take < 0 {
		return nil, apperr.Validation("skip and take must be non-negative")
	}

	list, total, err := s.books.List(ctx, books.Filter{
		Search:   strings.TrimSpace(q.Search),
		AuthorID: q.AuthorID,
		Borrowed: q.Borrowed,
		Skip:     q.Skip,
		Take:     q.Take,
	})
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	ids := make([]string, len(list))
	for i, book := range list {
		ids[i] = book.ID
	}
	open, err := s.borrows.OpenForBooks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load open borrows: %w", err)
	}

	page := &BookPage{
		Data:  make([]BookSummary, 0, len(list)),
		Total: total,
		Skip:  q.Skip,
		Take:  q.Take,
	}
	if page.Take == 0 {
		page.Take = int(total)
	}
	for _, book := range list {
		summary := BookSummary{Book: book}
		if record, ok := open[book.ID]; ok {
			summary.IsBorrowed = true
			summary.ActiveBorrow = &record
		}
		page.Data = append(page.Data, summary)
	}
	return page, nil
}

// GetBook returns a book with its author and full borrow history.
func (s *Service) GetBook(ctx context.Context, id string) (*BookSummary, error) {
	book, err := s.books.GetWithHistory(ctx, id)
	if database.IsNotFound(err) {
		return nil, bookNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	summary := &BookSummary{Book: *book}
	for i := range book.BorrowRecords {
		if book.BorrowRecords[i].IsOpen() {
			record := book.BorrowRecords[i]
			summary.IsBorrowed = true
			summary.ActiveBorrow = &record
			break
		}
	}
	return summary, nil
}

func (s *Service) UpdateBook(ctx context.Context, id string, patch BookPatch) (*entities.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if database.IsNotFound(err) {
		return nil, bookNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperr.InvalidField("title", "must not be empty")
		}
		book.Title = title
	}
	if patch.ISBN != nil {
		book.ISBN = normalizeISBN(patch.ISBN)
	}
	if patch.PublishedAt != nil {
		book.PublishedAt = patch.PublishedAt
	}
	if patch.AuthorID != nil && *patch.AuthorID != book.AuthorID {
		if err := s.requireAuthor(ctx, *patch.AuthorID); err != nil {
			return nil, err
		}
		book.AuthorID = *patch.AuthorID
	}

	err = s.books.Update(ctx, book)
	switch {
	case database.IsNotFound(err):
		return nil, bookNotFound(id)
	case database.IsForeignKeyViolation(err):
		return nil, authorNotFound(book.AuthorID)
	case err != nil:
		return nil, fmt.Errorf("update book: %w", err)
	}

	s.recorder.LogCatalog(ctx, "book_update", "book", book.ID, "Updated book "+book.Title)
	return s.books.GetByID(ctx, id)
}

// DeleteBook removes a book that was never borrowed. Borrow history is never deleted.
func (s *Service) DeleteBook(ctx context.Context, id string) error {
	exists, err := s.books.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check book: %w", err)
	}
	if !exists {
		return bookNotFound(id)
	}

	count, err := s.borrows.CountForBook(ctx, id)
	if err != nil {
		return fmt.Errorf("count borrow records: %w", err)
	}
	if count > 0 {
		return apperr.Conflict("Book has borrow history and cannot be deleted")
	}

	err = s.books.Delete(ctx, id)
	switch {
	case database.IsNotFound(err):
		return bookNotFound(id)
	case database.IsForeignKeyViolation(err):
		return apperr.Conflict("Book has borrow history and cannot be deleted")
	case err != nil:
		return fmt.Errorf("delete book: %w", err)
	}

	s.recorder.LogCatalog(ctx, "book_delete", "book", id, "Deleted book "+id)
	return nil
}

// Stats returns the dashboard counters.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalBooks, err = s.books.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalAuthors, err = s.authors.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalUsers, err = s.users.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.ActiveBorrows, err = s.borrows.CountOpen(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collect stats: %w", err)
	}
	return &stats, nil
}

func (s *Service) requireAuthor(ctx context.Context, id string) error {
	exists, err := s.authors.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check author: %w", err)
	}
	if !exists {
		return authorNotFound(id)
	}
	return nil
}

// normalizeISBN maps a blank ISBN to nil.
func normalizeISBN(isbn *string) *string {
	if isbn == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*isbn)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func bookNotFound(id string) error {
	return apperr.NotFound("Book with ID %s not found", id)
}
