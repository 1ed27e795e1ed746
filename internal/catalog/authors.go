package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/entities"
)

func (s *Service) CreateAuthor(ctx context.Context, in AuthorInput) (*entities.Author, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.InvalidField("name", "must not be empty")
	}

	author := &entities.Author{Name: name, Bio: in.Bio}
	if err := s.authors.Create(ctx, author); err != nil {
		return nil, fmt.Errorf("create author: %w", err)
	}

	s.recorder.LogCatalog(ctx, "author_create", "author", author.ID, "Created author "+author.Name)
	return author, nil
}

// ListAuthors returns every author ordered by name, with book counts.
func (s *Service) ListAuthors(ctx context.Context) ([]AuthorSummary, error) {
	list, err := s.authors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	counts, err := s.authors.BookCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count books per author: %w", err)
	}

	summaries := make([]AuthorSummary, 0, len(list))
	for _, author := range list {
		summaries = append(summaries, AuthorSummary{Author: author, BookCount: counts[author.ID]})
	}
	return summaries, nil
}

// GetAuthor returns an author with their books.
func (s *Service) GetAuthor(ctx context.Context, id string) (*AuthorSummary, error) {
	author, err := s.authors.GetWithBooks(ctx, id)
	if database.IsNotFound(err) {
		return nil, authorNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get author: %w", err)
	}
	return &AuthorSummary{Author: *author, BookCount: int64(len(author.Books))}, nil
}

func (s *Service) UpdateAuthor(ctx context.Context, id string, patch AuthorPatch) (*entities.Author, error) {
	author, err := s.authors.GetByID(ctx, id)
	if database.IsNotFound(err) {
		return nil, authorNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get author: %w", err)
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperr.InvalidField("name", "must not be empty")
		}
		author.Name = name
	}
	if patch.Bio != nil {
		author.Bio = patch.Bio
	}

	err = s.authors.Update(ctx, author)
	if database.IsNotFound(err) {
		return nil, authorNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("update author: %w", err)
	}

	s.recorder.LogCatalog(ctx, "author_update", "author", author.ID, "Updated author "+author.Name)
	return s.authors.GetByID(ctx, id)
}

// DeleteAuthor removes an author that has no books.
func (s *Service) DeleteAuthor(ctx context.Context, id string) error {
	exists, err := s.authors.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check author: %w", err)
	}
	if !exists {
		return authorNotFound(id)
	}

	count, err := s.authors.CountBooks(ctx, id)
	if err != nil {
		return fmt.Errorf("count author books: %w", err)
	}
	if count > 0 {
		return apperr.Conflict("Author has %d book(s) and cannot be deleted", count)
	}

	err = s.authors.Delete(ctx, id)
	switch {
	case database.IsNotFound(err):
		return authorNotFound(id)
	case database.IsForeignKeyViolation(err):
		// A book was added after the count.
		return apperr.Conflict("Author has books and cannot be deleted")
	case err != nil:
		return fmt.Errorf("delete author: %w", err)
	}

	s.recorder.LogCatalog(ctx, "author_delete", "author", id, "Deleted author "+id)
	return nil
}

func authorNotFound(id string) error {
	return apperr.NotFound("Author with ID %s not found", id)
}
