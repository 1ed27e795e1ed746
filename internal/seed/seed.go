// Package seed loads a small sample library: two members, three authors,
// four books and one book already on loan.
//
// Running it twice is safe. Users are matched by email, authors by name and
// books by ISBN, and the sample loan is only opened when the book is free.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/entities"
)

// DefaultPassword is the password given to every sample user.
const DefaultPassword = "password123"

type sampleUser struct {
	Name  string
	Email string
}

type sampleAuthor struct {
	Name string
	Bio  string
}

type sampleBook struct {
	Title       string
	ISBN        string
	PublishedAt string
	Author      string
}

var sampleUsers = []sampleUser{
	{Name: "Admin User", Email: "admin@library.com"},
	{Name: "John Doe", Email: "john@example.com"},
}

var sampleAuthors = []sampleAuthor{
	{Name: "J.K. Rowling", Bio: "British author, best known for the Harry Potter series"},
	{Name: "George R.R. Martin", Bio: "American novelist and short story writer, best known for A Song of Ice and Fire"},
	{Name: "Jane Austen", Bio: "English novelist known primarily for her six major novels"},
}

var sampleBooks = []sampleBook{
	{Title: "Harry Potter and the Philosopher's Stone", ISBN: "978-0747532699", PublishedAt: "1997-06-26", Author: "J.K. Rowling"},
	{Title: "Harry Potter and the Chamber of Secrets", ISBN: "978-0747538493", PublishedAt: "1998-07-02", Author: "J.K. Rowling"},
	{Title: "A Game of Thrones", ISBN: "978-0553103540", PublishedAt: "1996-08-01", Author: "George R.R. Martin"},
	{Title: "Pride and Prejudice", ISBN: "978-0141439518", PublishedAt: "1813-01-28", Author: "Jane Austen"},
}

// Result counts the rows created by a run.
type Result struct {
	UsersCreated   int
	AuthorsCreated int
	BooksCreated   int
	BorrowsCreated int
}

type Seeder struct {
	db         *gorm.DB
	bcryptCost int
	now        func() time.Time
}

func NewSeeder(db *gorm.DB, bcryptCost int) *Seeder {
	return &Seeder{db: db, bcryptCost: bcryptCost, now: time.Now}
}

// Run inserts whatever sample rows are missing in one transaction.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	hash, err := auth.HashPassword(DefaultPassword, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash sample password: %w", err)
	}

	result := &Result{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := make(map[string]*entities.User, len(sampleUsers))
		for _, su := range sampleUsers {
			user, created, err := seedUser(tx, su, hash)
			if err != nil {
				return err
			}
			if created {
				result.UsersCreated++
			}
			users[su.Email] = user
		}

		authors := make(map[string]*entities.Author, len(sampleAuthors))
		for _, sa := range sampleAuthors {
			author, created, err := seedAuthor(tx, sa)
			if err != nil {
				return err
			}
			if created {
				result.AuthorsCreated++
			}
			authors[sa.Name] = author
		}

		books := make(map[string]*entities.Book, len(sampleBooks))
		for _, sb := range sampleBooks {
			book, created, err := seedBook(tx, sb, authors[sb.Author].ID)
			if err != nil {
				return err
			}
			if created {
				result.BooksCreated++
			}
			books[sb.ISBN] = book
		}

		created, err := s.seedLoan(tx, books["978-0747532699"].ID, users["john@example.com"].ID)
		if err != nil {
			return err
		}
		if created {
			result.BorrowsCreated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func seedUser(tx *gorm.DB, su sampleUser, hash string) (*entities.User, bool, error) {
	var user entities.User
	err := tx.Where("email = ?", su.Email).First(&user).Error
	if err == nil {
		return &user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("look up user %s: %w", su.Email, err)
	}

	user = entities.User{Name: su.Name, Email: su.Email, PasswordHash: hash}
	if err := tx.Create(&user).Error; err != nil {
		return nil, false, fmt.Errorf("create user %s: %w", su.Email, err)
	}
	return &user, true, nil
}

func seedAuthor(tx *gorm.DB, sa sampleAuthor) (*entities.Author, bool, error) {
	var author entities.Author
	err := tx.Where("name = ?", sa.Name).First(&author).Error
	if err == nil {
		return &author, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("look up author %s: %w", sa.Name, err)
	}

	bio := sa.Bio
	author = entities.Author{Name: sa.Name, Bio: &bio}
	if err := tx.Create(&author).Error; err != nil {
		return nil, false, fmt.Errorf("create author %s: %w", sa.Name, err)
	}
	return &author, true, nil
}

func seedBook(tx *gorm.DB, sb sampleBook, authorID string) (*entities.Book, bool, error) {
	var book entities.Book
	err := tx.Where("isbn = ?", sb.ISBN).First(&book).Error
	if err == nil {
		return &book, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("look up book %s: %w", sb.ISBN, err)
	}

	published, err := time.Parse(time.DateOnly, sb.PublishedAt)
	if err != nil {
		return nil, false, fmt.Errorf("parse publication date of %s: %w", sb.ISBN, err)
	}
	isbn := sb.ISBN
	book = entities.Book{Title: sb.Title, ISBN: &isbn, PublishedAt: &published, AuthorID: authorID}
	if err := tx.Omit("Author", "BorrowRecords").Create(&book).Error; err != nil {
		return nil, false, fmt.Errorf("create book %s: %w", sb.ISBN, err)
	}
	return &book, true, nil
}

// seedLoan opens a loan unless the book has ever been borrowed, so a sample
// loan that was returned is not reopened on the next run.
func (s *Seeder) seedLoan(tx *gorm.DB, bookID, userID string) (bool, error) {
	var count int64
	if err := tx.Model(&entities.BorrowRecord{}).Where("book_id = ?", bookID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count borrow records: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	record := entities.BorrowRecord{BookID: bookID, UserID: userID, BorrowedAt: s.now().UTC()}
	if err := tx.Omit("Book", "User").Create(&record).Error; err != nil {
		return false, fmt.Errorf("create sample loan: %w", err)
	}
	return true, nil
}
