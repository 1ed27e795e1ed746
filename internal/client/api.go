package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mrlokans/library/internal/catalog"
	"github.com/mrlokans/library/internal/entities"
)

type LoginResponse struct {
	AccessToken string         `json:"accessToken"`
	TokenType   string         `json:"tokenType"`
	ExpiresAt   time.Time      `json:"expiresAt"`
	User        *entities.User `json:"user"`
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthorInput struct {
	Name *string `json:"name,omitempty"`
	Bio  *string `json:"bio,omitempty"`
}

// BookInput is sent on create and update. PublishedAt is YYYY-MM-DD or RFC 3339.
type BookInput struct {
	Title       *string `json:"title,omitempty"`
	AuthorID    *string `json:"authorId,omitempty"`
	ISBN        *string `json:"isbn,omitempty"`
	PublishedAt *string `json:"publishedAt,omitempty"`
}

// BookFilter mirrors the GET /books query; zero values are omitted.
type BookFilter struct {
	Search   string
	AuthorID string
	Borrowed *bool
	Skip     int
	Take     int
}

func (f BookFilter) values() url.Values {
	v := url.Values{}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.AuthorID != "" {
		v.Set("authorId", f.AuthorID)
	}
	if f.Borrowed != nil {
		v.Set("borrowed", strconv.FormatBool(*f.Borrowed))
	}
	if f.Skip > 0 {
		v.Set("skip", strconv.Itoa(f.Skip))
	}
	if f.Take > 0 {
		v.Set("take", strconv.Itoa(f.Take))
	}
	return v
}

type AuditPage struct {
	Data  []entities.AuditEvent `json:"data"`
	Total int64                 `json:"total"`
	Skip  int                   `json:"skip"`
	Take  int                   `json:"take"`
}

type Health struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

// Login exchanges credentials for a token and stores the new session.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   map[string]string{"email": email, "password": password},
		public: true,
	}, &out)
	if err != nil {
		return nil, err
	}

	session := &Session{
		BaseURL:     c.baseURL,
		AccessToken: out.AccessToken,
		ExpiresAt:   out.ExpiresAt,
		User:        out.User,
	}
	if err := c.setSession(session); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the token on the server and forgets the session. The local
// session is cleared even if the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	if c.token() == "" {
		return nil
	}
	err := c.do(ctx, request{method: http.MethodPost, path: "/auth/logout"}, nil)
	if clearErr := c.setSession(nil); clearErr != nil && err == nil {
		err = clearErr
	}
	return err
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (*entities.User, error) {
	var out entities.User
	err := c.do(ctx, request{method: http.MethodPost, path: "/auth/register", body: in, public: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*entities.User, error) {
	var out entities.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]entities.User, error) {
	var out []entities.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/users"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateUser(ctx context.Context, in RegisterInput) (*entities.User, error) {
	var out entities.User
	if err := c.do(ctx, request{method: http.MethodPost, path: "/users", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*entities.User, error) {
	var out entities.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/users/" + url.PathEscape(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListAuthors(ctx context.Context) ([]catalog.AuthorSummary, error) {
	var out []catalog.AuthorSummary
	if err := c.do(ctx, request{method: http.MethodGet, path: "/authors"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAuthor(ctx context.Context, in AuthorInput) (*entities.Author, error) {
	var out entities.Author
	if err := c.do(ctx, request{method: http.MethodPost, path: "/authors", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetAuthor(ctx context.Context, id string) (*catalog.AuthorSummary, error) {
	var out catalog.AuthorSummary
	if err := c.do(ctx, request{method: http.MethodGet, path: "/authors/" + url.PathEscape(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateAuthor(ctx context.Context, id string, in AuthorInput) (*entities.Author, error) {
	var out entities.Author
	err := c.do(ctx, request{method: http.MethodPatch, path: "/authors/" + url.PathEscape(id), body: in}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteAuthor(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/authors/" + url.PathEscape(id)}, nil)
}

func (c *Client) ListBooks(ctx context.Context, filter BookFilter) (*catalog.BookPage, error) {
	var out catalog.BookPage
	err := c.do(ctx, request{method: http.MethodGet, path: "/books", query: filter.values()}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateBook(ctx context.Context, in BookInput) (*entities.Book, error) {
	var out entities.Book
	if err := c.do(ctx, request{method: http.MethodPost, path: "/books", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetBook(ctx context.Context, id string) (*catalog.BookSummary, error) {
	var out catalog.BookSummary
	if err := c.do(ctx, request{method: http.MethodGet, path: "/books/" + url.PathEscape(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateBook(ctx context.Context, id string, in BookInput) (*entities.Book, error) {
	var out entities.Book
	err := c.do(ctx, request{method: http.MethodPatch, path: "/books/" + url.PathEscape(id), body: in}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteBook(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/books/" + url.PathEscape(id)}, nil)
}

// Borrow opens a loan of bookID for userID.
func (c *Client) Borrow(ctx context.Context, bookID, userID string) (*entities.BorrowRecord, error) {
	var out entities.BorrowRecord
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/borrowed-books/borrow",
		body:   map[string]string{"bookId": bookID, "userId": userID},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Return closes userID's open loan of bookID.
func (c *Client) Return(ctx context.Context, bookID, userID string) (*entities.BorrowRecord, error) {
	var out entities.BorrowRecord
	path := "/borrowed-books/return/" + url.PathEscape(bookID) + "/" + url.PathEscape(userID)
	if err := c.do(ctx, request{method: http.MethodPost, path: path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) BorrowsByUser(ctx context.Context, userID string) ([]entities.BorrowRecord, error) {
	var out []entities.BorrowRecord
	err := c.do(ctx, request{method: http.MethodGet, path: "/borrowed-books/user/" + url.PathEscape(userID)}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ActiveBorrows(ctx context.Context) ([]entities.BorrowRecord, error) {
	var out []entities.BorrowRecord
	if err := c.do(ctx, request{method: http.MethodGet, path: "/borrowed-books/active"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Stats(ctx context.Context) (*catalog.Stats, error) {
	var out catalog.Stats
	if err := c.do(ctx, request{method: http.MethodGet, path: "/stats"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AuditEvents(ctx context.Context, eventType string, skip, take int) (*AuditPage, error) {
	q := url.Values{}
	if eventType != "" {
		q.Set("type", eventType)
	}
	if skip > 0 {
		q.Set("skip", strconv.Itoa(skip))
	}
	if take > 0 {
		q.Set("take", strconv.Itoa(take))
	}

	var out AuditPage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/audit-events", query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health returns the server's health report. An unhealthy server answers 503
// with the same body, so both statuses decode into a report.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return nil, decodeError(resp)
	}

	var out Health
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}
