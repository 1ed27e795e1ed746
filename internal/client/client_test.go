package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/catalog"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	auditrepo "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/database/authors"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/borrows"
	"github.com/mrlokans/library/internal/database/users"
	libraryhttp "github.com/mrlokans/library/internal/http"
	"github.com/mrlokans/library/internal/ledger"
)

// startServer runs the real API over a temporary SQLite database.
func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewSilentDatabase(config.Database{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "client.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	userRepo := users.NewRepository(db.DB)
	bookRepo := books.NewRepository(db.DB)
	borrowRepo := borrows.NewRepository(db.DB)
	auditService := audit.NewService(auditrepo.NewRepository(db.DB))
	t.Cleanup(auditService.Wait)

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:   "fedcba9876543210fedcba9876543210",
		Issuer:   config.DefaultIssuer,
		Audience: config.DefaultAudience,
		TTL:      time.Hour,
	})
	require.NoError(t, err)
	authService, err := auth.NewService(userRepo, tokens, auth.NewMemoryRevoker(), 4)
	require.NoError(t, err)

	router := libraryhttp.NewRouter(libraryhttp.RouterConfig{
		Ledger: ledger.NewService(bookRepo, userRepo, borrowRepo, ledger.WithRecorder(auditService)),
		Catalog: catalog.NewService(authors.NewRepository(db.DB), bookRepo, borrowRepo, userRepo,
			catalog.WithRecorder(auditService)),
		Audit:        auditService,
		AuthService:  authService,
		HealthChecks: map[string]libraryhttp.Pinger{"database": db},
		Version:      "test",
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server, store *SessionStore) *Client {
	t.Helper()
	c, err := New(srv.URL, store, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func strPtr(s string) *string { return &s }

func TestClient_BorrowWorkflow(t *testing.T) {
	srv := startServer(t)
	store := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
	ctx := context.Background()

	c := newTestClient(t, srv, store)

	_, err := c.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = c.ListBooks(ctx, BookFilter{})
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	login, err := c.Login(ctx, "ann@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", login.User.Email)

	// A second client picks the stored session up from disk.
	c = newTestClient(t, srv, store)
	require.NotNil(t, c.Session())
	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, login.User.ID, me.ID)

	bob, err := c.CreateUser(ctx, RegisterInput{Name: "Bob", Email: "bob@example.com", Password: "password123"})
	require.NoError(t, err)

	author, err := c.CreateAuthor(ctx, AuthorInput{Name: strPtr("Jane Austen")})
	require.NoError(t, err)
	book, err := c.CreateBook(ctx, BookInput{
		Title:       strPtr("Pride and Prejudice"),
		AuthorID:    &author.ID,
		PublishedAt: strPtr("1813-01-28"),
	})
	require.NoError(t, err)

	first, err := c.Borrow(ctx, book.ID, me.ID)
	require.NoError(t, err)
	assert.Nil(t, first.ReturnedAt)

	_, err = c.Borrow(ctx, book.ID, bob.ID)
	assert.True(t, IsConflict(err), "second borrow: %v", err)

	returned, err := c.Return(ctx, book.ID, me.ID)
	require.NoError(t, err)
	assert.NotNil(t, returned.ReturnedAt)

	_, err = c.Return(ctx, book.ID, me.ID)
	assert.True(t, IsNotFound(err))

	_, err = c.Borrow(ctx, book.ID, bob.ID)
	require.NoError(t, err)

	active, err := c.ActiveBorrows(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, bob.ID, active[0].UserID)

	borrowed := true
	page, err := c.ListBooks(ctx, BookFilter{Borrowed: &borrowed})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.True(t, page.Data[0].IsBorrowed)

	detail, err := c.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Len(t, detail.BorrowRecords, 2)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &catalog.Stats{TotalBooks: 1, TotalAuthors: 1, TotalUsers: 2, ActiveBorrows: 1}, stats)

	err = c.DeleteBook(ctx, book.ID)
	assert.True(t, IsConflict(err))

	require.NoError(t, c.Logout(ctx))
	assert.Nil(t, c.Session())
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestClient_ClearsSessionOnUnauthorized(t *testing.T) {
	srv := startServer(t)
	store := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
	ctx := context.Background()

	first := newTestClient(t, srv, store)
	_, err := first.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "password123"})
	require.NoError(t, err)
	_, err = first.Login(ctx, "ann@example.com", "password123")
	require.NoError(t, err)

	second := newTestClient(t, srv, store)
	require.NoError(t, first.Logout(ctx))

	// second still holds the now revoked token in memory.
	require.NoError(t, store.Save(second.Session()))
	_, err = second.Me(ctx)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
	assert.Nil(t, second.Session())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestClient_LoginFailureKeepsSession(t *testing.T) {
	srv := startServer(t)
	store := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
	ctx := context.Background()

	c := newTestClient(t, srv, store)
	_, err := c.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "password123"})
	require.NoError(t, err)
	_, err = c.Login(ctx, "ann@example.com", "password123")
	require.NoError(t, err)

	_, err = c.Login(ctx, "ann@example.com", "wrong-password")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "unauthorized", apiErr.Code)
	assert.NotErrorIs(t, err, ErrSessionExpired)
	assert.NotNil(t, c.Session())
}

func TestClient_ValidationDetails(t *testing.T) {
	srv := startServer(t)
	c := newTestClient(t, srv, nil)

	_, err := c.Register(context.Background(), RegisterInput{Name: "Ann", Email: "not-an-email", Password: "short"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "validation_error", apiErr.Code)
	assert.Contains(t, apiErr.Details, "email")
}

func TestClient_Health(t *testing.T) {
	srv := startServer(t)
	c := newTestClient(t, srv, nil)

	health, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "ok", health.Checks["database"])
}

func TestNew_DiscardsForeignOrExpiredSession(t *testing.T) {
	store := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(&Session{BaseURL: "http://other.test", AccessToken: "t", ExpiresAt: now.Add(time.Hour)}))
	c, err := New("http://library.test", store, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	assert.Nil(t, c.Session())

	require.NoError(t, store.Save(&Session{BaseURL: "http://library.test", AccessToken: "t", ExpiresAt: now.Add(-time.Minute)}))
	c, err = New("", store, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	assert.Equal(t, "http://library.test", c.BaseURL())
	assert.Nil(t, c.Session())

	require.NoError(t, store.Save(&Session{BaseURL: "http://library.test", AccessToken: "t", ExpiresAt: now.Add(time.Hour)}))
	c, err = New("", store, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	require.NotNil(t, c.Session())
	assert.Equal(t, "t", c.Session().AccessToken)
}
