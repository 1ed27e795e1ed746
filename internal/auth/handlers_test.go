package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	binding.EnableDecoderDisallowUnknownFields = true
}

type authEvent struct {
	userID, action string
	success        bool
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []authEvent
}

func (f *fakeRecorder) LogAuth(userID, action, _ string, success bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, authEvent{userID, action, success})
}

func setupRouter(t *testing.T) (*gin.Engine, *fakeRecorder) {
	t.Helper()
	svc := setupService(t)
	limiter := NewRateLimiter(RateLimitConfig{MaxAttempts: 3, WindowDuration: time.Minute, LockoutDuration: time.Minute})
	t.Cleanup(limiter.Stop)
	recorder := &fakeRecorder{}

	router := gin.New()
	protected := router.Group("/", RequireAuth(svc, nil))
	NewAuthController(svc, limiter, recorder).RegisterRoutes(router, protected)
	return router, recorder
}

func doJSON(router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthFlow(t *testing.T) {
	router, recorder := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/auth/register", "", gin.H{
		"name": "Alice", "email": "alice@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "password")

	w = doJSON(router, http.MethodPost, "/auth/login", "", gin.H{
		"email": "alice@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var login struct {
		AccessToken string `json:"accessToken"`
		User        struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.Equal(t, "alice@example.com", login.User.Email)

	w = doJSON(router, http.MethodGet, "/auth/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), login.User.ID)

	w = doJSON(router, http.MethodPost, "/auth/logout", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/auth/me", login.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Equal(t, []authEvent{
		{login.User.ID, "login", true},
		{login.User.ID, "logout", true},
	}, recorder.events)
}

func TestRegister_Errors(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/auth/register", "", gin.H{"name": "Alice", "email": "nope", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"email"`)

	w = doJSON(router, http.MethodPost, "/auth/register", "", gin.H{"name": "Alice", "email": "a@example.com", "password": "password123", "role": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "unknown fields are rejected")

	body := gin.H{"name": "Alice", "email": "a@example.com", "password": "password123"}
	require.Equal(t, http.StatusCreated, doJSON(router, http.MethodPost, "/auth/register", "", body).Code)
	assert.Equal(t, http.StatusConflict, doJSON(router, http.MethodPost, "/auth/register", "", body).Code)
}

func TestLogin_RateLimited(t *testing.T) {
	router, recorder := setupRouter(t)
	require.Equal(t, http.StatusCreated, doJSON(router, http.MethodPost, "/auth/register", "", gin.H{
		"name": "Alice", "email": "alice@example.com", "password": "password123",
	}).Code)

	bad := gin.H{"email": "alice@example.com", "password": "wrong-password"}
	assert.Equal(t, http.StatusUnauthorized, doJSON(router, http.MethodPost, "/auth/login", "", bad).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(router, http.MethodPost, "/auth/login", "", bad).Code)

	w := doJSON(router, http.MethodPost, "/auth/login", "", bad)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// locked out even with the right password
	w = doJSON(router, http.MethodPost, "/auth/login", "", gin.H{"email": "alice@example.com", "password": "password123"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	assert.Len(t, recorder.events, 3)
	for _, e := range recorder.events {
		assert.False(t, e.success)
	}
}

func TestRequireAuth(t *testing.T) {
	router, _ := setupRouter(t)

	tests := map[string]string{
		"no header":     "",
		"wrong scheme":  "Basic abc",
		"bogus bearer":  "Bearer not-a-token",
		"bearer no val": "Bearer",
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"unauthorized"`)
		})
	}
}
