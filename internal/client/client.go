// Package client is a typed Go client for the library HTTP API.
//
// A Client remembers the caller's access token in a SessionStore. The session
// is loaded when the client is created, written on login and removed on
// logout or as soon as the server answers a protected call with 401.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultBaseURL matches the server's default listen address.
	DefaultBaseURL = "http://localhost:3000"

	defaultTimeout = 30 * time.Second
	maxErrorBody   = 64 << 10
)

type Option func(*Client)

// WithHTTPClient replaces the default http.Client, e.g. with httptest's.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *SessionStore
	now        func() time.Time

	mu      sync.RWMutex
	session *Session
}

// New creates a client and loads any stored session. An empty baseURL falls
// back to the stored session's server, then to DefaultBaseURL. A session
// saved for a different server or already expired is discarded.
func New(baseURL string, store *SessionStore, opts ...Option) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		store:      store,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	var session *Session
	if store != nil {
		var err error
		session, err = store.Load()
		if err != nil {
			return nil, err
		}
	}

	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" && session != nil {
		baseURL = session.BaseURL
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", baseURL, err)
	}
	c.baseURL = baseURL

	if session != nil && (session.BaseURL != baseURL || session.Expired(c.now())) {
		if err := store.Clear(); err != nil {
			return nil, err
		}
		session = nil
	}
	c.session = session

	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns the current session, or nil when logged out.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) setSession(session *Session) error {
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	if session == nil {
		return c.store.Clear()
	}
	return c.store.Save(session)
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	// public requests carry no token and a 401 does not end the session.
	public bool
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	token := ""
	if !r.public {
		token = c.token()
		if token == "" {
			return ErrNotLoggedIn
		}
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	apiErr := decodeError(resp)
	if resp.StatusCode == http.StatusUnauthorized && !r.public {
		if err := c.setSession(nil); err != nil {
			return errors.Join(fmt.Errorf("%w: %w", ErrSessionExpired, apiErr), err)
		}
		return fmt.Errorf("%w: %w", ErrSessionExpired, apiErr)
	}
	return apiErr
}

func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, RetryAfter: resp.Header.Get("Retry-After")}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(data) > 0 {
		_ = json.Unmarshal(data, apiErr)
	}
	return apiErr
}
