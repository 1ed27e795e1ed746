package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/entities"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const invalidCredentials = "invalid credentials"

// UserStore is the subset of the users repository the identity service needs.
type UserStore interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id string) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	List(ctx context.Context) ([]entities.User, error)
}

// LoginResult is returned to clients after a successful login.
type LoginResult struct {
	AccessToken string         `json:"accessToken"`
	TokenType   string         `json:"tokenType"`
	ExpiresAt   time.Time      `json:"expiresAt"`
	User        *entities.User `json:"user"`
}

// Service handles registration, login and token verification.
type Service struct {
	users      UserStore
	tokens     *TokenIssuer
	revoker    TokenRevoker
	bcryptCost int
	// dummyHash is compared against when the email is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyHash string
}

func NewService(users UserStore, tokens *TokenIssuer, revoker TokenRevoker, bcryptCost int) (*Service, error) {
	if revoker == nil {
		revoker = NewMemoryRevoker()
	}
	secret, err := GenerateSecret()
	if err != nil {
		return nil, err
	}
	dummy, err := HashPassword(secret[:MaxPasswordLength/2], bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &Service{
		users:      users,
		tokens:     tokens,
		revoker:    revoker,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
	}, nil
}

// Register creates a user account.
func (s *Service) Register(ctx context.Context, name, email, password string) (*entities.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" {
		return nil, apperr.InvalidField("name", "is required")
	}
	// RFC 5321 limit is 254
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, apperr.InvalidField("email", "must be a valid email address")
	}

	hash, err := HashPassword(password, s.bcryptCost)
	switch {
	case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordTooLong):
		return nil, apperr.InvalidField("password", err.Error())
	case err != nil:
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entities.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("Email is already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !database.IsNotFound(err) {
			return nil, fmt.Errorf("lookup user: %w", err)
		}
		_ = CheckPassword(password, s.dummyHash)
		return nil, apperr.Unauthorized(invalidCredentials)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, apperr.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("check password: %w", err)
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt, User: user}, nil
}

// Verify returns the user id a token was issued to.
func (s *Service) Verify(ctx context.Context, token string) (string, error) {
	claims, err := s.verify(ctx, token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func (s *Service) verify(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperr.Unauthorized("invalid or expired token")
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, apperr.Unauthorized("token has been revoked")
	}
	return claims, nil
}

// Logout revokes the token until it would have expired.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.verify(ctx, token)
	if err != nil {
		return err
	}
	ttl := claims.ExpiresAt.Sub(s.tokens.now())
	if err := s.revoker.Revoke(ctx, claims.TokenID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*entities.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("User with ID %s not found", id)
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]entities.User, error) {
	return s.users.List(ctx)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
