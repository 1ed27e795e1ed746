package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/httperr"
)

// Context keys for the authenticated caller
const (
	ContextKeyUserID = "auth_user_id"
	ContextKeyToken  = "auth_token"
)

// Verifier resolves a bearer token to a user id.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// RequireAuth rejects requests without a valid bearer token.
// onAuth, when set, may decorate the request context with the caller id.
func RequireAuth(verifier Verifier, onAuth func(ctx context.Context, userID string) context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			httperr.RespondStatus(c, http.StatusUnauthorized, "authentication required")
			return
		}

		userID, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			httperr.Respond(c, err)
			return
		}

		c.Set(ContextKeyUserID, userID)
		c.Set(ContextKeyToken, token)
		if onAuth != nil {
			c.Request = c.Request.WithContext(onAuth(c.Request.Context(), userID))
		}
		c.Next()
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetUserID returns the authenticated user id, or "" outside RequireAuth.
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

// GetToken returns the raw bearer token of the authenticated request.
func GetToken(c *gin.Context) string {
	return c.GetString(ContextKeyToken)
}
