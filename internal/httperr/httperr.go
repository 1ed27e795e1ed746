// Package httperr renders service errors as JSON responses.
//
// Every handler funnels failures through Respond so that the mapping from
// apperr kinds to status codes lives in one place and internal causes are
// logged but never sent to clients.
package httperr

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/logging"
)

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // per-field validation messages
}

// Status maps an error to its HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func code(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusTooManyRequests:
		return "rate_limited"
	default:
		return "internal_error"
	}
}

// Respond writes err as a JSON error and aborts the chain.
// Unclassified errors are logged and reported as a bare 500.
func Respond(c *gin.Context, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error("internal error", "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(status, ErrorResponse{Error: "internal server error", Code: code(status)})
		return
	}

	resp := ErrorResponse{Error: apperr.Message(err, http.StatusText(status)), Code: code(status)}
	if fields := apperr.FieldErrors(err); len(fields) > 0 {
		resp.Details = fields
	}
	c.AbortWithStatusJSON(status, resp)
}

// RespondStatus writes a plain message with an explicit status.
func RespondStatus(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Code: code(status)})
}

// Binding converts a gin binding failure (malformed JSON, unknown fields,
// validator tags) into a validation error with per-field details.
func Binding(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[lowerFirst(fe.Field())] = describe(fe)
		}
		return &apperr.Error{Kind: apperr.ErrValidation, Message: "validation failed", Fields: fields}
	}
	return apperr.Validation("invalid request: %s", bindingMessage(err))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid", "uuid4":
		return "must be a UUID"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// bindingMessage trims decoder errors down to something safe to echo back.
func bindingMessage(err error) string {
	msg := err.Error()
	if strings.HasPrefix(msg, "json: unknown field ") {
		return "unknown field " + strings.TrimPrefix(msg, "json: unknown field ")
	}
	if msg == "EOF" {
		return "request body is empty"
	}
	if strings.HasPrefix(msg, "json: ") || strings.Contains(msg, "invalid character") {
		return "malformed JSON"
	}
	return msg
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
