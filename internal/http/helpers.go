package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/httperr"
)

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// PageResponse wraps a page of results with skip/take metadata.
type PageResponse struct {
	Data  any   `json:"data"`
	Total int64 `json:"total"`
	Skip  int   `json:"skip"`
	Take  int   `json:"take"`
}

// pageQuery is bound from ?skip=&take=.
type pageQuery struct {
	Skip int `form:"skip" binding:"min=0"`
	Take int `form:"take" binding:"min=0,max=500"`
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// parseUUIDParam reads a path parameter that must be a UUID.
// On failure it writes a 400 and returns false.
func parseUUIDParam(c *gin.Context, name string) (string, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		httperr.Respond(c, apperr.InvalidField(name, "must be a UUID"))
		return "", false
	}
	return id.String(), true
}

// bindJSON decodes the body strictly; on failure it writes a 400 and returns false.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		httperr.Respond(c, httperr.Binding(err))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		httperr.Respond(c, httperr.Binding(err))
		return false
	}
	return true
}

// parseDate accepts YYYY-MM-DD or RFC 3339. A nil or blank input yields nil.
func parseDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperr.InvalidField(field, "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
}
