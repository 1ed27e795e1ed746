package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	auditrepo "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/httperr"
)

const defaultAuditPageSize = 50

type AuditController struct {
	auditService *audit.Service
}

func NewAuditController(auditService *audit.Service) *AuditController {
	return &AuditController{auditService: auditService}
}

type auditEventsQuery struct {
	pageQuery
	Type string `form:"type" binding:"omitempty,oneof=borrow return catalog auth"`
}

// GET /audit-events?type=&skip=&take=
// Lists events performed by the caller, most recent first.
func (ac *AuditController) List(c *gin.Context) {
	var q auditEventsQuery
	if !bindQuery(c, &q) {
		return
	}
	take := q.Take
	if take == 0 {
		take = defaultAuditPageSize
	}

	events, total, err := ac.auditService.GetEvents(c.Request.Context(), auditrepo.Query{
		UserID:    auth.GetUserID(c),
		EventType: entities.AuditEventType(q.Type),
		Limit:     take,
		Offset:    q.Skip,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, PageResponse{Data: events, Total: total, Skip: q.Skip, Take: take})
}
