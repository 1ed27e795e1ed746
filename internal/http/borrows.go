package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/httperr"
	"github.com/mrlokans/library/internal/ledger"
)

// BorrowsController exposes the borrow ledger under /borrowed-books.
type BorrowsController struct {
	ledger *ledger.Service
	// selfService limits borrow, return and history to the caller's own id.
	selfService bool
}

func NewBorrowsController(ledger *ledger.Service, selfService bool) *BorrowsController {
	return &BorrowsController{ledger: ledger, selfService: selfService}
}

type borrowRequest struct {
	BookID string `json:"bookId" binding:"required,uuid"`
	UserID string `json:"userId" binding:"required,uuid"`
}

// POST /borrowed-books/borrow
func (bc *BorrowsController) Borrow(c *gin.Context) {
	var req borrowRequest
	if !bindJSON(c, &req) {
		return
	}
	if !bc.allowed(c, req.UserID) {
		return
	}

	record, err := bc.ledger.Borrow(c.Request.Context(), req.BookID, req.UserID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	respondCreated(c, record)
}

// POST /borrowed-books/return/:bookId/:userId
func (bc *BorrowsController) Return(c *gin.Context) {
	bookID, ok := parseUUIDParam(c, "bookId")
	if !ok {
		return
	}
	userID, ok := parseUUIDParam(c, "userId")
	if !ok {
		return
	}
	if !bc.allowed(c, userID) {
		return
	}

	record, err := bc.ledger.Return(c.Request.Context(), bookID, userID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// GET /borrowed-books/user/:userId
func (bc *BorrowsController) ByUser(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "userId")
	if !ok {
		return
	}
	if !bc.allowed(c, userID) {
		return
	}

	records, err := bc.ledger.ListByUser(c.Request.Context(), userID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// GET /borrowed-books/active
func (bc *BorrowsController) Active(c *gin.Context) {
	records, err := bc.ledger.ListActive(c.Request.Context())
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (bc *BorrowsController) allowed(c *gin.Context, userID string) bool {
	if bc.selfService && auth.GetUserID(c) != userID {
		httperr.Respond(c, apperr.Forbidden("You can only manage your own borrowed books"))
		return false
	}
	return true
}
