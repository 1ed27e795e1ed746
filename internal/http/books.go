package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/catalog"
	"github.com/mrlokans/library/internal/httperr"
)

type BooksController struct {
	catalog *catalog.Service
}

func NewBooksController(catalog *catalog.Service) *BooksController {
	return &BooksController{catalog: catalog}
}

type listBooksQuery struct {
	Search   string `form:"search" binding:"max=255"`
	AuthorID string `form:"authorId" binding:"omitempty,uuid"`
	Borrowed string `form:"borrowed" binding:"omitempty,oneof=true false"`
	Skip     int    `form:"skip" binding:"min=0"`
	Take     int    `form:"take" binding:"min=0"`
}

type createBookRequest struct {
	Title       string  `json:"title" binding:"required,max=512"`
	AuthorID    string  `json:"authorId" binding:"required,uuid"`
	ISBN        *string `json:"isbn" binding:"omitempty,max=32"`
	PublishedAt *string `json:"publishedAt"`
}

type updateBookRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=512"`
	AuthorID    *string `json:"authorId" binding:"omitempty,uuid"`
	ISBN        *string `json:"isbn" binding:"omitempty,max=32"`
	PublishedAt *string `json:"publishedAt"`
}

// GET /books?search=&authorId=&borrowed=&skip=&take=
func (bc *BooksController) List(c *gin.Context) {
	var q listBooksQuery
	if !bindQuery(c, &q) {
		return
	}

	query := catalog.BookQuery{Search: q.Search, AuthorID: q.AuthorID, Skip: q.Skip, Take: q.Take}
	if q.Borrowed != "" {
		borrowed := q.Borrowed == "true"
		query.Borrowed = &borrowed
	}

	page, err := bc.catalog.ListBooks(c.Request.Context(), query)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// POST /books
func (bc *BooksController) Create(c *gin.Context) {
	var req createBookRequest
	if !bindJSON(c, &req) {
		return
	}
	publishedAt, err := parseDate("publishedAt", req.PublishedAt)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	book, err := bc.catalog.CreateBook(c.Request.Context(), catalog.BookInput{
		Title:       req.Title,
		ISBN:        req.ISBN,
		PublishedAt: publishedAt,
		AuthorID:    req.AuthorID,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	respondCreated(c, book)
}

// GET /books/:id
func (bc *BooksController) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	book, err := bc.catalog.GetBook(c.Request.Context(), id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

// PATCH /books/:id
func (bc *BooksController) Update(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req updateBookRequest
	if !bindJSON(c, &req) {
		return
	}
	publishedAt, err := parseDate("publishedAt", req.PublishedAt)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	book, err := bc.catalog.UpdateBook(c.Request.Context(), id, catalog.BookPatch{
		Title:       req.Title,
		ISBN:        req.ISBN,
		PublishedAt: publishedAt,
		AuthorID:    req.AuthorID,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

// DELETE /books/:id
func (bc *BooksController) Delete(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := bc.catalog.DeleteBook(c.Request.Context(), id); err != nil {
		httperr.Respond(c, err)
		return
	}
	respondSuccess(c, "Book deleted")
}

// GET /stats
func (bc *BooksController) Stats(c *gin.Context) {
	stats, err := bc.catalog.Stats(c.Request.Context())
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
