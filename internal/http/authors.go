package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/catalog"
	"github.com/mrlokans/library/internal/httperr"
)

type AuthorsController struct {
	catalog *catalog.Service
}

func NewAuthorsController(catalog *catalog.Service) *AuthorsController {
	return &AuthorsController{catalog: catalog}
}

type createAuthorRequest struct {
	Name string  `json:"name" binding:"required,max=255"`
	Bio  *string `json:"bio"`
}

type updateAuthorRequest struct {
	Name *string `json:"name" binding:"omitempty,max=255"`
	Bio  *string `json:"bio"`
}

// GET /authors
func (ac *AuthorsController) List(c *gin.Context) {
	authors, err := ac.catalog.ListAuthors(c.Request.Context())
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, authors)
}

// POST /authors
func (ac *AuthorsController) Create(c *gin.Context) {
	var req createAuthorRequest
	if !bindJSON(c, &req) {
		return
	}
	author, err := ac.catalog.CreateAuthor(c.Request.Context(), catalog.AuthorInput{Name: req.Name, Bio: req.Bio})
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	respondCreated(c, author)
}

// GET /authors/:id
func (ac *AuthorsController) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	author, err := ac.catalog.GetAuthor(c.Request.Context(), id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, author)
}

// PATCH /authors/:id
func (ac *AuthorsController) Update(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req updateAuthorRequest
	if !bindJSON(c, &req) {
		return
	}
	author, err := ac.catalog.UpdateAuthor(c.Request.Context(), id, catalog.AuthorPatch{Name: req.Name, Bio: req.Bio})
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, author)
}

// DELETE /authors/:id
func (ac *AuthorsController) Delete(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := ac.catalog.DeleteAuthor(c.Request.Context(), id); err != nil {
		httperr.Respond(c, err)
		return
	}
	respondSuccess(c, "Author deleted")
}
