package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/httperr"
)

// UsersController lists and creates library members.
type UsersController struct {
	authService *auth.Service
}

func NewUsersController(authService *auth.Service) *UsersController {
	return &UsersController{authService: authService}
}

// GET /users
func (uc *UsersController) List(c *gin.Context) {
	users, err := uc.authService.ListUsers(c.Request.Context())
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// POST /users
func (uc *UsersController) Create(c *gin.Context) {
	var req auth.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := uc.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	respondCreated(c, user)
}

// GET /users/:id
func (uc *UsersController) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	user, err := uc.authService.GetUser(c.Request.Context(), id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
