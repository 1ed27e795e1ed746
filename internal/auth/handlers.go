package auth

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/httperr"
)

// AuthRecorder records login and logout outcomes.
type AuthRecorder interface {
	LogAuth(userID, action, ipAddr string, success bool)
}

// AuthController handles the /auth endpoints.
type AuthController struct {
	service     *Service
	rateLimiter *RateLimiter
	recorder    AuthRecorder
}

// NewAuthController wires the controller. rateLimiter and recorder may be nil.
func NewAuthController(service *Service, rateLimiter *RateLimiter, recorder AuthRecorder) *AuthController {
	return &AuthController{service: service, rateLimiter: rateLimiter, recorder: recorder}
}

// RegisterRoutes mounts register/login on public and logout/me on protected.
func (ac *AuthController) RegisterRoutes(public, protected gin.IRoutes) {
	public.POST("/auth/register", ac.Register)
	public.POST("/auth/login", ac.Login)
	protected.POST("/auth/logout", ac.Logout)
	protected.GET("/auth/me", ac.Me)
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (ac *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Respond(c, httperr.Binding(err))
		return
	}

	user, err := ac.service.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Respond(c, httperr.Binding(err))
		return
	}

	clientIP := c.ClientIP()
	if ac.rateLimiter != nil {
		if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, req.Email); !allowed {
			tooManyAttempts(c, retryAfter)
			return
		}
	}

	result, err := ac.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthorized) {
			ac.record("", "login", clientIP, false)
			if ac.rateLimiter != nil {
				if locked, retryAfter := ac.rateLimiter.RecordFailure(clientIP, req.Email); locked {
					tooManyAttempts(c, retryAfter)
					return
				}
			}
		}
		httperr.Respond(c, err)
		return
	}

	if ac.rateLimiter != nil {
		ac.rateLimiter.RecordSuccess(clientIP, req.Email)
	}
	ac.record(result.User.ID, "login", clientIP, true)
	c.JSON(http.StatusOK, result)
}

func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.service.Logout(c.Request.Context(), GetToken(c)); err != nil {
		httperr.Respond(c, err)
		return
	}
	ac.record(GetUserID(c), "logout", c.ClientIP(), true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (ac *AuthController) Me(c *gin.Context) {
	user, err := ac.service.GetUser(c.Request.Context(), GetUserID(c))
	if err != nil {
		// a valid token for a user that no longer exists
		if errors.Is(err, apperr.ErrNotFound) {
			httperr.RespondStatus(c, http.StatusUnauthorized, "authentication required")
			return
		}
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (ac *AuthController) record(userID, action, ip string, success bool) {
	if ac.recorder != nil {
		ac.recorder.LogAuth(userID, action, ip, success)
	}
}

func tooManyAttempts(c *gin.Context, retryAfter time.Duration) {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	c.Header("Retry-After", strconv.Itoa(seconds))
	httperr.RespondStatus(c, http.StatusTooManyRequests, "too many login attempts, try again later")
}
