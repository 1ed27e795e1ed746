package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/httperr"
	"github.com/mrlokans/library/internal/logging"
)

func init() {
	// Unknown JSON fields are a client error, not something to ignore.
	binding.EnableDecoderDisallowUnknownFields = true
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(logging.RequestID())
	router.Use(logging.RequestLog())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.FromContext(c.Request.Context()).Error("panic recovered", "panic", recovered)
		httperr.RespondStatus(c, http.StatusInternalServerError, "internal server error")
	}))
	router.Use(auth.SecurityHeadersMiddleware())
	router.Use(auth.StrictTransportSecurityMiddleware())
	if len(cfg.AllowedOrigins) > 0 {
		router.Use(corsMiddleware(cfg.AllowedOrigins))
	}

	router.NoRoute(func(c *gin.Context) {
		httperr.RespondStatus(c, http.StatusNotFound, "route not found")
	})
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		httperr.RespondStatus(c, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Health endpoints
	health := NewHealthController(cfg.Version, cfg.HealthChecks)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	protected := router.Group("/", auth.RequireAuth(cfg.AuthService, audit.WithActor))

	var recorder auth.AuthRecorder
	if cfg.Audit != nil {
		recorder = cfg.Audit
	}
	auth.NewAuthController(cfg.AuthService, cfg.RateLimiter, recorder).RegisterRoutes(router, protected)

	users := NewUsersController(cfg.AuthService)
	protected.GET("/users", users.List)
	protected.POST("/users", users.Create)
	protected.GET("/users/:id", users.Get)

	authors := NewAuthorsController(cfg.Catalog)
	protected.GET("/authors", authors.List)
	protected.POST("/authors", authors.Create)
	protected.GET("/authors/:id", authors.Get)
	protected.PATCH("/authors/:id", authors.Update)
	protected.DELETE("/authors/:id", authors.Delete)

	books := NewBooksController(cfg.Catalog)
	protected.GET("/books", books.List)
	protected.POST("/books", books.Create)
	protected.GET("/books/:id", books.Get)
	protected.PATCH("/books/:id", books.Update)
	protected.DELETE("/books/:id", books.Delete)
	protected.GET("/stats", books.Stats)

	borrows := NewBorrowsController(cfg.Ledger, cfg.SelfService)
	protected.POST("/borrowed-books/borrow", borrows.Borrow)
	protected.POST("/borrowed-books/return/:bookId/:userId", borrows.Return)
	protected.GET("/borrowed-books/user/:userId", borrows.ByUser)
	protected.GET("/borrowed-books/active", borrows.Active)

	if cfg.Audit != nil {
		auditController := NewAuditController(cfg.Audit)
		protected.GET("/audit-events", auditController.List)
	}

	return router
}
