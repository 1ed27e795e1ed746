package http

import (
	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/catalog"
	"github.com/mrlokans/library/internal/ledger"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core services
	Ledger  *ledger.Service
	Catalog *catalog.Service
	Audit   *audit.Service

	// Identity
	AuthService *auth.Service
	RateLimiter *auth.RateLimiter // optional

	// Dependencies reported by /health; nil values show as "not configured"
	HealthChecks map[string]Pinger

	// SelfService restricts ledger routes to the caller's own user id
	SelfService bool

	// Origins allowed by CORS; empty disables CORS headers
	AllowedOrigins []string

	// Application info
	Version string
}
