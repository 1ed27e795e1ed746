// Package auth provides identity for the library API: account registration,
// password login, bearer token verification and logout.
//
// Access tokens are HS256 JWTs carrying the user id as subject plus issuer,
// audience, expiry and a unique token id. Logging out revokes that token id
// until the token would have expired. Revocations live in memory by default
// or in Redis when several API instances share them.
//
// # Configuration
//
//	AUTH_JWT_SECRET=<hex>            # Auto-generated if empty, tokens then die with the process
//	AUTH_TOKEN_TTL=24h               # Access token lifetime
//	AUTH_BCRYPT_COST=12              # bcrypt cost factor
//	AUTH_MAX_LOGIN_ATTEMPTS=5        # Failures per IP+email before lockout
//	AUTH_REVOCATION_BACKEND=memory   # memory or redis (uses REDIS_ADDR)
//
// # Usage
//
//	tokens, _ := auth.NewTokenIssuer(auth.TokenConfig{Secret: secret, TTL: cfg.Auth.TokenTTL})
//	authService, _ := auth.NewService(userRepo, tokens, auth.NewMemoryRevoker(), cfg.Auth.BcryptCost)
//	protected := router.Group("/", auth.RequireAuth(authService, audit.WithActor))
//
// Extract the caller in handlers:
//
//	userID := auth.GetUserID(c)
package auth
