// Package interfaces documents the core abstractions used throughout the application.
//
// Consumers declare the narrow interfaces they need next to the code that uses
// them; this package only lists them and holds the compile-time checks that tie
// each one to its concrete implementation (see checks.go).
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - ledger.ExistenceChecker: Book and user lookups before lending (internal/ledger/ledger.go)
//   - ledger.RecordStore: Borrow record persistence, the open-loan index lives here (internal/ledger/ledger.go)
//   - catalog.AuthorStore, catalog.BookStore, catalog.BorrowReader: Catalog reads and writes (internal/catalog/catalog.go)
//   - catalog.UserCounter: Member totals for stats (internal/catalog/catalog.go)
//   - auth.UserStore: Accounts and credentials (internal/auth/service.go)
//   - audit.Store: Audit event persistence and retention (internal/audit/service.go)
//
// ## Security Interfaces
//
//   - auth.Verifier: Bearer token verification used by the middleware (internal/auth/middleware.go)
//   - auth.TokenRevoker: Logout blocklist, in memory or in Redis (internal/auth/revoker.go)
//
// ## Event Interfaces
//
//   - ledger.Recorder, catalog.Recorder, auth.AuthRecorder: Audit hooks (implemented by audit.Service)
//
// ## Background Work Interfaces
//
//   - tasks.AuditEventCleaner: Retention cleanup run by the task queue (internal/tasks/cleanup_audit.go)
//   - scheduler.Enqueuer: Cron jobs hand work to the queue (internal/scheduler/audit_cleanup.go)
//   - http.Pinger: Dependencies reported by /health (internal/http/health.go)
//
// # Adding a New Health Check
//
//  1. Implement Ping on the dependency:
//
//     func (c *SearchClient) Ping(ctx context.Context) error
//
//  2. Add a compile-time check to checks.go:
//
//     var _ http.Pinger = (*search.Client)(nil)
//
//  3. Register it under a name in entrypoint.go:
//
//     healthChecks["search"] = searchClient
//
// # Adding a New Database Domain
//
// To add a new data domain (e.g., reservations):
//
//  1. Create sub-package: internal/database/reservations/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Implement the interface the consuming service declares
//
//  4. Add compile-time check:
//
//     var _ reservations.Store = (*Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
