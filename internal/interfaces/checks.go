package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/catalog"
	"github.com/mrlokans/library/internal/database"
	auditrepo "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/borrows"
	"github.com/mrlokans/library/internal/database/users"
	"github.com/mrlokans/library/internal/http"
	"github.com/mrlokans/library/internal/ledger"
	"github.com/mrlokans/library/internal/scheduler"
	"github.com/mrlokans/library/internal/tasks"
)

// =============================================================================
// Borrow Ledger
// =============================================================================

var _ ledger.ExistenceChecker = (*books.Repository)(nil)
var _ ledger.ExistenceChecker = (*users.Repository)(nil)
var _ ledger.RecordStore = (*borrows.Repository)(nil)
var _ ledger.Recorder = (*audit.Service)(nil)

// =============================================================================
// Catalog
// =============================================================================

var _ catalog.UserCounter = (*users.Repository)(nil)
var _ catalog.Recorder = (*audit.Service)(nil)

// =============================================================================
// Identity
// =============================================================================

var _ auth.UserStore = (*users.Repository)(nil)
var _ auth.Verifier = (*auth.Service)(nil)
var _ auth.AuthRecorder = (*audit.Service)(nil)

// TokenRevoker implementations
var _ auth.TokenRevoker = (*auth.MemoryRevoker)(nil)
var _ auth.TokenRevoker = (*auth.RedisRevoker)(nil)

// =============================================================================
// Audit Trail & Background Work
// =============================================================================

var _ audit.Store = (*auditrepo.Repository)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)

// Health check implementations
var _ http.Pinger = (*database.Database)(nil)
var _ http.Pinger = (*tasks.Client)(nil)
var _ http.Pinger = http.PingFunc(nil)
