package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/entities"
)

// Store persists and queries audit events.
type Store interface {
	LogEvent(ctx context.Context, event *entities.AuditEvent) error
	GetEvents(ctx context.Context, q audit.Query) ([]entities.AuditEvent, int64, error)
	DeleteOldEvents(ctx context.Context, olderThan time.Time) (int64, error)
}

var _ Store = (*audit.Repository)(nil)

const asyncWriteTimeout = 5 * time.Second

// Service provides high-level audit logging functionality.
type Service struct {
	repo    Store
	pending sync.WaitGroup
	now     func() time.Time
}

// NewService creates a new audit service.
func NewService(repo Store) *Service {
	return &Service{repo: repo, now: time.Now}
}

type actorKey struct{}

// WithActor attaches the authenticated user id to ctx so events record who acted.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom returns the user id set by WithActor, or "".
func ActorFrom(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}

// Log records a generic audit event.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background (non-blocking).
// Failures are logged and never reach the caller.
func (s *Service) LogAsync(event *entities.AuditEvent) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now().UTC()
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), asyncWriteTimeout)
		defer cancel()
		if err := s.repo.LogEvent(ctx, event); err != nil {
			slog.Error("failed to log audit event", "action", event.Action, "error", err)
		}
	}()
}

// Wait blocks until every LogAsync write has finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogBorrow records a successful borrow.
func (s *Service) LogBorrow(ctx context.Context, record *entities.BorrowRecord) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      actorOr(ctx, record.UserID),
		EventType:   entities.AuditEventBorrow,
		Action:      "book_borrow",
		Description: fmt.Sprintf("Book %s borrowed by user %s", record.BookID, record.UserID),
		EntityType:  "borrow_record",
		EntityID:    record.ID,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogReturn records a successful return.
func (s *Service) LogReturn(ctx context.Context, record *entities.BorrowRecord) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      actorOr(ctx, record.UserID),
		EventType:   entities.AuditEventReturn,
		Action:      "book_return",
		Description: fmt.Sprintf("Book %s returned by user %s", record.BookID, record.UserID),
		EntityType:  "borrow_record",
		EntityID:    record.ID,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogCatalog records a change to an author or book.
func (s *Service) LogCatalog(ctx context.Context, action, entityType, entityID, description string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      ActorFrom(ctx),
		EventType:   entities.AuditEventCatalog,
		Action:      action,
		Description: truncate(description, 500),
		EntityType:  entityType,
		EntityID:    entityID,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID, action, ipAddr string, success bool) {
	event := &entities.AuditEvent{
		UserID:    userID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		IPAddress: ipAddr,
		Status:    entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(ctx context.Context, q audit.Query) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(ctx, q)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-retention)
	return s.repo.DeleteOldEvents(ctx, cutoff)
}

func actorOr(ctx context.Context, fallback string) string {
	if actor := ActorFrom(ctx); actor != "" {
		return actor
	}
	return fallback
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
