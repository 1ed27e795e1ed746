package audit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	auditRepo "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/entities"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&entities.AuditEvent{})
	require.NoError(t, err)

	svc := NewService(auditRepo.NewRepository(db))
	t.Cleanup(svc.Wait)

	return svc, db
}

func TestService_Log(t *testing.T) {
	svc, db := setupTestService(t)

	event := &entities.AuditEvent{
		UserID:    "user-1",
		EventType: entities.AuditEventCatalog,
		Action:    "author_create",
		Status:    entities.AuditStatusSuccess,
	}

	require.NoError(t, svc.Log(context.Background(), event))

	var saved entities.AuditEvent
	require.NoError(t, db.First(&saved, event.ID).Error)
	assert.Equal(t, "author_create", saved.Action)
}

func TestService_LogBorrowAndReturn(t *testing.T) {
	svc, db := setupTestService(t)

	record := &entities.BorrowRecord{ID: "rec-1", BookID: "book-1", UserID: "member-1"}

	t.Run("actor defaults to the borrower", func(t *testing.T) {
		svc.LogBorrow(context.Background(), record)
		svc.Wait()

		var event entities.AuditEvent
		require.NoError(t, db.Where("action = ?", "book_borrow").First(&event).Error)
		assert.Equal(t, "member-1", event.UserID)
		assert.Equal(t, entities.AuditEventBorrow, event.EventType)
		assert.Equal(t, "rec-1", event.EntityID)
	})

	t.Run("actor from context wins", func(t *testing.T) {
		ctx := WithActor(context.Background(), "librarian-1")
		svc.LogReturn(ctx, record)
		svc.Wait()

		var event entities.AuditEvent
		require.NoError(t, db.Where("action = ?", "book_return").First(&event).Error)
		assert.Equal(t, "librarian-1", event.UserID)
	})
}

func TestService_LogCatalog(t *testing.T) {
	svc, db := setupTestService(t)

	ctx := WithActor(context.Background(), "admin")
	svc.LogCatalog(ctx, "book_delete", "book", "book-9", strings.Repeat("x", 600))
	svc.Wait()

	var event entities.AuditEvent
	require.NoError(t, db.Where("action = ?", "book_delete").First(&event).Error)
	assert.Equal(t, "admin", event.UserID)
	assert.Len(t, event.Description, 500)
	assert.True(t, strings.HasSuffix(event.Description, "..."))
}

func TestService_LogAuth(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogAuth("", "login", "10.0.0.1", false)
	svc.Wait()

	var event entities.AuditEvent
	require.NoError(t, db.Where("action = ?", "login").First(&event).Error)
	assert.Equal(t, entities.AuditStatusFailed, event.Status)
	assert.Equal(t, "10.0.0.1", event.IPAddress)
}

func TestService_DeleteOldEvents(t *testing.T) {
	svc, db := setupTestService(t)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	require.NoError(t, db.Create(&entities.AuditEvent{Action: "old", CreatedAt: now.Add(-48 * time.Hour)}).Error)
	require.NoError(t, db.Create(&entities.AuditEvent{Action: "new", CreatedAt: now.Add(-time.Hour)}).Error)

	deleted, err := svc.DeleteOldEvents(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	events, total, err := svc.GetEvents(context.Background(), auditRepo.Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "new", events[0].Action)
}

func TestActorFrom_Empty(t *testing.T) {
	assert.Equal(t, "", ActorFrom(context.Background()))
}
