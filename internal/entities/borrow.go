package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BorrowRecord is one borrowing event. A record is open while ReturnedAt is nil;
// storage guarantees at most one open record per book.
type BorrowRecord struct {
	ID         string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	BookID     string     `gorm:"type:varchar(36);not null;index" json:"bookId"`
	UserID     string     `gorm:"type:varchar(36);not null;index" json:"userId"`
	BorrowedAt time.Time  `gorm:"not null;index" json:"borrowedAt"`
	ReturnedAt *time.Time `json:"returnedAt"`
	Book       *Book      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"book,omitempty"`
	User       *User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"user,omitempty"`
}

func (BorrowRecord) TableName() string {
	return "borrow_records"
}

func (r *BorrowRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (r *BorrowRecord) IsOpen() bool {
	return r.ReturnedAt == nil
}
