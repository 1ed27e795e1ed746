package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Author struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null;index" json:"name"`
	Bio       *string   `gorm:"type:text" json:"bio"`
	Books     []Book    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"books,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Author) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

type Book struct {
	ID          string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title       string     `gorm:"size:512;not null" json:"title"`
	ISBN        *string    `gorm:"size:32;index" json:"isbn"`
	PublishedAt *time.Time `json:"publishedAt"`
	AuthorID    string     `gorm:"type:varchar(36);not null;index" json:"authorId"`
	Author      *Author    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"author,omitempty"`
	// Full borrow history; only loaded by detail views.
	BorrowRecords []BorrowRecord `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"borrowRecords,omitempty"`
	CreatedAt     time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
