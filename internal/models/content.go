package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Content is a magazine article as read by the generated Octavia page.
type Content struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title            string    `gorm:"not null" json:"title" validate:"required"`
	Slug             string    `gorm:"uniqueIndex;not null" json:"slug" validate:"required"`
	Content          string    `gorm:"type:text" json:"content"`
	Category         string    `gorm:"type:varchar(32);index" json:"category"`
	Author           string    `json:"author"`
	BlueLipstickEdit bool      `gorm:"column:blueLipstickEdit;not null;default:false;index" json:"blueLipstickEdit"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName matches the table the site queries through Supabase.
func (Content) TableName() string { return "content" }

func (c *Content) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
