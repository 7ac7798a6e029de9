package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Image is a generated gallery image.
type Image struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	URL         string         `gorm:"not null" json:"url" validate:"required"`
	Description string         `json:"description"`
	Category    string         `gorm:"type:varchar(32);index" json:"category"`
	Metadata    datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (Image) TableName() string { return "images" }

func (i *Image) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
