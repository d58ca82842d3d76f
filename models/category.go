package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Slug        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	Image       string    `gorm:"type:text" json:"image"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CategoryInput is a category write. Image is not form-bound because
// multipart bodies carry the upload under the same key; handlers copy the
// text value over.
type CategoryInput struct {
	Name        string `json:"name" form:"name" binding:"required,max=255"`
	Slug        string `json:"slug" form:"slug" binding:"omitempty,max=255"`
	Description string `json:"description" form:"description"`
	Image       string `json:"image" form:"-"`
}
