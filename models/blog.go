package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BlogPost struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title      string    `gorm:"type:varchar(255);not null" json:"title"`
	Slug       string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Excerpt    string    `gorm:"type:text" json:"excerpt"`
	Content    string    `gorm:"type:text" json:"content"`
	CoverImage string    `gorm:"type:text" json:"cover_image"`
	Featured   bool      `gorm:"not null;default:false" json:"featured"`
	Published  bool      `gorm:"not null;default:false;index" json:"published"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *BlogPost) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type BlogFilter struct {
	PublishedOnly bool
	Page          int
	PerPage       int
}

type BlogPostInput struct {
	Title      string `json:"title" form:"title" binding:"required,max=255"`
	Slug       string `json:"slug" form:"slug" binding:"omitempty,max=255"`
	Excerpt    string `json:"excerpt" form:"excerpt"`
	Content    string `json:"content" form:"content"`
	CoverImage string `json:"cover_image" form:"cover_image"`
	Featured   bool   `json:"featured" form:"featured"`
	Published  bool   `json:"published" form:"published"`
}
