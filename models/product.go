package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a catalog item. IsTrending and TrendingOrder are written only by
// the trending curation workflow.
type Product struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string     `gorm:"type:varchar(255);not null;index" json:"name"`
	Description   string     `gorm:"type:text" json:"description"`
	CategoryID    *uuid.UUID `gorm:"type:uuid;index" json:"category_id"`
	Category      *Category  `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Images        StringList `gorm:"type:jsonb" json:"images"`
	IsTrending    bool       `gorm:"not null;default:false;index" json:"is_trending"`
	TrendingOrder int        `gorm:"not null;default:0" json:"trending_order"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// CategoryName returns the joined category name, or "" when not loaded.
func (p *Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	CategoryID *uuid.UUID
	Search     string
	Page       int
	PerPage    int
}

// ProductInput is the editable subset of a product. Images holds URLs that
// are already stored; uploads are handled separately.
type ProductInput struct {
	Name        string     `json:"name" form:"name" binding:"required,max=255"`
	Description string     `json:"description" form:"description"`
	CategoryID  *uuid.UUID `json:"category_id" form:"category_id"`
	Images      []string   `json:"images" form:"images"`
}
