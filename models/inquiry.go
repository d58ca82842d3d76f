package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	InquiryStatusAll    = "all"
	InquiryStatusRead   = "read"
	InquiryStatusUnread = "unread"
)

// Inquiry is a contact form submission.
type Inquiry struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name            string    `gorm:"type:varchar(255);not null" json:"name"`
	Email           string    `gorm:"type:varchar(255);not null" json:"email"`
	Phone           string    `gorm:"type:varchar(64)" json:"phone"`
	Company         string    `gorm:"type:varchar(255)" json:"company"`
	ProductInterest string    `gorm:"type:varchar(255)" json:"product_interest"`
	Message         string    `gorm:"type:text;not null" json:"message"`
	Read            bool      `gorm:"not null;default:false;index" json:"read"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Inquiry) TableName() string {
	return "contact_inquiries"
}

func (i *Inquiry) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type InquiryFilter struct {
	Status  string
	Page    int
	PerPage int
}

// ContactRequest is the public contact form payload.
type ContactRequest struct {
	Name            string `json:"name" binding:"required,max=255"`
	Email           string `json:"email" binding:"required,contact_email"`
	Phone           string `json:"phone" binding:"omitempty,max=64"`
	Company         string `json:"company" binding:"omitempty,max=255"`
	ProductInterest string `json:"product_interest" binding:"omitempty,max=255"`
	Message         string `json:"message" binding:"required"`
}
