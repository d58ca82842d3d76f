package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/inkfinity/backend/models"
	"gorm.io/gorm"
)

type GormAdminRepository struct {
	db *gorm.DB
}

func NewGormAdminRepository(db *gorm.DB) *GormAdminRepository {
	return &GormAdminRepository{db: db}
}

func (r *GormAdminRepository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var u models.AdminUser
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *GormAdminRepository) Create(ctx context.Context, user *models.AdminUser) error {
	user.Email = strings.ToLower(user.Email)
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *GormAdminRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return affected(r.db.WithContext(ctx).Model(&models.AdminUser{}).Where("id = ?", id).Update("password_hash", hash))
}
