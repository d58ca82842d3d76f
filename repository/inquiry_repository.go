package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/inkfinity/backend/models"
	"gorm.io/gorm"
)

type GormInquiryRepository struct {
	db *gorm.DB
}

func NewGormInquiryRepository(db *gorm.DB) *GormInquiryRepository {
	return &GormInquiryRepository{db: db}
}

func (r *GormInquiryRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Inquiry, error) {
	var i models.Inquiry
	if err := r.db.WithContext(ctx).First(&i, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &i, nil
}

func (r *GormInquiryRepository) Find(ctx context.Context, filter models.InquiryFilter) ([]models.Inquiry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Inquiry{})
	switch filter.Status {
	case models.InquiryStatusRead:
		query = query.Where("read = ?", true)
	case models.InquiryStatusUnread:
		query = query.Where("read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var inquiries []models.Inquiry
	if err := query.
		Order("created_at DESC").
		Offset(offset(filter.Page, filter.PerPage)).
		Limit(filter.PerPage).
		Find(&inquiries).Error; err != nil {
		return nil, 0, err
	}
	return inquiries, total, nil
}

func (r *GormInquiryRepository) Recent(ctx context.Context, limit int) ([]models.Inquiry, error) {
	var inquiries []models.Inquiry
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&inquiries).Error
	return inquiries, err
}

func (r *GormInquiryRepository) Create(ctx context.Context, inquiry *models.Inquiry) error {
	return r.db.WithContext(ctx).Create(inquiry).Error
}

func (r *GormInquiryRepository) SetRead(ctx context.Context, id uuid.UUID, read bool) error {
	return affected(r.db.WithContext(ctx).Model(&models.Inquiry{}).Where("id = ?", id).Update("read", read))
}

func (r *GormInquiryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return affected(r.db.WithContext(ctx).Delete(&models.Inquiry{}, "id = ?", id))
}

func (r *GormInquiryRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Inquiry{}).Count(&n).Error
	return n, err
}

func (r *GormInquiryRepository) CountUnread(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Inquiry{}).Where("read = ?", false).Count(&n).Error
	return n, err
}
