package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/inkfinity/backend/models"
	"gorm.io/gorm"
)

// GormProductRepository is the Postgres catalog.
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// Find lists products newest first, filtered by category and a
// case-insensitive name match.
func (r *GormProductRepository) Find(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	if err := query.
		Preload("Category").
		Order("created_at DESC").
		Offset(offset(filter.Page, filter.PerPage)).
		Limit(filter.PerPage).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *GormProductRepository) ListTrending(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("is_trending = ?", true).
		Order("trending_order ASC").
		Find(&products).Error
	return products, err
}

func (r *GormProductRepository) Create(ctx context.Context, product *models.Product) error {
	return translate(r.db.WithContext(ctx).Omit("Category").Create(product).Error)
}

// Update writes the editable columns only. The trending columns belong to
// the curation workflow.
func (r *GormProductRepository) Update(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{ID: product.ID}).
		Select("name", "description", "category_id", "images", "updated_at").
		Updates(product)
	return affected(res)
}

func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return affected(r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id))
}

func (r *GormProductRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error
	return n, err
}

func (r *GormProductRepository) CountTrending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("is_trending = ?", true).Count(&n).Error
	return n, err
}

func (r *GormProductRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", categoryID).Count(&n).Error
	return n, err
}

func (r *GormProductRepository) ListProductsByName(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).Preload("Category").Order("name ASC").Find(&products).Error
	return products, err
}

func (r *GormProductRepository) ClearTrending(ctx context.Context) error {
	return clearTrending(r.db.WithContext(ctx))
}

func (r *GormProductRepository) SetTrending(ctx context.Context, id uuid.UUID, order int) error {
	return setTrending(r.db.WithContext(ctx), id, order)
}

// ReplaceTrending runs the clear and every set in one transaction.
func (r *GormProductRepository) ReplaceTrending(ctx context.Context, ids []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearTrending(tx); err != nil {
			return err
		}
		for i, id := range ids {
			if err := setTrending(tx, id, i); err != nil {
				return err
			}
		}
		return nil
	})
}

func clearTrending(db *gorm.DB) error {
	return db.Model(&models.Product{}).
		Where("is_trending = ?", true).
		Updates(map[string]interface{}{"is_trending": false, "trending_order": 0}).Error
}

func setTrending(db *gorm.DB, id uuid.UUID, order int) error {
	res := db.Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_trending": true, "trending_order": order})
	return affected(res)
}
