package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/inkfinity/backend/models"
	"gorm.io/gorm"
)

type GormBlogRepository struct {
	db *gorm.DB
}

func NewGormBlogRepository(db *gorm.DB) *GormBlogRepository {
	return &GormBlogRepository{db: db}
}

func (r *GormBlogRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.BlogPost, error) {
	var p models.BlogPost
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormBlogRepository) FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.BlogPost, error) {
	query := r.db.WithContext(ctx).Where("slug = ?", slug)
	if publishedOnly {
		query = query.Where("published = ?", true)
	}
	var p models.BlogPost
	if err := query.First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormBlogRepository) Find(ctx context.Context, filter models.BlogFilter) ([]models.BlogPost, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BlogPost{})
	if filter.PublishedOnly {
		query = query.Where("published = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.BlogPost
	if err := query.
		Order("created_at DESC").
		Offset(offset(filter.Page, filter.PerPage)).
		Limit(filter.PerPage).
		Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// FindFeatured returns the newest post that is both featured and published.
func (r *GormBlogRepository) FindFeatured(ctx context.Context) (*models.BlogPost, error) {
	var p models.BlogPost
	err := r.db.WithContext(ctx).
		Where("featured = ? AND published = ?", true, true).
		Order("created_at DESC").
		First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// FindRelated returns up to limit other published posts, newest first.
func (r *GormBlogRepository) FindRelated(ctx context.Context, excludeID uuid.UUID, limit int) ([]models.BlogPost, error) {
	var posts []models.BlogPost
	err := r.db.WithContext(ctx).
		Where("published = ? AND id <> ?", true, excludeID).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *GormBlogRepository) Create(ctx context.Context, post *models.BlogPost) error {
	return translate(r.db.WithContext(ctx).Create(post).Error)
}

func (r *GormBlogRepository) Update(ctx context.Context, post *models.BlogPost) error {
	res := r.db.WithContext(ctx).
		Model(&models.BlogPost{ID: post.ID}).
		Select("title", "slug", "excerpt", "content", "cover_image", "featured", "published", "updated_at").
		Updates(post)
	return affected(res)
}

func (r *GormBlogRepository) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	res := r.db.WithContext(ctx).Model(&models.BlogPost{}).Where("id = ?", id).Update("published", published)
	return affected(res)
}

func (r *GormBlogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return affected(r.db.WithContext(ctx).Delete(&models.BlogPost{}, "id = ?", id))
}

func (r *GormBlogRepository) Count(ctx context.Context, publishedOnly bool) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BlogPost{})
	if publishedOnly {
		query = query.Where("published = ?", true)
	}
	var n int64
	err := query.Count(&n).Error
	return n, err
}
