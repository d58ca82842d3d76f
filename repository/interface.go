package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/inkfinity/backend/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// ProductRepo is implemented by the Postgres and DynamoDB catalogs. The
// last three methods are the trending workflow's store.
type ProductRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Find(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error)
	ListTrending(ctx context.Context) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	CountTrending(ctx context.Context) (int64, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)

	ListProductsByName(ctx context.Context) ([]models.Product, error)
	ClearTrending(ctx context.Context) error
	SetTrending(ctx context.Context, id uuid.UUID, order int) error
}

type CategoryRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	FindAll(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type BlogRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.BlogPost, error)
	FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.BlogPost, error)
	Find(ctx context.Context, filter models.BlogFilter) ([]models.BlogPost, int64, error)
	FindFeatured(ctx context.Context) (*models.BlogPost, error)
	FindRelated(ctx context.Context, excludeID uuid.UUID, limit int) ([]models.BlogPost, error)
	Create(ctx context.Context, post *models.BlogPost) error
	Update(ctx context.Context, post *models.BlogPost) error
	SetPublished(ctx context.Context, id uuid.UUID, published bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, publishedOnly bool) (int64, error)
}

type InquiryRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Inquiry, error)
	Find(ctx context.Context, filter models.InquiryFilter) ([]models.Inquiry, int64, error)
	Recent(ctx context.Context, limit int) ([]models.Inquiry, error)
	Create(ctx context.Context, inquiry *models.Inquiry) error
	SetRead(ctx context.Context, id uuid.UUID, read bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	CountUnread(ctx context.Context) (int64, error)
}

type SettingsRepo interface {
	// Get returns ErrNotFound until the row has been saved once.
	Get(ctx context.Context) (*models.CompanySettings, error)
	Upsert(ctx context.Context, settings *models.CompanySettings) error
}

type AdminRepo interface {
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	Create(ctx context.Context, user *models.AdminUser) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}

// translate maps gorm sentinel errors onto the package ones.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

// affected turns a zero-row write into ErrNotFound.
func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func offset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}
