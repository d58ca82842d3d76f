package controllers

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/inkfinity/backend/models"
	"github.com/inkfinity/backend/services"
	"github.com/inkfinity/backend/trending"
)

const (
	DefaultCacheTTL = 10 * time.Minute

	// MaxUploadSize applies per image file.
	MaxUploadSize      = 10 << 20
	MaxMultipartMemory = 32 << 20
)

type ProductServiceAPI interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, services.PageMeta, error)
	ListTrending(ctx context.Context) ([]models.Product, error)
	CreateProduct(ctx context.Context, in models.ProductInput, files []*multipart.FileHeader) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, in models.ProductInput, files []*multipart.FileHeader, imagesToRemove []string) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type CategoryServiceAPI interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	CreateCategory(ctx context.Context, in models.CategoryInput, image *multipart.FileHeader) (*models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, in models.CategoryInput, image *multipart.FileHeader) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type BlogServiceAPI interface {
	ListPosts(ctx context.Context, filter models.BlogFilter) ([]models.BlogPost, services.PageMeta, error)
	FeaturedPost(ctx context.Context) (*models.BlogPost, error)
	PostBySlug(ctx context.Context, slug string) (*services.BlogPostDetail, error)
	GetPost(ctx context.Context, id uuid.UUID) (*models.BlogPost, error)
	CreatePost(ctx context.Context, in models.BlogPostInput, cover *multipart.FileHeader) (*models.BlogPost, error)
	UpdatePost(ctx context.Context, id uuid.UUID, in models.BlogPostInput, cover *multipart.FileHeader) (*models.BlogPost, error)
	TogglePublished(ctx context.Context, id uuid.UUID) (*models.BlogPost, error)
	DeletePost(ctx context.Context, id uuid.UUID) error
}

type InquiryServiceAPI interface {
	Submit(ctx context.Context, req models.ContactRequest) (*models.Inquiry, error)
	ListInquiries(ctx context.Context, filter models.InquiryFilter) ([]models.Inquiry, services.PageMeta, error)
	GetInquiry(ctx context.Context, id uuid.UUID) (*models.Inquiry, error)
	SetRead(ctx context.Context, id uuid.UUID, read bool) (*models.Inquiry, error)
	DeleteInquiry(ctx context.Context, id uuid.UUID) error
	UnreadCount(ctx context.Context) (int64, error)
}

type SettingsServiceAPI interface {
	Get(ctx context.Context) (*models.CompanySettings, error)
	Update(ctx context.Context, in models.SettingsInput) (*models.CompanySettings, error)
	SetImage(ctx context.Context, kind string, file *multipart.FileHeader) (*models.CompanySettings, error)
	RemoveImage(ctx context.Context, kind string) (*models.CompanySettings, error)
}

type AuthServiceAPI interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
}

type DashboardServiceAPI interface {
	Summary(ctx context.Context) (*models.Dashboard, error)
}

type UploadServiceAPI interface {
	Presign(ctx context.Context, folder, filename, contentType string) (*services.PresignResult, error)
}

type TrendingServiceAPI interface {
	Snapshot(ctx context.Context, filter string, refresh bool) (trending.Snapshot, error)
	Toggle(ctx context.Context, id uuid.UUID) (trending.Snapshot, error)
	MoveUp(ctx context.Context, index int) (trending.Snapshot, error)
	MoveDown(ctx context.Context, index int) (trending.Snapshot, error)
	Save(ctx context.Context) (trending.Snapshot, error)
	Replace(ctx context.Context, ids []uuid.UUID) (trending.Snapshot, error)
}
