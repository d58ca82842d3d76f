package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/google/uuid"
	apperrors "github.com/inkfinity/backend/common/errors"
	"github.com/inkfinity/backend/models"
	"github.com/inkfinity/backend/repository"
	"github.com/inkfinity/backend/storage"
	"go.uber.org/zap"
)

type CategoryService struct {
	categories repository.CategoryRepo
	products   repository.ProductRepo
	images     storage.ImageStore
	logger     *zap.Logger
}

func NewCategoryService(cr repository.CategoryRepo, pr repository.ProductRepo, images storage.ImageStore, logger *zap.Logger) *CategoryService {
	return &CategoryService{categories: cr, products: pr, images: images, logger: logger}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	cats, err := s.categories.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if cats == nil {
		cats = []models.Category{}
	}
	return cats, nil
}

func (s *CategoryService) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("Category not found", err)
	}
	return c, nil
}

func (s *CategoryService) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	c, err := s.categories.FindBySlug(ctx, slug)
	if err != nil {
		return nil, notFound("Category not found", err)
	}
	return c, nil
}

// CreateCategory stores image (optional) and inserts the category. The slug
// defaults to the slugified name.
func (s *CategoryService) CreateCategory(ctx context.Context, in models.CategoryInput, image *multipart.FileHeader) (*models.Category, error) {
	cat := &models.Category{
		Name:        in.Name,
		Slug:        slugOr(in.Slug, in.Name),
		Description: in.Description,
		Image:       in.Image,
	}
	if cat.Slug == "" {
		return nil, apperrors.Validation(map[string]string{"slug": "slug cannot be empty"})
	}

	var uploaded string
	if image != nil {
		url, err := uploadFile(ctx, s.images, storage.FolderCategories, image)
		if err != nil {
			return nil, apperrors.Internal("Failed to upload image", err)
		}
		uploaded, cat.Image = url, url
	}

	if err := s.categories.Create(ctx, cat); err != nil {
		if uploaded != "" {
			discardImages(ctx, s.images, []string{uploaded}, s.logger)
		}
		return nil, duplicate("A category with this slug already exists", fmt.Errorf("create category: %w", err))
	}
	return cat, nil
}

// UpdateCategory writes the form fields. A new image replaces the old one,
// which is then deleted from storage.
func (s *CategoryService) UpdateCategory(ctx context.Context, id uuid.UUID, in models.CategoryInput, image *multipart.FileHeader) (*models.Category, error) {
	cat, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("Category not found", err)
	}
	oldImage := cat.Image

	cat.Name = in.Name
	cat.Slug = slugOr(in.Slug, in.Name)
	cat.Description = in.Description
	cat.Image = in.Image

	var uploaded string
	if image != nil {
		url, err := uploadFile(ctx, s.images, storage.FolderCategories, image)
		if err != nil {
			return nil, apperrors.Internal("Failed to upload image", err)
		}
		uploaded, cat.Image = url, url
	}

	if err := s.categories.Update(ctx, cat); err != nil {
		if uploaded != "" {
			discardImages(ctx, s.images, []string{uploaded}, s.logger)
		}
		return nil, duplicate("A category with this slug already exists",
			notFound("Category not found", fmt.Errorf("update category: %w", err)))
	}
	if oldImage != "" && oldImage != cat.Image {
		discardImages(ctx, s.images, []string{oldImage}, s.logger)
	}
	return s.GetCategory(ctx, id)
}

// DeleteCategory refuses while products still reference the category.
func (s *CategoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	cat, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return notFound("Category not found", err)
	}
	n, err := s.products.CountByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("count products in category: %w", err)
	}
	if n > 0 {
		return apperrors.Conflict(fmt.Sprintf("Category has %d products; move or delete them first", n), nil)
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return notFound("Category not found", fmt.Errorf("delete category: %w", err))
	}
	if cat.Image != "" {
		discardImages(ctx, s.images, []string{cat.Image}, s.logger)
	}
	return nil
}

func slugOr(slug, name string) string {
	if slug != "" {
		return Slugify(slug)
	}
	return Slugify(name)
}

func duplicate(msg string, err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperrors.Conflict(msg, err)
	}
	return err
}
