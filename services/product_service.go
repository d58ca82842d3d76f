package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/google/uuid"
	apperrors "github.com/inkfinity/backend/common/errors"
	"github.com/inkfinity/backend/events"
	"github.com/inkfinity/backend/models"
	"github.com/inkfinity/backend/repository"
	"github.com/inkfinity/backend/storage"
	"go.uber.org/zap"
)

type ProductService struct {
	products   repository.ProductRepo
	categories repository.CategoryRepo
	images     storage.ImageStore
	publisher  events.Publisher
	logger     *zap.Logger
}

func NewProductService(pr repository.ProductRepo, cr repository.CategoryRepo, images storage.ImageStore, publisher events.Publisher, logger *zap.Logger) *ProductService {
	return &ProductService{
		products:   pr,
		categories: cr,
		images:     images,
		publisher:  publisher,
		logger:     logger,
	}
}

func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("Product not found", err)
	}
	return p, nil
}

// ListProducts returns one page, newest first. A page past the end is
// clamped to the last page.
func (s *ProductService) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, PageMeta, error) {
	filter.PerPage = normalizePerPage(filter.PerPage)
	products, total, err := s.products.Find(ctx, filter)
	if err != nil {
		return nil, PageMeta{}, fmt.Errorf("list products: %w", err)
	}
	meta := NewPageMeta(filter.Page, filter.PerPage, total)
	if total > 0 && meta.Page != filter.Page && len(products) == 0 {
		filter.Page = meta.Page
		if products, _, err = s.products.Find(ctx, filter); err != nil {
			return nil, PageMeta{}, fmt.Errorf("list products: %w", err)
		}
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, meta, nil
}

func (s *ProductService) ListTrending(ctx context.Context) ([]models.Product, error) {
	products, err := s.products.ListTrending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list trending products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// CreateProduct uploads files first, then inserts the row with the stored
// image URLs appended to in.Images.
func (s *ProductService) CreateProduct(ctx context.Context, in models.ProductInput, files []*multipart.FileHeader) (*models.Product, error) {
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	uploaded, err := uploadFiles(ctx, s.images, storage.FolderProducts, files)
	if err != nil {
		return nil, apperrors.Internal("Failed to upload images", err)
	}

	product := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		Images:      append(models.StringList(append([]string{}, in.Images...)), uploaded...),
	}
	if err := s.products.Create(ctx, product); err != nil {
		discardImages(ctx, s.images, uploaded, s.logger)
		return nil, fmt.Errorf("create product: %w", err)
	}
	return s.GetProduct(ctx, product.ID)
}

// UpdateProduct drops imagesToRemove from the stored list, appends new
// uploads and writes the editable fields. Removed images are deleted from
// storage only after the row is saved.
func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, in models.ProductInput, files []*multipart.FileHeader, imagesToRemove []string) (*models.Product, error) {
	existing, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("Product not found", err)
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	remove := make(map[string]bool, len(imagesToRemove))
	for _, ref := range imagesToRemove {
		remove[ref] = true
	}
	kept := make(models.StringList, 0, len(existing.Images))
	var removed []string
	for _, ref := range existing.Images {
		if remove[ref] {
			removed = append(removed, ref)
			continue
		}
		kept = append(kept, ref)
	}

	uploaded, err := uploadFiles(ctx, s.images, storage.FolderProducts, files)
	if err != nil {
		return nil, apperrors.Internal("Failed to upload images", err)
	}

	existing.Name = in.Name
	existing.Description = in.Description
	existing.CategoryID = in.CategoryID
	existing.Images = append(kept, uploaded...)
	if err := s.products.Update(ctx, existing); err != nil {
		discardImages(ctx, s.images, uploaded, s.logger)
		return nil, notFound("Product not found", fmt.Errorf("update product: %w", err))
	}

	discardImages(ctx, s.images, removed, s.logger)
	return s.GetProduct(ctx, id)
}

// DeleteProduct removes the row and then its images.
func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	existing, err := s.products.FindByID(ctx, id)
	if err != nil {
		return notFound("Product not found", err)
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return notFound("Product not found", fmt.Errorf("delete product: %w", err))
	}
	discardImages(ctx, s.images, existing.Images, s.logger)
	events.PublishAsync(s.publisher, events.NewEvent(models.EventProductDeleted, map[string]interface{}{
		"id":          id.String(),
		"name":        existing.Name,
		"is_trending": existing.IsTrending,
	}), s.logger)
	return nil
}

func (s *ProductService) checkCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.categories.FindByID(ctx, *id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.BadRequest("Category does not exist", err)
		}
		return fmt.Errorf("check category: %w", err)
	}
	return nil
}

// notFound turns repository.ErrNotFound into a 404 and passes anything else
// through.
func notFound(msg string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(msg, err)
	}
	return err
}
