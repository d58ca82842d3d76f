package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/inkfinity/backend/common/errors"
	"github.com/inkfinity/backend/events"
	"github.com/inkfinity/backend/models"
	"github.com/inkfinity/backend/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newProductService(pr *memProducts, cr *memCategories, images *memImages, pub events.Publisher) *services.ProductService {
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	return services.NewProductService(pr, cr, images, pub, zap.NewNop())
}

func TestProductService_CreateAppendsUploads(t *testing.T) {
	cat := models.Category{ID: uuid.New(), Name: "Shirts", Slug: "shirts"}
	pr, images := newMemProducts(), newMemImages()
	svc := newProductService(pr, newMemCategories(cat), images, nil)

	p, err := svc.CreateProduct(context.Background(), models.ProductInput{
		Name:       "Polo",
		CategoryID: &cat.ID,
		Images:     []string{"https://cdn.test/products/existing.jpg"},
	}, fileHeaders(t, "front.jpg", "a", "back.jpg", "b"))
	require.NoError(t, err)

	assert.Equal(t, models.StringList{
		"https://cdn.test/products/existing.jpg",
		"https://cdn.test/products/front.jpg",
		"https://cdn.test/products/back.jpg",
	}, p.Images)
	assert.Len(t, images.stored, 2)
}

func TestProductService_CreateRejectsUnknownCategory(t *testing.T) {
	missing := uuid.New()
	images := newMemImages()
	svc := newProductService(newMemProducts(), newMemCategories(), images, nil)

	_, err := svc.CreateProduct(context.Background(), models.ProductInput{Name: "Polo", CategoryID: &missing}, fileHeaders(t, "a.jpg", "a"))
	assert.True(t, errors.Is(err, apperrors.ErrBadRequest))
	assert.Empty(t, images.stored, "nothing is uploaded for a rejected product")
}

func TestProductService_CreateDiscardsUploadsWhenInsertFails(t *testing.T) {
	pr, images := newMemProducts(), newMemImages()
	pr.failSave = errors.New("db down")
	svc := newProductService(pr, newMemCategories(), images, nil)

	_, err := svc.CreateProduct(context.Background(), models.ProductInput{Name: "Polo"}, fileHeaders(t, "a.jpg", "a"))
	require.Error(t, err)
	assert.Empty(t, images.stored)
	assert.Equal(t, []string{"https://cdn.test/products/a.jpg"}, images.deletedRefs())
}

func TestProductService_CreateRollsBackPartialUpload(t *testing.T) {
	images := newMemImages()
	images.failAfter = 1
	svc := newProductService(newMemProducts(), newMemCategories(), images, nil)

	_, err := svc.CreateProduct(context.Background(), models.ProductInput{Name: "Polo"}, fileHeaders(t, "a.jpg", "a", "b.jpg", "b"))
	assert.True(t, errors.Is(err, apperrors.ErrInternalServer))
	assert.Empty(t, images.stored)
}

func TestProductService_UpdateRemovesRequestedImages(t *testing.T) {
	existing := models.Product{
		ID:     uuid.New(),
		Name:   "Hoodie",
		Images: models.StringList{"https://cdn.test/products/old1.jpg", "https://cdn.test/products/old2.jpg"},
	}
	images := newMemImages()
	svc := newProductService(newMemProducts(existing), newMemCategories(), images, nil)

	p, err := svc.UpdateProduct(context.Background(), existing.ID,
		models.ProductInput{Name: "Zip Hoodie"},
		fileHeaders(t, "new.jpg", "n"),
		[]string{"https://cdn.test/products/old1.jpg"})
	require.NoError(t, err)

	assert.Equal(t, "Zip Hoodie", p.Name)
	assert.Equal(t, models.StringList{"https://cdn.test/products/old2.jpg", "https://cdn.test/products/new.jpg"}, p.Images)
	assert.Equal(t, []string{"https://cdn.test/products/old1.jpg"}, images.deletedRefs())
}

func TestProductService_UpdateMissingIsNotFound(t *testing.T) {
	svc := newProductService(newMemProducts(), newMemCategories(), newMemImages(), nil)
	_, err := svc.UpdateProduct(context.Background(), uuid.New(), models.ProductInput{Name: "x"}, nil, nil)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestProductService_DeleteRemovesImagesAndPublishes(t *testing.T) {
	existing := models.Product{ID: uuid.New(), Name: "Cap", Images: models.StringList{"https://cdn.test/products/cap.jpg"}, IsTrending: true}
	pr, images, pub := newMemProducts(existing), newMemImages(), newRecordingPublisher()
	svc := newProductService(pr, newMemCategories(), images, pub)

	require.NoError(t, svc.DeleteProduct(context.Background(), existing.ID))

	_, err := pr.FindByID(context.Background(), existing.ID)
	assert.Error(t, err)
	assert.Equal(t, []string{"https://cdn.test/products/cap.jpg"}, images.deletedRefs())

	select {
	case e := <-pub.events:
		assert.Equal(t, models.EventProductDeleted, e.EventType)
		assert.Equal(t, existing.ID.String(), e.Data["id"])
		assert.Equal(t, true, e.Data["is_trending"])
	case <-time.After(time.Second):
		t.Fatal("product.deleted was not published")
	}
}

func TestProductService_ListClampsPage(t *testing.T) {
	pr := newMemProducts(
		models.Product{Name: "A"},
		models.Product{Name: "B"},
		models.Product{Name: "C"},
	)
	svc := newProductService(pr, newMemCategories(), newMemImages(), nil)

	list, meta, err := svc.ListProducts(context.Background(), models.ProductFilter{Page: 9, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, services.PageMeta{Page: 2, PerPage: 2, Total: 3, TotalPages: 2}, meta)
	require.Len(t, list, 1)
	assert.Equal(t, "C", list[0].Name)
}

func TestProductService_ListEmptyIsNotNil(t *testing.T) {
	svc := newProductService(newMemProducts(), newMemCategories(), newMemImages(), nil)
	list, meta, err := svc.ListProducts(context.Background(), models.ProductFilter{})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Equal(t, 1, meta.TotalPages)
	assert.Equal(t, services.DefaultPerPage, meta.PerPage)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Custom T-Shirts":     "custom-t-shirts",
		"  Corporate   Wear ": "corporate-wear",
		"Hoodies\tand\nCaps":  "hoodies-and-caps",
	}
	for in, want := range tests {
		assert.Equal(t, want, services.Slugify(in), in)
	}
}

func TestNewPageMeta(t *testing.T) {
	assert.Equal(t, services.PageMeta{Page: 1, PerPage: 12, Total: 0, TotalPages: 1}, services.NewPageMeta(0, 12, 0))
	assert.Equal(t, services.PageMeta{Page: 3, PerPage: 10, Total: 25, TotalPages: 3}, services.NewPageMeta(7, 10, 25))
	assert.Equal(t, 1, services.NewPageMeta(-2, 10, 25).Page)
}
