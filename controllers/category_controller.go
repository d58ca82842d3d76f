package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkfinity/backend/models"
	"go.uber.org/zap"
)

type CategoryController struct {
	service CategoryServiceAPI
	cache   *CacheManager
	logger  *zap.Logger
}

func NewCategoryController(service CategoryServiceAPI, cache *CacheManager, logger *zap.Logger) *CategoryController {
	RegisterValidators()
	return &CategoryController{service: service, cache: cache, logger: logger}
}

// ListCategories handles GET /categories, ordered by name.
func (cc *CategoryController) ListCategories(c *gin.Context) {
	var cached []models.Category
	version, hit := cc.cache.GetCatalog(c.Request.Context(), categoryListKey, &cached)
	if hit {
		c.JSON(http.StatusOK, gin.H{"categories": cached})
		return
	}
	cats, err := cc.service.ListCategories(c.Request.Context())
	if err != nil {
		handleServiceError(c, cc.logger, "failed to list categories", err)
		return
	}
	cc.cache.SetCatalogAsync(version, categoryListKey, cats)
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

// GetCategoryBySlug handles GET /categories/:slug.
func (cc *CategoryController) GetCategoryBySlug(c *gin.Context) {
	cat, err := cc.service.GetCategoryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		handleServiceError(c, cc.logger, "failed to get category", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": cat})
}

// GetCategory handles GET /admin/categories/:id.
func (cc *CategoryController) GetCategory(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		handleServiceError(c, cc.logger, "invalid category id", err)
		return
	}
	cat, err := cc.service.GetCategory(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, cc.logger, "failed to get category", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": cat})
}

// CreateCategory handles POST /admin/categories. An optional file goes under
// "image".
func (cc *CategoryController) CreateCategory(c *gin.Context) {
	var in models.CategoryInput
	if err := c.ShouldBind(&in); err != nil {
		handleServiceError(c, cc.logger, "invalid category", bindError(err))
		return
	}
	if in.Image == "" {
		in.Image = c.PostForm("image")
	}
	image := formFile(c, "image")
	if err := validateImage(image); err != nil {
		handleServiceError(c, cc.logger, "invalid category image", err)
		return
	}

	cat, err := cc.service.CreateCategory(c.Request.Context(), in, image)
	if err != nil {
		handleServiceError(c, cc.logger, "failed to create category", err)
		return
	}
	cc.cache.InvalidateProducts(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{"category": cat})
}

// UpdateCategory handles PUT /admin/categories/:id.
func (cc *CategoryController) UpdateCategory(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		handleServiceError(c, cc.logger, "invalid category id", err)
		return
	}
	var in models.CategoryInput
	if err := c.ShouldBind(&in); err != nil {
		handleServiceError(c, cc.logger, "invalid category", bindError(err))
		return
	}
	if in.Image == "" {
		in.Image = c.PostForm("image")
	}
	image := formFile(c, "image")
	if err := validateImage(image); err != nil {
		handleServiceError(c, cc.logger, "invalid category image", err)
		return
	}

	cat, err := cc.service.UpdateCategory(c.Request.Context(), id, in, image)
	if err != nil {
		handleServiceError(c, cc.logger, "failed to update category", err)
		return
	}
	cc.cache.InvalidateProducts(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"category": cat})
}

// DeleteCategory handles DELETE /admin/categories/:id. Categories that
// still have products answer 409.
func (cc *CategoryController) DeleteCategory(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		handleServiceError(c, cc.logger, "invalid category id", err)
		return
	}
	if err := cc.service.DeleteCategory(c.Request.Context(), id); err != nil {
		handleServiceError(c, cc.logger, "failed to delete category", err)
		return
	}
	cc.cache.InvalidateProducts(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}
