package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/inkfinity/backend/models"
	"github.com/inkfinity/backend/services"
	"go.uber.org/zap"
)

// productForm is the multipart (or JSON) body of product writes. Files go
// under "images"; text "images" values are already-stored URLs to keep.
// Images is read by hand from multipart bodies since the binder cannot map
// the file parts sharing its key.
type productForm struct {
	Name           string   `json:"name" form:"name" binding:"required,max=255"`
	Description    string   `json:"description" form:"description"`
	CategoryID     string   `json:"category_id" form:"category_id"`
	Images         []string `json:"images" form:"-"`
	ImagesToRemove []string `json:"imagesToRemove" form:"imagesToRemove"`
}

type productListResponse struct {
	Products []models.Product `json:"products"`
	Meta     services.PageMeta `json:"meta"`
}

type ProductController struct {
	service ProductServiceAPI
	cache   *CacheManager
	logger  *zap.Logger
}

func NewProductController(service ProductServiceAPI, cache *CacheManager, logger *zap.Logger) *ProductController {
	RegisterValidators()
	return &ProductController{service: service, cache: cache, logger: logger}
}

// ListProducts handles GET /products.
func (pc *ProductController) ListProducts(c *gin.Context) {
	page, perPage := parsePagination(c)
	categoryID, err := parseOptionalUUID(c.Query("categoryId"))
	if err != nil {
		handleServiceError(c, pc.logger, "invalid category filter", err)
		return
	}
	filter := models.ProductFilter{
		CategoryID: categoryID,
		Search:     strings.TrimSpace(c.Query("search")),
		Page:       page,
		PerPage:    perPage,
	}

	key := productListKey(filter)
	var cached productListResponse
	version, hit := pc.cache.GetCatalog(c.Request.Context(), key, &cached)
	if hit {
		c.JSON(http.StatusOK, cached)
		return
	}

	products, meta, err := pc.service.ListProducts(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, pc.logger, "failed to list products", err)
		return
	}
	resp := productListResponse{Products: products, Meta: meta}
	pc.cache.SetCatalogAsync(version, key, resp)
	c.JSON(http.StatusOK, resp)
}

// ListTrending handles GET /products/trending.
func (pc *ProductController) ListTrending(c *gin.Context) {
	var cached []models.Product
	version, hit := pc.cache.GetCatalog(c.Request.Context(), trendingListKey, &cached)
	if hit {
		c.JSON(http.StatusOK, gin.H{"products": cached})
		return
	}

	products, err := pc.service.ListTrending(c.Request.Context())
	if err != nil {
		handleServiceError(c, pc.logger, "failed to list trending products", err)
		return
	}
	pc.cache.SetCatalogAsync(version, trendingListKey, products)
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetProduct handles GET /products/:id.
func (pc *ProductController) GetProduct(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		handleServiceError(c, pc.logger, "invalid product id", err)
		return
	}

	var cached models.Product
	version, hit := pc.cache.GetCatalog(c.Request.Context(), productKey(id), &cached)
	if hit {
		c.JSON(http.StatusOK, gin.H{"product": cached})
		return
	}

	product, err := pc.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, pc.logger, "failed to get product", err)
		return
	}
	pc.cache.SetCatalogAsync(version, productKey(id), product)
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// CreateProduct handles POST /admin/products.
func (pc *ProductController) CreateProduct(c *gin.Context) {
	in, _, err := pc.bindProduct(c)
	if err != nil {
		handleServiceError(c, pc.logger, "invalid product", err)
		return
	}
	files := formFiles(c, "images")
	if err := validateImages(files); err != nil {
		handleServiceError(c, pc.logger, "invalid product images", err)
		return
	}

	product, err := pc.service.CreateProduct(c.Request.Context(), in, files)
	if err != nil {
		handleServiceError(c, pc.logger, "failed to create product", err)
		return
	}
	pc.cache.InvalidateProducts(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// UpdateProduct handles PUT /admin/products/:id.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		handleServiceError(c, pc.logger, "invalid product id", err)
		return
	}
	in, form, err := pc.bindProduct(c)
	if err != nil {
		handleServiceError(c, pc.logger, "invalid product", err)
		return
	}
	files := formFiles(c, "images")
	if err := validateImages(files); err != nil {
		handleServiceError(c, pc.logger, "invalid product images", err)
		return
	}

	product, err := pc.service.UpdateProduct(c.Request.Context(), id, in, files, stringList(form.ImagesToRemove))
	if err != nil {
		handleServiceError(c, pc.logger, "failed to update product", err)
		return
	}
	pc.cache.InvalidateProducts(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// DeleteProduct handles DELETE /admin/products/:id.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		handleServiceError(c, pc.logger, "invalid product id", err)
		return
	}
	if err := pc.service.DeleteProduct(c.Request.Context(), id); err != nil {
		handleServiceError(c, pc.logger, "failed to delete product", err)
		return
	}
	pc.cache.InvalidateProducts(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

func (pc *ProductController) bindProduct(c *gin.Context) (models.ProductInput, productForm, error) {
	var form productForm
	if err := c.ShouldBind(&form); err != nil {
		return models.ProductInput{}, form, bindError(err)
	}
	if len(form.Images) == 0 {
		form.Images = c.PostFormArray("images")
	}
	categoryID, err := parseOptionalUUID(form.CategoryID)
	if err != nil {
		return models.ProductInput{}, form, err
	}
	return models.ProductInput{
		Name:        strings.TrimSpace(form.Name),
		Description: form.Description,
		CategoryID:  categoryID,
		Images:      stringList(form.Images),
	}, form, nil
}
