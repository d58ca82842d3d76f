package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/inkfinity/backend/common/errors"
	"github.com/inkfinity/backend/models"
	"go.uber.org/zap"
)

type SettingsController struct {
	service SettingsServiceAPI
	cache   *CacheManager
	logger  *zap.Logger
}

func NewSettingsController(service SettingsServiceAPI, cache *CacheManager, logger *zap.Logger) *SettingsController {
	RegisterValidators()
	return &SettingsController{service: service, cache: cache, logger: logger}
}

// Get handles GET /settings and GET /admin/settings.
func (sc *SettingsController) Get(c *gin.Context) {
	if cached, ok := sc.cache.GetSettings(c.Request.Context()); ok {
		c.JSON(http.StatusOK, gin.H{"settings": cached})
		return
	}
	s, err := sc.service.Get(c.Request.Context())
	if err != nil {
		handleServiceError(c, sc.logger, "failed to load settings", err)
		return
	}
	sc.cache.SetSettingsAsync(s)
	c.JSON(http.StatusOK, gin.H{"settings": s})
}

// Update handles PUT /admin/settings.
func (sc *SettingsController) Update(c *gin.Context) {
	var in models.SettingsInput
	if err := c.ShouldBindJSON(&in); err != nil {
		handleServiceError(c, sc.logger, "invalid settings", bindError(err))
		return
	}
	s, err := sc.service.Update(c.Request.Context(), in)
	if err != nil {
		handleServiceError(c, sc.logger, "failed to save settings", err)
		return
	}
	sc.cache.InvalidateSettings(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"settings": s})
}

// SetImage handles POST /admin/settings/:image with the file under "image".
func (sc *SettingsController) SetImage(c *gin.Context) {
	file := formFile(c, "image")
	if file == nil {
		handleServiceError(c, sc.logger, "missing image", apperrors.BadRequest("An image file is required", nil))
		return
	}
	if err := validateImage(file); err != nil {
		handleServiceError(c, sc.logger, "invalid branding image", err)
		return
	}
	s, err := sc.service.SetImage(c.Request.Context(), c.Param("image"), file)
	if err != nil {
		handleServiceError(c, sc.logger, "failed to replace branding image", err)
		return
	}
	sc.cache.InvalidateSettings(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"settings": s})
}

// RemoveImage handles DELETE /admin/settings/:image.
func (sc *SettingsController) RemoveImage(c *gin.Context) {
	s, err := sc.service.RemoveImage(c.Request.Context(), c.Param("image"))
	if err != nil {
		handleServiceError(c, sc.logger, "failed to remove branding image", err)
		return
	}
	sc.cache.InvalidateSettings(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"settings": s})
}
