package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DashboardController struct {
	dashboard DashboardServiceAPI
	uploads   UploadServiceAPI
	logger    *zap.Logger
}

func NewDashboardController(dashboard DashboardServiceAPI, uploads UploadServiceAPI, logger *zap.Logger) *DashboardController {
	return &DashboardController{dashboard: dashboard, uploads: uploads, logger: logger}
}

// Summary handles GET /admin/dashboard.
func (dc *DashboardController) Summary(c *gin.Context) {
	d, err := dc.dashboard.Summary(c.Request.Context())
	if err != nil {
		handleServiceError(c, dc.logger, "failed to load dashboard", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Presign handles GET /admin/uploads/presign?folder=&filename=&contentType=.
func (dc *DashboardController) Presign(c *gin.Context) {
	filename := strings.TrimSpace(c.Query("filename"))
	contentType := strings.TrimSpace(c.Query("contentType"))
	if filename == "" || !allowedImageTypes[strings.ToLower(contentType)] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename and an image contentType are required"})
		return
	}
	res, err := dc.uploads.Presign(c.Request.Context(), c.DefaultQuery("folder", "products"), filename, contentType)
	if err != nil {
		handleServiceError(c, dc.logger, "failed to presign upload", err)
		return
	}
	c.JSON(http.StatusOK, res)
}
