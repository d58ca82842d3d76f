package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inkfinity/backend/common/logger"
	"github.com/inkfinity/backend/trending"
	"go.uber.org/zap"
)

type replaceTrendingRequest struct {
	ProductIDs []uuid.UUID `json:"product_ids" binding:"required"`
}

// TrendingController drives the shared admin curation session.
type TrendingController struct {
	service TrendingServiceAPI
	logger  *zap.Logger
}

// NewTrendingController wires the handlers. Cache invalidation happens in the
// service's save hook.
func NewTrendingController(service TrendingServiceAPI, log *zap.Logger) *TrendingController {
	return &TrendingController{service: service, logger: log}
}

// Get handles GET /admin/trending?q=&refresh=true.
func (tc *TrendingController) Get(c *gin.Context) {
	refresh, _ := strconv.ParseBool(c.Query("refresh"))
	snap, err := tc.service.Snapshot(c.Request.Context(), c.Query("q"), refresh)
	if err != nil {
		handleServiceError(c, tc.logger, "failed to load trending session", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Replace handles PUT /admin/trending.
func (tc *TrendingController) Replace(c *gin.Context) {
	var req replaceTrendingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, tc.logger, "invalid trending order", bindError(err))
		return
	}
	snap, err := tc.service.Replace(c.Request.Context(), req.ProductIDs)
	tc.respondSave(c, snap, err)
}

func (tc *TrendingController) Toggle(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		handleServiceError(c, tc.logger, "invalid product id", err)
		return
	}
	snap, err := tc.service.Toggle(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, tc.logger, "failed to toggle trending product", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (tc *TrendingController) MoveUp(c *gin.Context) {
	tc.move(c, tc.service.MoveUp)
}

func (tc *TrendingController) MoveDown(c *gin.Context) {
	tc.move(c, tc.service.MoveDown)
}

func (tc *TrendingController) move(c *gin.Context, fn func(ctx context.Context, index int) (trending.Snapshot, error)) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
		return
	}
	snap, err := fn(c.Request.Context(), index)
	if err != nil {
		handleServiceError(c, tc.logger, "failed to reorder trending products", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Save handles POST /admin/trending/save.
func (tc *TrendingController) Save(c *gin.Context) {
	snap, err := tc.service.Save(c.Request.Context())
	tc.respondSave(c, snap, err)
}

// respondSave always returns the re-fetched session. A failed write reports
// the phase it stopped in and how many positions were written.
func (tc *TrendingController) respondSave(c *gin.Context, snap trending.Snapshot, err error) {
	var se *trending.SaveError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, snap)
	case errors.As(err, &se):
		logger.For(c, tc.logger).Error("trending save failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to save trending products",
			"phase":   se.Phase,
			"written": se.Written(),
			"session": snap,
		})
	default:
		handleServiceError(c, tc.logger, "failed to save trending products", err)
	}
}
