package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/inkfinity/backend/common/errors"
	"github.com/inkfinity/backend/common/logger"
	"github.com/inkfinity/backend/repository"
	"github.com/inkfinity/backend/trending"
	"go.uber.org/zap"
)

// toAppError maps service and repository errors to an HTTP error.
func toAppError(err error) *apperrors.Error {
	var appErr *apperrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("Resource not found", err)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.Conflict("Resource already exists", err)
	case errors.Is(err, trending.ErrUnknownProduct), errors.Is(err, trending.ErrDuplicateProduct):
		return apperrors.BadRequest(err.Error(), err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.New(http.StatusGatewayTimeout, "Request timed out", err)
	default:
		return apperrors.Internal("Internal server error", err)
	}
}

// handleServiceError writes the JSON error response. Server-side failures
// are logged with the request ID.
func handleServiceError(c *gin.Context, log *zap.Logger, msg string, err error) {
	appErr := toAppError(err)
	if appErr.Code >= http.StatusInternalServerError {
		logger.For(c, log).Error(msg, zap.Error(err))
	}
	body := gin.H{"error": appErr.Message}
	if len(appErr.Fields) > 0 {
		body["fields"] = appErr.Fields
	}
	c.JSON(appErr.Code, body)
}
