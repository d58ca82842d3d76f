package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkfinity/backend/models"
	"go.uber.org/zap"
)

type AuthController struct {
	service AuthServiceAPI
	logger  *zap.Logger
}

func NewAuthController(service AuthServiceAPI, logger *zap.Logger) *AuthController {
	RegisterValidators()
	return &AuthController{service: service, logger: logger}
}

// Login handles POST /auth/login.
func (ac *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, ac.logger, "invalid login request", bindError(err))
		return
	}
	resp, err := ac.service.Login(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, ac.logger, "login failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
