package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/inkfinity/backend/common/auth"
	apperrors "github.com/inkfinity/backend/common/errors"
	"github.com/inkfinity/backend/models"
	"github.com/inkfinity/backend/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type AuthService struct {
	admins repository.AdminRepo
	tokens *auth.TokenManager
	logger *zap.Logger
}

func NewAuthService(admins repository.AdminRepo, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	return &AuthService{admins: admins, tokens: tokens, logger: logger}
}

// Login checks the credentials and issues an access token. Unknown emails
// and wrong passwords produce the same 401.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.admins.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}
	if err != nil {
		return nil, fmt.Errorf("find admin: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Info("failed login", zap.String("email", user.Email))
		return nil, apperrors.Unauthorized("Invalid email or password")
	}

	token, exp, err := s.tokens.Generate(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue token", err)
	}
	return &models.LoginResponse{Token: token, ExpiresAt: exp, Email: user.Email, Role: user.Role}, nil
}

// CreateAdmin stores a new admin account with a bcrypt hash.
func (s *AuthService) CreateAdmin(ctx context.Context, email, password string) (*models.AdminUser, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.AdminUser{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := s.admins.Create(ctx, user); err != nil {
		return nil, duplicate("An admin with this email already exists", fmt.Errorf("create admin: %w", err))
	}
	return user, nil
}

func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", apperrors.Validation(map[string]string{
			"password": fmt.Sprintf("must be at least %d characters", minPasswordLength),
		})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
