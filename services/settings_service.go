package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	apperrors "github.com/inkfinity/backend/common/errors"
	"github.com/inkfinity/backend/models"
	"github.com/inkfinity/backend/repository"
	"github.com/inkfinity/backend/storage"
	"go.uber.org/zap"
)

// Branding images that can be replaced or removed on their own.
const (
	ImageLogo     = "logo"
	ImageLogoDark = "logo-dark"
	ImageFavicon  = "favicon"
)

type SettingsService struct {
	repo   repository.SettingsRepo
	images storage.ImageStore
	logger *zap.Logger
}

func NewSettingsService(repo repository.SettingsRepo, images storage.ImageStore, logger *zap.Logger) *SettingsService {
	return &SettingsService{repo: repo, images: images, logger: logger}
}

// Get returns the stored settings merged over the defaults. Before the first
// save it returns the defaults.
func (s *SettingsService) Get(ctx context.Context) (*models.CompanySettings, error) {
	stored, err := s.repo.Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		d := models.DefaultCompanySettings()
		return &d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	merged := stored.MergeOverDefaults()
	return &merged, nil
}

// Update writes the form fields. Image fields keep their stored values.
func (s *SettingsService) Update(ctx context.Context, in models.SettingsInput) (*models.CompanySettings, error) {
	current, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	in.Apply(current)
	if err := s.repo.Upsert(ctx, current); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	return s.Get(ctx)
}

// SetImage uploads file as the named branding image and deletes the one it
// replaces.
func (s *SettingsService) SetImage(ctx context.Context, kind string, file *multipart.FileHeader) (*models.CompanySettings, error) {
	current, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	field, err := imageField(current, kind)
	if err != nil {
		return nil, err
	}

	url, err := uploadFile(ctx, s.images, storage.FolderBranding, file)
	if err != nil {
		return nil, apperrors.Internal("Failed to upload image", err)
	}
	old := *field
	*field = url
	if err := s.repo.Upsert(ctx, current); err != nil {
		discardImages(ctx, s.images, []string{url}, s.logger)
		return nil, fmt.Errorf("save settings: %w", err)
	}
	if old != "" && old != url {
		discardImages(ctx, s.images, []string{old}, s.logger)
	}
	return s.Get(ctx)
}

// RemoveImage clears the named branding image and deletes the object.
func (s *SettingsService) RemoveImage(ctx context.Context, kind string) (*models.CompanySettings, error) {
	current, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	field, err := imageField(current, kind)
	if err != nil {
		return nil, err
	}
	old := *field
	if old == "" {
		return s.Get(ctx)
	}
	*field = ""
	if err := s.repo.Upsert(ctx, current); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	discardImages(ctx, s.images, []string{old}, s.logger)
	return s.Get(ctx)
}

// current is the stored row, or the defaults when nothing is stored yet.
func (s *SettingsService) current(ctx context.Context) (*models.CompanySettings, error) {
	stored, err := s.repo.Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		d := models.DefaultCompanySettings()
		return &d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	stored.ID = models.SettingsRowID
	return stored, nil
}

func imageField(s *models.CompanySettings, kind string) (*string, error) {
	switch kind {
	case ImageLogo:
		return &s.Logo, nil
	case ImageLogoDark:
		return &s.LogoDark, nil
	case ImageFavicon:
		return &s.Favicon, nil
	default:
		return nil, apperrors.BadRequest(fmt.Sprintf("Unknown image %q", kind), nil)
	}
}
