package services

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/inkfinity/backend/common/errors"
	awspkg "github.com/inkfinity/backend/pkg/aws"
	"github.com/inkfinity/backend/storage"
)

const presignExpiry = 15 * time.Minute

// Presigner is implemented by stores that can hand out direct-upload URLs.
type Presigner interface {
	Presign(ctx context.Context, folder, filename, contentType string, expiry time.Duration) (*awspkg.PresignedUpload, string, error)
}

// PresignResult is a direct upload plus the URL the object will have.
type PresignResult struct {
	Upload    *awspkg.PresignedUpload `json:"upload"`
	PublicURL string                  `json:"public_url"`
}

type UploadService struct {
	images storage.ImageStore
}

func NewUploadService(images storage.ImageStore) *UploadService {
	return &UploadService{images: images}
}

func (s *UploadService) Presign(ctx context.Context, folder, filename, contentType string) (*PresignResult, error) {
	switch folder {
	case storage.FolderProducts, storage.FolderCategories, storage.FolderBlog, storage.FolderBranding:
	default:
		return nil, apperrors.BadRequest("Unknown upload folder", nil)
	}
	p, ok := s.images.(Presigner)
	if !ok {
		return nil, apperrors.BadRequest("Direct uploads are not available", storage.ErrPresignUnsupported)
	}
	up, url, err := p.Presign(ctx, folder, filename, contentType, presignExpiry)
	if errors.Is(err, storage.ErrPresignUnsupported) {
		return nil, apperrors.BadRequest("Direct uploads are not available", err)
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to presign upload", err)
	}
	return &PresignResult{Upload: up, PublicURL: url}, nil
}
