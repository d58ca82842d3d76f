package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awspkg "github.com/inkfinity/backend/pkg/aws"
)

type s3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type objectDeleter interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps images in one bucket and serves them from the CDN domain
// when one is configured.
type S3Store struct {
	client   *s3.Client
	uploader s3Uploader
	deleter  objectDeleter
	bucket   string
	baseURL  string
	now      func() time.Time
}

type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	CDNDomain string
}

func NewS3Store(client *s3.Client, opts S3Options) *S3Store {
	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		deleter:  client,
		bucket:   opts.Bucket,
		baseURL:  baseURL(opts),
		now:      time.Now,
	}
}

func baseURL(opts S3Options) string {
	switch {
	case opts.CDNDomain != "":
		return "https://" + strings.TrimSuffix(strings.TrimPrefix(opts.CDNDomain, "https://"), "/")
	case opts.Endpoint != "":
		return strings.TrimSuffix(opts.Endpoint, "/") + "/" + opts.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
	}
}

func (s *S3Store) Upload(ctx context.Context, folder, filename string, body io.Reader, contentType string) (*Object, error) {
	key := ObjectKey(folder, filename, s.now())
	input := &s3.PutObjectInput{
		Bucket:       sdkaws.String(s.bucket),
		Key:          sdkaws.String(key),
		Body:         body,
		CacheControl: sdkaws.String("max-age=3600"),
	}
	if contentType != "" {
		input.ContentType = sdkaws.String(contentType)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}
	return &Object{Key: key, URL: s.PublicURL(key)}, nil
}

func (s *S3Store) Delete(ctx context.Context, ref string) error {
	key, ok := s.keyFor(ref)
	if !ok {
		return nil
	}
	_, err := s.deleter.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: sdkaws.String(s.bucket),
		Key:    sdkaws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// PublicURL returns ref unchanged when it is already a URL.
func (s *S3Store) PublicURL(ref string) string {
	if ref == "" || isURL(ref) {
		return ref
	}
	return s.baseURL + "/" + strings.TrimPrefix(ref, "/")
}

func (s *S3Store) keyFor(ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	if !isURL(ref) {
		return ref, true
	}
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(ref, prefix) {
		return "", false
	}
	return strings.TrimPrefix(ref, prefix), true
}

// Presign returns a presigned PUT for a new object in folder, plus the URL
// the object will be served from.
func (s *S3Store) Presign(ctx context.Context, folder, filename, contentType string, expiry time.Duration) (*awspkg.PresignedUpload, string, error) {
	key := ObjectKey(folder, filename, s.now())
	up, err := awspkg.GeneratePresignedPutURL(ctx, s.client, s.bucket, key, contentType, expiry)
	if err != nil {
		return nil, "", err
	}
	return up, s.PublicURL(key), nil
}
