package aws

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewS3Client creates an S3 client. Path-style addressing is required by
// LocalStack and MinIO.
func NewS3Client(cfg sdkaws.Config, pathStyle bool) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = pathStyle
	})
}

// PresignedUpload is a presigned PUT request the browser can use directly.
type PresignedUpload struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Key     string            `json:"key"`
	Expires time.Time         `json:"expires_at"`
}

// GeneratePresignedPutURL presigns a PUT of key into bucket.
func GeneratePresignedPutURL(ctx context.Context, client *s3.Client, bucket, key, contentType string, expiry time.Duration) (*PresignedUpload, error) {
	presigner := s3.NewPresignClient(client)

	input := &s3.PutObjectInput{
		Bucket: sdkaws.String(bucket),
		Key:    sdkaws.String(key),
	}
	if contentType != "" {
		input.ContentType = sdkaws.String(contentType)
	}

	presigned, err := presigner.PresignPutObject(ctx, input, func(o *s3.PresignOptions) {
		o.Expires = expiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to presign put object: %w", err)
	}

	headers := make(map[string]string, len(presigned.SignedHeader))
	for k, v := range presigned.SignedHeader {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	return &PresignedUpload{
		URL:     presigned.URL,
		Headers: headers,
		Key:     key,
		Expires: time.Now().Add(expiry),
	}, nil
}
