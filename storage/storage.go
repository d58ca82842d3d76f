// Package storage uploads and deletes catalog images.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Folders images are grouped under.
const (
	FolderProducts   = "products"
	FolderCategories = "categories"
	FolderBlog       = "blog"
	FolderBranding   = "branding"
)

var ErrPresignUnsupported = errors.New("presigned uploads are not supported by this image store")

// Object is a stored image.
type Object struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// ImageStore is implemented by the S3 and Cloudinary stores.
type ImageStore interface {
	Upload(ctx context.Context, folder, filename string, body io.Reader, contentType string) (*Object, error)
	// Delete removes the object behind ref, which may be a key or a URL
	// returned by Upload. URLs the store does not own are ignored.
	Delete(ctx context.Context, ref string) error
	PublicURL(ref string) string
}

// ObjectKey names an upload folder/<unix-ms>-<random>.<ext>.
func ObjectKey(folder, filename string, now time.Time) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	if ext == "" {
		ext = "bin"
	}
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	name := fmt.Sprintf("%d-%s.%s", now.UnixMilli(), random, ext)
	if folder == "" {
		return name
	}
	return strings.Trim(folder, "/") + "/" + name
}

func isURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// DeleteAll removes every ref and returns the first error after trying all.
func DeleteAll(ctx context.Context, store ImageStore, refs []string) error {
	var first error
	for _, ref := range refs {
		if err := store.Delete(ctx, ref); err != nil && first == nil {
			first = err
		}
	}
	return first
}
