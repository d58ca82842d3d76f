package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"regexp"
	"strings"

	"github.com/inkfinity/backend/storage"
	"go.uber.org/zap"
)

// Defaults for listings when the caller sends no perPage.
const (
	DefaultPerPage = 12
	MaxPerPage     = 100
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Slugify lowercases name and turns each whitespace run into a hyphen.
func Slugify(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// PageMeta describes one page of a listing.
type PageMeta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPageMeta clamps page into [1, totalPages]. An empty listing still has
// one page.
func NewPageMeta(page, perPage int, total int64) PageMeta {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return PageMeta{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

func normalizePerPage(perPage int) int {
	switch {
	case perPage < 1:
		return DefaultPerPage
	case perPage > MaxPerPage:
		return MaxPerPage
	default:
		return perPage
	}
}

// uploadFiles stores every file under folder. On failure the files already
// stored are removed again.
func uploadFiles(ctx context.Context, store storage.ImageStore, folder string, files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		url, err := uploadFile(ctx, store, folder, fh)
		if err != nil {
			_ = storage.DeleteAll(ctx, store, urls)
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func uploadFile(ctx context.Context, store storage.ImageStore, folder string, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	obj, err := store.Upload(ctx, folder, fh.Filename, f, fh.Header.Get("Content-Type"))
	if err != nil {
		return "", err
	}
	return obj.URL, nil
}

// discardImages deletes refs and only logs failures. Rows have already been
// written by the time images are cleaned up.
func discardImages(ctx context.Context, store storage.ImageStore, refs []string, logger *zap.Logger) {
	if len(refs) == 0 {
		return
	}
	if err := storage.DeleteAll(ctx, store, refs); err != nil {
		logger.Warn("failed to delete images", zap.Strings("refs", refs), zap.Error(err))
	}
}
