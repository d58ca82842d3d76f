package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	apperrors "github.com/inkfinity/backend/common/errors"
	"github.com/inkfinity/backend/services"
)

const MaxPageNumber = 1000000

var (
	allowedImageTypes = map[string]bool{
		"image/jpeg":    true,
		"image/jpg":     true,
		"image/png":     true,
		"image/webp":    true,
		"image/gif":     true,
		"image/svg+xml": true,
		"image/x-icon":  true,
	}
	allowedImageExtensions = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true, ".svg": true, ".ico": true,
	}

	contactEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	registerOnce        sync.Once
)

// RegisterValidators adds the custom tags to gin's validator and makes
// field errors report json names. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("contact_email", func(fl validator.FieldLevel) bool {
			return contactEmailPattern.MatchString(fl.Field().String())
		})
	})
}

// bindError turns a binding failure into a 400 with per-field messages.
func bindError(err error) *apperrors.Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.BadRequest("Invalid request body", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return apperrors.Validation(fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email", "contact_email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}

// parsePagination reads page and perPage. Missing or invalid values fall
// back to the defaults; perPage is capped.
func parsePagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	if page > MaxPageNumber {
		page = MaxPageNumber
	}
	perPage, err := strconv.Atoi(c.DefaultQuery("perPage", strconv.Itoa(services.DefaultPerPage)))
	if err != nil || perPage < 1 {
		perPage = services.DefaultPerPage
	}
	if perPage > services.MaxPerPage {
		perPage = services.MaxPerPage
	}
	return page, perPage
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.BadRequest("Invalid UUID format", err)
	}
	return id, nil
}

func parseOptionalUUID(raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperrors.Validation(map[string]string{"category_id": "must be a UUID"})
	}
	return &id, nil
}

// isValidImage accepts a known image content type or, when the client sent
// a generic type, a known image extension.
func isValidImage(fh *multipart.FileHeader) bool {
	if fh.Size > MaxUploadSize {
		return false
	}
	ct := strings.ToLower(fh.Header.Get("Content-Type"))
	if allowedImageTypes[ct] {
		return true
	}
	if ct == "" || ct == "application/octet-stream" {
		return allowedImageExtensions[strings.ToLower(filepath.Ext(fh.Filename))]
	}
	return false
}

func validateImages(files []*multipart.FileHeader) error {
	for _, fh := range files {
		if !isValidImage(fh) {
			return apperrors.BadRequest(fmt.Sprintf("Invalid image %s. Allowed: jpeg, png, webp, gif, svg, ico up to 10MB", fh.Filename), nil)
		}
	}
	return nil
}

func validateImage(fh *multipart.FileHeader) error {
	if fh == nil {
		return nil
	}
	return validateImages([]*multipart.FileHeader{fh})
}

// formFiles returns the files under field, or nil for non-multipart
// requests.
func formFiles(c *gin.Context, field string) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File[field]
}

func formFile(c *gin.Context, field string) *multipart.FileHeader {
	files := formFiles(c, field)
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

// stringList accepts repeated form values or a single JSON array.
func stringList(values []string) []string {
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var out []string
		if err := json.Unmarshal([]byte(values[0]), &out); err == nil {
			return out
		}
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
