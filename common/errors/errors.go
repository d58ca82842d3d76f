package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error is an application error carrying the HTTP status it maps to.
type Error struct {
	Code    int               `json:"code"`
	Message string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so errors.Is(err, ErrNotFound)
// works for wrapped instances.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func BadRequest(message string, err error) *Error { return New(http.StatusBadRequest, message, err) }
func NotFound(message string, err error) *Error   { return New(http.StatusNotFound, message, err) }
func Conflict(message string, err error) *Error   { return New(http.StatusConflict, message, err) }
func Unauthorized(message string) *Error          { return New(http.StatusUnauthorized, message, nil) }
func Forbidden(message string) *Error             { return New(http.StatusForbidden, message, nil) }
func Internal(message string, err error) *Error {
	return New(http.StatusInternalServerError, message, err)
}

// Validation builds a 400 carrying per-field messages.
func Validation(fields map[string]string) *Error {
	return &Error{Code: http.StatusBadRequest, Message: "Validation error", Fields: fields}
}

// Sentinels for errors.Is checks. Compare by code only.
var (
	ErrBadRequest     = &Error{Code: http.StatusBadRequest}
	ErrUnauthorized   = &Error{Code: http.StatusUnauthorized}
	ErrForbidden      = &Error{Code: http.StatusForbidden}
	ErrNotFound       = &Error{Code: http.StatusNotFound}
	ErrConflict       = &Error{Code: http.StatusConflict}
	ErrInternalServer = &Error{Code: http.StatusInternalServerError}
)

// From returns the *Error in err's chain, or wraps err as a 500.
func From(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal("Internal server error", err)
}

// ErrorMiddleware renders the last error attached with c.Error when the
// handler did not write a response itself.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		appErr := From(c.Errors.Last().Err)
		c.AbortWithStatusJSON(appErr.Code, appErr)
	}
}
