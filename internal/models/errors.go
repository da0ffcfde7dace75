package models

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Error codes carried by AppError.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeInternal     = "INTERNAL_ERROR"
)

var statusByCode = map[string]int{
	CodeValidation:   http.StatusBadRequest,
	CodeUnauthorized: http.StatusUnauthorized,
	CodeForbidden:    http.StatusForbidden,
	CodeNotFound:     http.StatusNotFound,
	CodeInternal:     http.StatusInternalServerError,
}

// AppError is an error the board reports to clients as-is. Err, when set,
// is the underlying cause and is only exposed for non-internal codes.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error { return e.Err }

// Status is the HTTP status for the error code; unknown codes map to 500.
func (e *AppError) Status() int {
	if s, ok := statusByCode[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// NewNotFoundError reports a missing group, post or comment.
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s %v not found", resource, id)}
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

// NewUnauthorizedError is returned by the verify-password endpoints on mismatch.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message}
}

// NewForbiddenError is returned when an edit or delete carries the wrong password.
func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

func NewInternalError(err error) *AppError {
	return &AppError{Code: CodeInternal, Message: "Internal server error", Err: err}
}

// RespondWithError writes err as an ErrorResponse with the given status.
// Causes of internal errors never reach the client.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
	}
	body := ErrorResponse{Error: appErr.Message, Code: appErr.Code}
	if appErr.Err != nil && appErr.Code != CodeInternal {
		body.Details = appErr.Err.Error()
	}
	return c.Status(status).JSON(body)
}
