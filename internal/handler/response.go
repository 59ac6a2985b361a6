package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sumire/lostfound/internal/domain"
)

// Envelope is the standard API response wrapper.
type Envelope struct {
	Data  any       `json:"data,omitempty"`
	Meta  *Meta     `json:"meta,omitempty"`
	Error *APIError `json:"error,omitempty"`
}

// Meta carries list totals and non-fatal warnings.
type Meta struct {
	Total    int      `json:"total,omitempty"`
	Unread   *int     `json:"unread,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// APIError represents an error in the API response.
type APIError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a field-level validation error.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// JSON writes a JSON response with the standard envelope.
func JSON(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{Data: data})
}

// JSONWithMeta writes a JSON response carrying meta alongside the data.
func JSONWithMeta(c echo.Context, status int, data any, meta Meta) error {
	return c.JSON(status, Envelope{Data: data, Meta: &meta})
}

// HTTPErrorHandler writes every handler error as an enveloped JSON body.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, apiErr := mapError(err)
	if jsonErr := c.JSON(status, Envelope{Error: &apiErr}); jsonErr != nil {
		slog.Error("failed to send error response", "error", jsonErr)
	}
}

// errorMapping turns a sentinel error into a status and public code. A blank
// message means the wrapped error text is safe to show.
type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{domain.ErrNotFound, http.StatusNotFound, "not_found", "The requested resource was not found"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "Authentication is required"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden", "You are not permitted to perform this action"},
	{domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input", ""},
	{domain.ErrInvalidState, http.StatusConflict, "invalid_state", ""},
	{domain.ErrConflict, http.StatusConflict, "conflict", "The resource already exists"},
}

func mapError(err error) (int, APIError) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, APIError{
			Code:    "validation_error",
			Message: validationErr.Error(),
			Details: []FieldError{
				{Field: validationErr.Field, Message: validationErr.Message},
			},
		}
	}

	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.message
		if msg == "" {
			msg = err.Error()
		}
		return m.status, APIError{Code: m.code, Message: msg}
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, APIError{
			Code:    "payload_too_large",
			Message: fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit),
		}
	}

	// echo's own errors: unknown routes, bad methods, bind failures
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		msg, _ := echoErr.Message.(string)
		if msg == "" {
			msg = http.StatusText(echoErr.Code)
		}
		return echoErr.Code, APIError{
			Code:    strings.ToLower(strings.ReplaceAll(http.StatusText(echoErr.Code), " ", "_")),
			Message: msg,
		}
	}

	slog.Error("unhandled error", "error", err)
	return http.StatusInternalServerError, APIError{
		Code:    "internal_error",
		Message: "An unexpected error occurred",
	}
}
