package response

import (
	"net/http"

	apperrors "github.com/canis-majoris/instantly-assignment-v3/internal/errors"
	"github.com/labstack/echo/v4"
)

// Envelope status values. Every boundary-crossing response is one of the two
// variants: success-with-payload or error-with-message.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
}

// payload merges extra fields into a success envelope
func payload(fields map[string]interface{}) map[string]interface{} {
	body := map[string]interface{}{"status": StatusSuccess}
	for k, v := range fields {
		body[k] = v
	}
	return body
}

// Success returns a 200 success envelope with the given payload fields
func Success(c echo.Context, fields map[string]interface{}) error {
	return c.JSON(http.StatusOK, payload(fields))
}

// Created returns a 201 success envelope with the given payload fields
func Created(c echo.Context, fields map[string]interface{}) error {
	return c.JSON(http.StatusCreated, payload(fields))
}

// Error returns an error envelope with a status code derived from the error
func Error(c echo.Context, err error) error {
	code := apperrors.GetErrorCode(err)
	return c.JSON(getHTTPStatus(code), ErrorResponse{
		Status: StatusError,
		Error:  err.Error(),
		Code:   code,
	})
}

// BadRequest returns a 400 Bad Request error envelope
func BadRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Status: StatusError,
		Error:  message,
		Code:   apperrors.CodeInvalidInput,
	})
}

// NotFound returns a 404 Not Found error envelope
func NotFound(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, ErrorResponse{
		Status: StatusError,
		Error:  message,
		Code:   apperrors.CodeNotFound,
	})
}

// InternalError returns a 500 Internal Server Error envelope
func InternalError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Status: StatusError,
		Error:  message,
		Code:   apperrors.CodeInternalError,
	})
}

// getHTTPStatus maps error codes to HTTP status codes
func getHTTPStatus(code string) int {
	switch code {
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
