package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ProblemDetails is an RFC 7807 problem document
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError points at the request field that was rejected
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

const problemTypeBase = "https://fortuna-import.app/errors/"

// Problem type URIs
const (
	ErrorTypeValidation = problemTypeBase + "validation"
	ErrorTypeTooLarge   = problemTypeBase + "payload-too-large"
	ErrorTypeInternal   = problemTypeBase + "internal"
)

func writeProblem(c echo.Context, status int, problemType, detail string, errs []ValidationError) error {
	return c.JSON(status, ProblemDetails{
		Type:     problemType,
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errs,
	})
}

// NewValidationError responds 400 with the rejected fields
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return writeProblem(c, http.StatusBadRequest, ErrorTypeValidation, detail, errors)
}

// NewPayloadTooLargeError responds 413
func NewPayloadTooLargeError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusRequestEntityTooLarge, ErrorTypeTooLarge, detail, nil)
}

// NewInternalError responds 500 without leaking the cause
func NewInternalError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusInternalServerError, ErrorTypeInternal, detail, nil)
}
