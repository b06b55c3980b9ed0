package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Riolite55/performance-evaluation/internal/consolidation"
	"github.com/Riolite55/performance-evaluation/internal/formatting"
	"github.com/Riolite55/performance-evaluation/internal/rendering"
	"github.com/Riolite55/performance-evaluation/internal/schemas"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotFound indicates a missing run or document
type ErrNotFound struct {
	Kind string
	ID   string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ErrUnavailable indicates a feature whose backing service is not configured
type ErrUnavailable struct {
	Feature string
	Reason  string // defaults to a missing database
}

func (e *ErrUnavailable) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "no database configured"
	}
	return fmt.Sprintf("%s is not available: %s", e.Feature, reason)
}

// ErrRowInvalid indicates that a requested row produced a document that
// failed validation
type ErrRowInvalid struct {
	Row   int
	Cause error
}

func (e *ErrRowInvalid) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Cause)
}

func (e *ErrRowInvalid) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation   *ErrValidation
		notFound     *ErrNotFound
		unavailable  *ErrUnavailable
		rowInvalid   *ErrRowInvalid
		schemaErr    *schemas.ValidationError
		sheetErr     *consolidation.SchemaError
		renderErr    *rendering.RenderError
		printErr     *rendering.PrintError
		formatterErr *formatting.Error
	)
	switch {
	case errors.As(err, &rowInvalid):
		return http.StatusUnprocessableEntity
	case errors.As(err, &validation), errors.As(err, &schemaErr), errors.As(err, &renderErr):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &sheetErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &formatterErr), errors.As(err, &printErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
