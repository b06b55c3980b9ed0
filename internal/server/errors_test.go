package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Riolite55/performance-evaluation/internal/consolidation"
	"github.com/Riolite55/performance-evaluation/internal/formatting"
	"github.com/Riolite55/performance-evaluation/internal/rendering"
	"github.com/Riolite55/performance-evaluation/internal/schemas"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &ErrValidation{Field: "row", Message: "bad"}, http.StatusBadRequest},
		{"schema", &schemas.ValidationError{Errors: []schemas.FieldError{{Field: "headers", Message: "required"}}}, http.StatusBadRequest},
		{"render", &rendering.RenderError{Message: "unsupported format"}, http.StatusBadRequest},
		{"not found", &ErrNotFound{Kind: "run", ID: "x"}, http.StatusNotFound},
		{"sheet", &consolidation.SchemaError{Message: "header row is empty"}, http.StatusUnprocessableEntity},
		{"unavailable", &ErrUnavailable{Feature: "run history"}, http.StatusServiceUnavailable},
		{"row invalid", &ErrRowInvalid{Row: 2, Cause: &schemas.ValidationError{}}, http.StatusUnprocessableEntity},
		{"printer", &rendering.PrintError{Message: "failed to print PDF"}, http.StatusBadGateway},
		{"printer missing", &ErrUnavailable{Feature: "pdf rendering", Reason: "no printer configured"}, http.StatusServiceUnavailable},
		{"wrapped formatter", fmt.Errorf("row 1: %w", &formatting.Error{Message: "model call failed"}), http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "validation error: limit - must be positive", (&ErrValidation{Field: "limit", Message: "must be positive"}).Error())
	assert.Equal(t, "document not found: abc", (&ErrNotFound{Kind: "document", ID: "abc"}).Error())
	assert.Contains(t, (&ErrUnavailable{Feature: "run history"}).Error(), "no database configured")
	assert.Equal(t, "pdf rendering is not available: no printer configured",
		(&ErrUnavailable{Feature: "pdf rendering", Reason: "no printer configured"}).Error())

	cause := errors.New("missing title")
	err := &ErrRowInvalid{Row: 3, Cause: cause}
	assert.Equal(t, "row 3: missing title", err.Error())
	assert.ErrorIs(t, err, cause)
}
