package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/andresuchdata/promo-dispatch/internal/domain"
	"github.com/andresuchdata/promo-dispatch/internal/storage"
)

// ErrorStatus maps an analysis error onto an HTTP status code.
func ErrorStatus(err error) int {
	var (
		schemaErr *domain.SchemaError
		defect    *domain.ComputationDefect
	)
	switch {
	case errors.As(err, &schemaErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &defect):
		return http.StatusInternalServerError
	case errors.Is(err, domain.ErrInvalidParameter), errors.Is(err, domain.ErrSheetNotFound):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrReportNotFound), errors.Is(err, storage.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSourceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody is the JSON body returned with an error status.
func ErrorBody(err error) map[string]any {
	body := map[string]any{"error": err.Error()}

	var schemaErr *domain.SchemaError
	if errors.As(err, &schemaErr) {
		body["table"] = schemaErr.Table
		body["missing_columns"] = schemaErr.Missing
	}
	var defect *domain.ComputationDefect
	if errors.As(err, &defect) {
		body["stage"] = defect.Stage
		body["invariant"] = defect.Invariant
	}
	return body
}
