package httpapi

import (
	"errors"
	"net/http"

	composer "github.com/goliatone/go-dashboard-composer/components/composer"
)

// ErrNotConfigured is returned when the Bus has no handler for an operation.
var ErrNotConfigured = errors.New("httpapi: operation not configured")

// StatusFor maps composer errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, composer.ErrFolderNotFound),
		errors.Is(err, composer.ErrDashboardNotFound),
		errors.Is(err, composer.ErrInstanceNotFound):
		return http.StatusNotFound
	case errors.Is(err, composer.ErrInvalidName),
		errors.Is(err, composer.ErrInvalidWidgets),
		errors.Is(err, composer.ErrUnknownCatalogKey),
		errors.Is(err, composer.ErrInvalidTheme):
		return http.StatusBadRequest
	case errors.Is(err, composer.ErrNoActiveDashboard):
		return http.StatusConflict
	case errors.Is(err, ErrNotConfigured):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
