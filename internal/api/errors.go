package api

import (
	"errors"
	"net/http"

	"bike-dash/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
func httpStatusFromDomainError(err error) int {
	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var fetch *domain.FetchError
	var malformed *domain.MalformedError
	var mismatch *domain.SchemaMismatchError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &fetch):
		return http.StatusBadGateway
	case errors.As(err, &malformed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrMalformedIndex), errors.Is(err, domain.ErrFeedNotFound):
		return http.StatusBadGateway
	case errors.As(err, &mismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrFeatureDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
