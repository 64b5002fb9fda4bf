package server

import (
	"errors"
	"net/http"

	analyticsservice "github.com/insightdeck/insightdeck/internal/analytics/service"
	"github.com/insightdeck/insightdeck/internal/authorization"
	orgdomain "github.com/insightdeck/insightdeck/internal/organization/domain"
	uploaddomain "github.com/insightdeck/insightdeck/internal/upload/domain"
)

// apiError is the uniform error payload.
type apiError struct {
	Error string `json:"error"`
}

// mapError translates domain errors into HTTP status codes. Anything
// unrecognized is a 500 and the raw message stays out of the response.
func mapError(err error) (int, apiError) {
	switch {
	case errors.Is(err, orgdomain.ErrInvalidToken):
		return http.StatusUnauthorized, apiError{Error: "invalid_token"}
	case errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, orgdomain.ErrNotMember):
		return http.StatusForbidden, apiError{Error: "forbidden"}
	case errors.Is(err, orgdomain.ErrNotFound),
		errors.Is(err, uploaddomain.ErrNotFound):
		return http.StatusNotFound, apiError{Error: err.Error()}
	case errors.Is(err, orgdomain.ErrAlreadyExists):
		return http.StatusConflict, apiError{Error: err.Error()}
	case errors.Is(err, orgdomain.ErrInvalidName),
		errors.Is(err, orgdomain.ErrInvalidRole),
		errors.Is(err, uploaddomain.ErrInvalidSource),
		errors.Is(err, uploaddomain.ErrEmptyFile),
		errors.Is(err, uploaddomain.ErrMissingColumns),
		errors.Is(err, uploaddomain.ErrMalformedHeader),
		errors.Is(err, uploaddomain.ErrInvalidPageToken),
		errors.Is(err, analyticsservice.ErrInvalidSource),
		errors.Is(err, errBadDate):
		return http.StatusBadRequest, apiError{Error: err.Error()}
	default:
		return http.StatusInternalServerError, apiError{Error: "internal_error"}
	}
}

// classifyError feeds the request logger's error fields.
func classifyError(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "internal", payload.Error
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "auth", payload.Error
	default:
		return "client", payload.Error
	}
}
