package types

import (
	"errors"
	"net/http"

	appErr "github.com/luxequeer/deployer/pkg/errors"
)

// FromAppError converts err for the response body. Non-AppErrors keep only a code so
// internals do not leak.
func FromAppError(err error) *APIError {
	if err == nil {
		return nil
	}
	var e *appErr.AppError
	if !errors.As(err, &e) {
		return &APIError{Code: string(appErr.CodeInternal), Message: http.StatusText(http.StatusInternalServerError)}
	}
	return &APIError{Code: string(e.Code), Message: e.Message, Details: e.MetaString()}
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(err error) int {
	switch appErr.CodeOf(err) {
	case appErr.CodeInvalid:
		return http.StatusBadRequest
	case appErr.CodeUnauthorized:
		return http.StatusUnauthorized
	case appErr.CodeNotFound:
		return http.StatusNotFound
	case appErr.CodeConflict, appErr.CodeAlreadyExists:
		return http.StatusConflict
	case appErr.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
