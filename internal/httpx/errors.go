package httpx

import (
	"net/http"

	"github.com/sundayezeilo/shortlinks/internal/errx"
)

// ErrorKindToStatus maps errx.Kind to HTTP status codes.
func ErrorKindToStatus(kind errx.Kind) int {
	switch kind {
	case errx.NotFound:
		return http.StatusNotFound
	case errx.Conflict:
		return http.StatusConflict
	case errx.Invalid, errx.BadRequest:
		return http.StatusBadRequest
	case errx.Unauthorized:
		return http.StatusUnauthorized
	case errx.TooLarge:
		return http.StatusRequestEntityTooLarge
	case errx.MethodNotAllowed:
		return http.StatusMethodNotAllowed
	case errx.Constraint, errx.Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ErrorKindToCode maps errx.Kind to error codes for JSON responses.
func ErrorKindToCode(kind errx.Kind) string {
	switch kind {
	case errx.NotFound:
		return "not_found"
	case errx.Conflict:
		return "conflict"
	case errx.Constraint:
		return "database_error"
	case errx.Invalid:
		return "invalid_input"
	case errx.Unauthorized:
		return "unauthorized"
	case errx.TooLarge:
		return "payload_too_large"
	case errx.BadRequest:
		return "invalid_request"
	case errx.MethodNotAllowed:
		return "method_not_allowed"
	default:
		return "internal_error"
	}
}
