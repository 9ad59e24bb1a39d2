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
	case errx.Gone:
		return http.StatusGone
	case errx.Conflict:
		return http.StatusConflict
	case errx.Invalid:
		return http.StatusBadRequest
	case errx.Unauthorized:
		return http.StatusUnauthorized
	case errx.Forbidden:
		return http.StatusForbidden
	case errx.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorKindToCode maps errx.Kind to the "error" field of JSON error bodies.
func ErrorKindToCode(kind errx.Kind) string {
	switch kind {
	case errx.NotFound:
		return "not_found"
	case errx.Gone:
		return "gone"
	case errx.Conflict:
		return "conflict"
	case errx.Invalid:
		return "invalid_input"
	case errx.Unauthorized:
		return "unauthorized"
	case errx.Forbidden:
		return "forbidden"
	case errx.Unavailable:
		return "unavailable"
	default:
		return "internal_error"
	}
}

// WriteKind writes the error body for kind with a caller-chosen message.
// Messages must be safe to show to clients.
func WriteKind(w http.ResponseWriter, kind errx.Kind, message string) {
	WriteError(w, ErrorKindToStatus(kind), ErrorKindToCode(kind), message, nil)
}
