package handler

import (
	"errors"
	"net/http"
)

// ErrNilResponse indicates a handler returned nil instead of a Response.
var ErrNilResponse = errors.New("handler returned nil response")

// HTTPError carries an HTTP status code and a translation key.
// The key is safe to show to clients; internal error text never is.
type HTTPError struct {
	Code int    // HTTP status code
	Key  string // Translation key (e.g., "errors.not_found")
}

func (e HTTPError) Error() string {
	return e.Key
}

var (
	ErrBadRequest          = HTTPError{Code: http.StatusBadRequest, Key: "errors.bad_request"}
	ErrUnauthorized        = HTTPError{Code: http.StatusUnauthorized, Key: "errors.unauthorized"}
	ErrForbidden           = HTTPError{Code: http.StatusForbidden, Key: "errors.forbidden"}
	ErrNotFound            = HTTPError{Code: http.StatusNotFound, Key: "errors.not_found"}
	ErrConflict            = HTTPError{Code: http.StatusConflict, Key: "errors.conflict"}
	ErrTooManyRequests     = HTTPError{Code: http.StatusTooManyRequests, Key: "errors.too_many_requests"}
	ErrInternalServerError = HTTPError{Code: http.StatusInternalServerError, Key: "errors.internal"}
)

// NewHTTPError creates an HTTP error with a custom translation key.
func NewHTTPError(code int, key string) HTTPError {
	return HTTPError{Code: code, Key: key}
}

type errorResponse struct{ err error }

func (e errorResponse) Render(http.ResponseWriter, *http.Request) error { return e.err }

// Error hands err to the wrap error handler, which picks JSON or an error
// page for the request.
func Error(err error) Response {
	return errorResponse{err: err}
}
