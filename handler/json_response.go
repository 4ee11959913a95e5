package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/i18n"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/validator"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string              `json:"error"`
	Code    string              `json:"code,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   any
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures a JSON response.
type JSONOption func(*jsonResponse)

// WithJSONStatus sets a custom HTTP status code.
func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) {
		r.status = status
	}
}

// JSON writes v as the response body without an envelope.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: v}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// jsonErrorResponse resolves the message at render time so it can be
// localized with the request's locale.
type jsonErrorResponse struct {
	err  error
	opts []JSONOption
}

func (j jsonErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	status, body := ClassifyError(r, j.err)
	resp := &jsonResponse{status: status, body: body}
	for _, opt := range j.opts {
		opt(resp)
	}
	return resp.Render(w, r)
}

// JSONError creates a JSON error response. HTTPError and
// validator.ValidationErrors map to their status codes; anything else is
// reported as a generic 500.
func JSONError(err error, opts ...JSONOption) Response {
	return jsonErrorResponse{err: err, opts: opts}
}

// ClassifyError maps err to a status code and a client-safe body.
func ClassifyError(r *http.Request, err error) (int, ErrorBody) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		body := ErrorBody{
			Code:    "validation_error",
			Details: make(map[string][]string, len(verrs)),
		}
		for _, ve := range verrs {
			msg := translate(r, ve.TranslationKey, ve.Message, ve.TranslationArgs()...)
			body.Details[ve.Field] = append(body.Details[ve.Field], msg)
			if body.Error == "" {
				body.Error = msg
			}
		}
		return http.StatusBadRequest, body
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, ErrorBody{
			Error: translate(r, httpErr.Key, http.StatusText(httpErr.Code)),
			Code:  httpErr.Key,
		}
	}

	return http.StatusInternalServerError, ErrorBody{
		Error: translate(r, ErrInternalServerError.Key, http.StatusText(http.StatusInternalServerError)),
		Code:  ErrInternalServerError.Key,
	}
}

func translate(r *http.Request, key, fallback string, args ...string) string {
	if key == "" {
		return fallback
	}
	if msg := i18n.T(r.Context(), key, args...); msg != key {
		return msg
	}
	return fallback
}
