package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/logger"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/requestid"
)

// ErrorPageParams contains data for rendering error pages.
type ErrorPageParams struct {
	Error      string
	StatusCode int
	RequestID  string
	RetryURL   string
}

// ErrorHandlerConfig configures NewErrorHandler.
type ErrorHandlerConfig struct {
	// ErrorPage renders a full error page for browser requests.
	// When nil, browser requests get a plain-text error.
	ErrorPage func(ErrorPageParams) templ.Component

	// APIPrefix marks paths that always get JSON errors (default "/api/").
	APIPrefix string
}

func isClientError(statusCode int) bool {
	return statusCode >= http.StatusBadRequest && statusCode < http.StatusInternalServerError
}

func logLevel(statusCode int) slog.Level {
	if isClientError(statusCode) {
		return slog.LevelWarn
	}
	return slog.LevelError
}

func wantsJSON(r *http.Request, apiPrefix string) bool {
	if strings.HasPrefix(r.URL.Path, apiPrefix) {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// NewErrorHandler creates the application error handler. API requests get
// a JSON ErrorBody, browser requests an error page. The original error is
// only logged.
func NewErrorHandler(log *slog.Logger, cfg ErrorHandlerConfig) ErrorHandler[Context] {
	if log == nil {
		log = slog.Default()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/"
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		w := ctx.ResponseWriter()
		reqID := requestid.FromContext(r.Context())
		status, body := ClassifyError(r, err)

		log.LogAttrs(r.Context(), logLevel(status), "request error",
			logger.RequestID(reqID),
			logger.Error(err),
			slog.Int("status_code", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)

		if wantsJSON(r, cfg.APIPrefix) {
			if renderErr := JSON(body, WithJSONStatus(status)).Render(w, r); renderErr != nil {
				log.ErrorContext(r.Context(), "failed to render json error", logger.Error(renderErr))
			}
			return
		}

		if cfg.ErrorPage == nil {
			http.Error(w, body.Error, status)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		page := cfg.ErrorPage(ErrorPageParams{
			Error:      body.Error,
			StatusCode: status,
			RequestID:  reqID,
			RetryURL:   r.URL.Path,
		})
		if renderErr := page.Render(r.Context(), w); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error page",
				logger.RequestID(reqID),
				logger.Error(renderErr),
			)
		}
	}
}
