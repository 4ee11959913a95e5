package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbsaiuk/DatesHub-sub003/handler"
)

func text(s string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

func TestRedirect(t *testing.T) {
	t.Parallel()

	t.Run("plain request gets 303", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		require.NoError(t, handler.Redirect("/sign-in").Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/sign-in", rec.Header().Get("Location"))
	})

	t.Run("datastar request gets sse", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Accept", "text/event-stream")
		rec := httptest.NewRecorder()
		require.NoError(t, handler.Redirect("/sign-in").Render(rec, r))
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/event-stream")
		assert.Contains(t, rec.Body.String(), "/sign-in")
	})
}

func TestSafeLocalPath(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"/business/company/offers": "/business/company/offers",
		"/bookmarks?page=2":        "/bookmarks?page=2",
		"":                         "/",
		"https://evil.example":     "/",
		"//evil.example":           "/",
		"/\\evil.example":          "/",
		"relative":                 "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, handler.SafeLocalPath(in, "/"), in)
	}
}

func TestTempl(t *testing.T) {
	t.Parallel()

	t.Run("full page", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		require.NoError(t, handler.TemplPartial(text("row"), text("page")).Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Equal(t, "page", rec.Body.String())
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	})

	t.Run("status", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		require.NoError(t, handler.TemplWithStatus(http.StatusNotFound, text("missing")).Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("datastar partial", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/?datastar=1", nil)
		rec := httptest.NewRecorder()
		require.NoError(t, handler.TemplPartial(text("<li>row</li>"), text("page"), handler.WithTarget("#messages")).Render(rec, r))
		assert.Contains(t, rec.Body.String(), "<li>row</li>")
		assert.NotContains(t, rec.Body.String(), "page")
	})
}

func TestNewErrorHandler(t *testing.T) {
	t.Parallel()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	page := func(p handler.ErrorPageParams) templ.Component {
		return text("error page " + p.Error)
	}
	eh := handler.NewErrorHandler(log, handler.ErrorHandlerConfig{ErrorPage: page})

	t.Run("api paths get json", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		eh(handler.NewContext(rec, httptest.NewRequest(http.MethodGet, "/api/blogs/x", nil)), handler.ErrNotFound)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "errors.not_found", decodeBody(t, rec).Code)
	})

	t.Run("pages get html", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		eh(handler.NewContext(rec, httptest.NewRequest(http.MethodGet, "/companies/x", nil)), handler.ErrNotFound)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Body.String(), "error page"))
	})
}
