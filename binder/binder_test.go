package binder_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbsaiuk/DatesHub-sub003/binder"
)

type itemRequest struct {
	Kind   string   `path:"kind"`
	ID     string   `path:"id"`
	Page   int      `query:"page"`
	Type   string   `query:"type"`
	Tags   []string `query:"tag"`
	Active *bool    `query:"active"`
	Title  string   `json:"title" form:"title"`
	Price  float64  `json:"price" form:"price"`
}

func TestJSON(t *testing.T) {
	t.Parallel()
	bind := binder.JSON()

	t.Run("binds body", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"Ajwa","price":12.5}`))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")
		var req itemRequest
		require.NoError(t, bind(r, &req))
		assert.Equal(t, "Ajwa", req.Title)
		assert.Equal(t, 12.5, req.Price)
	})

	t.Run("not applicable without body", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.ErrorIs(t, bind(r, &itemRequest{}), binder.ErrBinderNotApplicable)
	})

	t.Run("wrong content type", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
		r.Header.Set("Content-Type", "text/plain")
		assert.ErrorIs(t, bind(r, &itemRequest{}), binder.ErrUnsupportedMediaType)
	})

	t.Run("unknown field and trailing data", func(t *testing.T) {
		t.Parallel()
		for _, body := range []string{`{"nope":1}`, `{"title":"a"}{"title":"b"}`, ``} {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			r.Header.Set("Content-Type", "application/json")
			assert.ErrorIs(t, bind(r, &itemRequest{}), binder.ErrInvalidJSON, body)
		}
	})
}

func TestForm(t *testing.T) {
	t.Parallel()
	bind := binder.Form()

	form := url.Values{"title": {"Sukkari"}, "price": {"9"}}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var req itemRequest
	require.NoError(t, bind(r, &req))
	assert.Equal(t, "Sukkari", req.Title)
	assert.Equal(t, 9.0, req.Price)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	r.Header.Set("Content-Type", "application/json")
	assert.ErrorIs(t, bind(r, &req), binder.ErrBinderNotApplicable)
}

func TestQuery(t *testing.T) {
	t.Parallel()
	bind := binder.Query()

	t.Run("binds typed values", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/?page=3&type=supplier&tag=a,b&tag=c&active=yes", nil)
		var req itemRequest
		require.NoError(t, bind(r, &req))
		assert.Equal(t, 3, req.Page)
		assert.Equal(t, "supplier", req.Type)
		assert.Equal(t, []string{"a", "b", "c"}, req.Tags)
		require.NotNil(t, req.Active)
		assert.True(t, *req.Active)
		assert.Empty(t, req.Title, "untagged fields are never bound from the query")
	})

	t.Run("invalid number", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/?page=two", nil)
		assert.ErrorIs(t, bind(r, &itemRequest{}), binder.ErrInvalidQuery)
	})

	t.Run("non-struct target", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/?page=1", nil)
		var s string
		assert.ErrorIs(t, bind(r, &s), binder.ErrInvalidQuery)
	})
}

func TestPath(t *testing.T) {
	t.Parallel()

	params := map[string]string{"kind": "company", "id": "c1"}
	bind := binder.Path(func(_ *http.Request, name string) string { return params[name] })

	var req itemRequest
	require.NoError(t, bind(httptest.NewRequest(http.MethodGet, "/", nil), &req))
	assert.Equal(t, "company", req.Kind)
	assert.Equal(t, "c1", req.ID)

	assert.ErrorIs(t, binder.Path(nil)(httptest.NewRequest(http.MethodGet, "/", nil), &req), binder.ErrInvalidPath)
}
