package i18n_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/i18n"
)

const enYAML = `
en:
  nav:
    home: "Home"
  messages:
    text_too_long: "Message must be at most %{max} characters"
  only_en: "English only"
`

const arYAML = `
ar:
  nav:
    home: "الرئيسية"
  messages:
    text_too_long: "يجب ألا تتجاوز الرسالة %{max} حرف"
`

func newTranslator(t *testing.T, opts ...i18n.Option) *i18n.Translator {
	t.Helper()
	tr, err := i18n.NewTranslator(fstest.MapFS{
		"en.yaml":   {Data: []byte(enYAML)},
		"ar.yaml":   {Data: []byte(arYAML)},
		"README.md": {Data: []byte("ignored")},
	}, opts...)
	require.NoError(t, err)
	return tr
}

func TestNewTranslator(t *testing.T) {
	t.Parallel()

	t.Run("loads every yaml file", func(t *testing.T) {
		t.Parallel()
		tr := newTranslator(t)
		assert.Equal(t, []string{"ar", "en"}, tr.SupportedLanguages())
		assert.Equal(t, "ar", tr.DefaultLanguage())
	})

	t.Run("empty directory", func(t *testing.T) {
		t.Parallel()
		_, err := i18n.NewTranslator(fstest.MapFS{})
		assert.ErrorIs(t, err, i18n.ErrNoTranslations)
	})

	t.Run("invalid structure", func(t *testing.T) {
		t.Parallel()
		_, err := i18n.NewTranslator(fstest.MapFS{"x.yaml": {Data: []byte("en: hello")}})
		assert.ErrorIs(t, err, i18n.ErrInvalidStructure)
	})

	t.Run("broken yaml", func(t *testing.T) {
		t.Parallel()
		_, err := i18n.NewTranslator(fstest.MapFS{"x.yaml": {Data: []byte("en: [")}})
		assert.ErrorIs(t, err, i18n.ErrFailedToParseYAML)
	})
}

func TestTranslator_T(t *testing.T) {
	t.Parallel()
	tr := newTranslator(t)

	tests := []struct {
		name string
		lang string
		key  string
		args []string
		want string
	}{
		{"nested key", "en", "nav.home", nil, "Home"},
		{"arabic", "ar", "nav.home", nil, "الرئيسية"},
		{"placeholder", "en", "messages.text_too_long", []string{"max", "5000"}, "Message must be at most 5000 characters"},
		{"missing in ar falls back to default then key", "ar", "only_en", nil, "only_en"},
		{"unknown language uses default", "fr", "nav.home", nil, "الرئيسية"},
		{"missing key", "en", "nope.nothing", nil, "nope.nothing"},
		{"non-leaf key", "en", "nav", nil, "nav"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.T(tt.lang, tt.key, tt.args...))
		})
	}
}

func TestTranslator_FallbackToKeyDisabled(t *testing.T) {
	t.Parallel()
	tr := newTranslator(t, i18n.WithFallbackToKey(false))
	assert.Empty(t, tr.T("en", "missing"))
	assert.True(t, tr.Has("en", "nav.home"))
	assert.False(t, tr.Has("en", "nav"))
}

func TestTranslator_Match(t *testing.T) {
	t.Parallel()
	tr := newTranslator(t)

	tests := []struct {
		header string
		want   string
	}{
		{"", "ar"},
		{"en-US,en;q=0.9", "en"},
		{"ar-SA", "ar"},
		{"fr-FR", "ar"},
		{"fr;q=0.9, en;q=0.8", "en"},
		{"not a header;;;", "ar"},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.Match(tt.header))
		})
	}
}

func TestContextHelpers(t *testing.T) {
	t.Parallel()
	tr := newTranslator(t)

	ctx := context.Background()
	assert.Equal(t, i18n.DefaultLanguage, i18n.GetLocale(ctx))
	assert.Equal(t, "a.%{b}", i18n.T(ctx, "a.%{b}"))
	assert.Equal(t, "a.c", i18n.T(ctx, "a.%{b}", "b", "c"))

	ctx = i18n.WithTranslator(i18n.SetLocale(ctx, "en"), tr)
	assert.Equal(t, "Home", i18n.T(ctx, "nav.home"))

	assert.Equal(t, "rtl", i18n.Dir("ar"))
	assert.Equal(t, "ltr", i18n.Dir("en"))
}
