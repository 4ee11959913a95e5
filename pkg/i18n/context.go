package i18n

import "context"

type (
	localeContextKey     struct{}
	translatorContextKey struct{}
)

// SetLocale stores the locale in ctx.
func SetLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeContextKey{}, locale)
}

// GetLocale returns the locale stored in ctx, or DefaultLanguage.
func GetLocale(ctx context.Context) string {
	if locale, ok := ctx.Value(localeContextKey{}).(string); ok && locale != "" {
		return locale
	}
	return DefaultLanguage
}

// WithTranslator stores t in ctx.
func WithTranslator(ctx context.Context, t *Translator) context.Context {
	return context.WithValue(ctx, translatorContextKey{}, t)
}

// TranslatorFromContext returns the translator stored in ctx, if any.
func TranslatorFromContext(ctx context.Context) (*Translator, bool) {
	t, ok := ctx.Value(translatorContextKey{}).(*Translator)
	return t, ok && t != nil
}

// T translates key using the translator and locale in ctx. Without a
// translator the key is returned with placeholders filled.
func T(ctx context.Context, key string, args ...string) string {
	t, ok := TranslatorFromContext(ctx)
	if !ok {
		return substitute(key, args)
	}
	return t.T(GetLocale(ctx), key, args...)
}

// Dir returns the text direction for a locale.
func Dir(locale string) string {
	switch locale {
	case "ar", "fa", "he", "ur":
		return "rtl"
	default:
		return "ltr"
	}
}
