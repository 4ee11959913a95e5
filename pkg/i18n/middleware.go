package i18n

import (
	"net/http"
	"strings"
	"time"
)

// MiddlewareConfig names the request inputs that select a locale.
type MiddlewareConfig struct {
	QueryParam string // default "lang"
	CookieName string // default "lang"
	CookieTTL  time.Duration
	Secure     bool
}

// Middleware picks the request locale from the query parameter, then the
// cookie, then Accept-Language. An explicit query choice is persisted in
// the cookie so later pages keep it.
func Middleware(t *Translator, cfg MiddlewareConfig) func(http.Handler) http.Handler {
	if cfg.QueryParam == "" {
		cfg.QueryParam = "lang"
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "lang"
	}
	if cfg.CookieTTL == 0 {
		cfg.CookieTTL = 365 * 24 * time.Hour
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := ""
			if q := normalize(r.URL.Query().Get(cfg.QueryParam)); q != "" && t.Supports(q) {
				lang = q
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    lang,
					Path:     "/",
					MaxAge:   int(cfg.CookieTTL.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			if lang == "" {
				if c, err := r.Cookie(cfg.CookieName); err == nil && t.Supports(normalize(c.Value)) {
					lang = normalize(c.Value)
				}
			}
			if lang == "" {
				lang = t.Match(r.Header.Get("Accept-Language"))
			}

			ctx := SetLocale(r.Context(), lang)
			ctx = WithTranslator(ctx, t)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if len(lang) > 35 {
		return ""
	}
	return lang
}
