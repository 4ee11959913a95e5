// Package identity resolves the authenticated principal of a request from a
// session token issued after sign-in with the identity provider.
package identity

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/orbsaiuk/DatesHub-sub003/handler"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/jwt"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/logger"
)

// SessionCookie holds the session token for browser requests.
const SessionCookie = "__session"

// SignInPath is the page that starts the sign-in flow.
const SignInPath = "/sign-in"

// PrincipalID is the identity provider's user id.
type PrincipalID string

func (p PrincipalID) String() string {
	return string(p)
}

// TokenParser extracts the subject of a valid session token.
type TokenParser interface {
	Subject(token string) (string, error)
}

type Resolver struct {
	tokens TokenParser
	cookie string
	log    *slog.Logger
}

type Option func(*Resolver)

// WithCookieName overrides SessionCookie.
func WithCookieName(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.cookie = name
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

func NewResolver(tokens TokenParser, opts ...Option) *Resolver {
	r := &Resolver{tokens: tokens, cookie: SessionCookie, log: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the principal of req. A missing, expired or tampered
// token means an anonymous caller.
func (r *Resolver) Resolve(req *http.Request) (PrincipalID, bool) {
	token := jwt.BearerToken(req)
	if token == "" {
		token = jwt.CookieToken(req, r.cookie)
	}
	if token == "" {
		return "", false
	}

	sub, err := r.tokens.Subject(token)
	if err != nil {
		r.log.DebugContext(req.Context(), "session token rejected",
			logger.Component("identity"),
			logger.Error(err),
		)
		return "", false
	}
	return PrincipalID(sub), true
}

// Middleware stores the resolved principal in the request context. It never
// rejects a request.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if p, ok := r.Resolve(req); ok {
			req = req.WithContext(WithPrincipal(req.Context(), p))
		}
		next.ServeHTTP(w, req)
	})
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p PrincipalID) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by Middleware.
func PrincipalFromContext(ctx context.Context) (PrincipalID, bool) {
	p, ok := ctx.Value(principalKey{}).(PrincipalID)
	return p, ok && p != ""
}

// LoggerExtractor adds principal_id to log records.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if p, ok := PrincipalFromContext(ctx); ok {
			return logger.PrincipalID(p.String()), true
		}
		return slog.Attr{}, false
	}
}

// SignInURL builds the sign-in redirect carrying returnTo.
func SignInURL(returnTo string) string {
	return SignInPath + "?redirect_url=" + url.QueryEscape(returnTo)
}

// RequirePrincipal answers 401 for anonymous API callers.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromContext(r.Context()); !ok {
			_ = handler.JSONError(handler.ErrUnauthorized).Render(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignIn redirects anonymous page visitors to the sign-in flow.
func RequireSignIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromContext(r.Context()); !ok {
			_ = handler.Redirect(SignInURL(r.URL.RequestURI())).Render(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
