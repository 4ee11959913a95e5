// Package account runs the sign-in flow against the external identity
// provider and keeps the resulting session in a cookie.
package account

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/orbsaiuk/DatesHub-sub003/binder"
	"github.com/orbsaiuk/DatesHub-sub003/handler"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/cookie"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/jwt"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/logger"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
	"github.com/orbsaiuk/DatesHub-sub003/svc/identity"
)

const stateCookie = "__oauth_state"

var (
	errSignInFailed = handler.NewHTTPError(http.StatusUnauthorized, "errors.sign_in_failed")
	errInvalidState = handler.NewHTTPError(http.StatusBadRequest, "errors.sign_in_expired")
)

type Config struct {
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	StateTTL   time.Duration `env:"OAUTH_STATE_TTL" envDefault:"10m"`
}

// Users stores the people who signed in.
type Users interface {
	UpsertUser(ctx context.Context, u directory.User) (*directory.User, error)
}

// stateClaims travel through the provider and come back on the callback.
type stateClaims struct {
	jwt.Claims
	RedirectURL string `json:"redirect_url,omitempty"`
	Nonce       string `json:"nonce"`
}

func (c *stateClaims) Registered() *jwt.Claims { return &c.Claims }

type Service struct {
	cfg      Config
	provider Provider
	users    Users
	tokens   *jwt.Service
	cookies  *cookie.Manager
	log      *slog.Logger
	onError  handler.ErrorHandler[handler.Context]
}

func NewService(cfg Config, provider Provider, users Users, tokens *jwt.Service, cookies *cookie.Manager, log *slog.Logger, onError handler.ErrorHandler[handler.Context]) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * 24 * time.Hour
	}
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = 10 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	if onError == nil {
		onError = handler.NewErrorHandler(log, handler.ErrorHandlerConfig{})
	}
	return &Service{
		cfg:      cfg,
		provider: provider,
		users:    users,
		tokens:   tokens,
		cookies:  cookies,
		log:      log.With(logger.Component("account")),
		onError:  onError,
	}
}

// Mount registers /sign-in, /sign-in/callback and /sign-out on r.
func (s *Service) Mount(r chi.Router) {
	r.Get(identity.SignInPath, handler.Wrap(s.signIn,
		handler.WithBinders[handler.Context, SignInRequest](binder.Query()),
		handler.WithErrorHandler[handler.Context, SignInRequest](s.onError),
	))
	r.Get(identity.SignInPath+"/callback", handler.Wrap(s.callback,
		handler.WithBinders[handler.Context, CallbackRequest](binder.Query()),
		handler.WithErrorHandler[handler.Context, CallbackRequest](s.onError),
	))
	r.Post("/sign-out", handler.Wrap(s.signOut,
		handler.WithErrorHandler[handler.Context, struct{}](s.onError),
	))
}

type SignInRequest struct {
	RedirectURL string `query:"redirect_url"`
}

func (s *Service) signIn(ctx handler.Context, req SignInRequest) handler.Response {
	target := handler.SafeLocalPath(req.RedirectURL, "/")
	if _, ok := identity.PrincipalFromContext(ctx); ok {
		return handler.Redirect(target)
	}

	nonce := uuid.NewString()
	claims := &stateClaims{
		Claims:      s.tokens.NewClaims("", s.cfg.StateTTL),
		RedirectURL: target,
		Nonce:       nonce,
	}
	state, err := s.tokens.Sign(claims)
	if err != nil {
		return handler.Error(err)
	}

	s.cookies.Set(ctx.ResponseWriter(), stateCookie, nonce, cookie.WithMaxAge(int(s.cfg.StateTTL.Seconds())))
	return handler.RedirectWithCode(s.provider.AuthURL(state), http.StatusFound)
}

type CallbackRequest struct {
	Code  string `query:"code"`
	State string `query:"state"`
	Error string `query:"error"`
}

func (s *Service) callback(ctx handler.Context, req CallbackRequest) handler.Response {
	w := ctx.ResponseWriter()

	var claims stateClaims
	if err := s.tokens.Parse(req.State, &claims); err != nil {
		return handler.Error(errors.Join(errInvalidState, err))
	}
	nonce, err := s.cookies.Get(ctx.Request(), stateCookie)
	if err != nil || nonce == "" || nonce != claims.Nonce {
		return handler.Error(errInvalidState)
	}
	s.cookies.Delete(w, stateCookie)

	if req.Error != "" || req.Code == "" {
		s.log.WarnContext(ctx, "identity provider denied sign-in", slog.String("provider_error", req.Error))
		return handler.Error(errSignInFailed)
	}

	profile, err := s.provider.ResolveProfile(ctx, req.Code)
	if err != nil {
		return handler.Error(errors.Join(errSignInFailed, err))
	}

	if _, err := s.users.UpsertUser(ctx, directory.User{
		ExternalID: profile.ExternalID,
		Email:      profile.Email,
		Name:       profile.Name,
		AvatarURL:  profile.AvatarURL,
	}); err != nil {
		return handler.Error(err)
	}

	token, err := s.tokens.Issue(profile.ExternalID, s.cfg.SessionTTL)
	if err != nil {
		return handler.Error(err)
	}
	s.cookies.Set(w, identity.SessionCookie, token, cookie.WithMaxAge(int(s.cfg.SessionTTL.Seconds())))

	s.log.InfoContext(ctx, "user signed in", logger.PrincipalID(profile.ExternalID))
	return handler.Redirect(handler.SafeLocalPath(claims.RedirectURL, "/"))
}

func (s *Service) signOut(ctx handler.Context, _ struct{}) handler.Response {
	s.cookies.Delete(ctx.ResponseWriter(), identity.SessionCookie)
	return handler.Redirect("/")
}
