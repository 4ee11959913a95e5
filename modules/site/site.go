// Package site serves the server-rendered pages.
package site

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/orbsaiuk/DatesHub-sub003/binder"
	"github.com/orbsaiuk/DatesHub-sub003/handler"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/logger"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
	"github.com/orbsaiuk/DatesHub-sub003/svc/identity"
	"github.com/orbsaiuk/DatesHub-sub003/svc/messaging"
	"github.com/orbsaiuk/DatesHub-sub003/svc/namecache"
	"github.com/orbsaiuk/DatesHub-sub003/svc/search"
	"github.com/orbsaiuk/DatesHub-sub003/svc/tenancy"
	"github.com/orbsaiuk/DatesHub-sub003/views"
)

type Deps struct {
	Store     directory.Store
	Lookup    *tenancy.Lookup
	Gate      *tenancy.Gate
	Messaging *messaging.Service
	Search    search.Searcher
	Indexer   search.Indexer
	Names     *namecache.Names
	Log       *slog.Logger
}

type Site struct {
	Deps
	onError handler.ErrorHandler[handler.Context]
}

func New(deps Deps) *Site {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Search == nil {
		deps.Search = search.Nop{}
	}
	if deps.Indexer == nil {
		deps.Indexer = search.Nop{}
	}
	deps.Log = deps.Log.With(logger.Component("site"))
	return &Site{
		Deps: deps,
		onError: handler.NewErrorHandler(deps.Log, handler.ErrorHandlerConfig{
			ErrorPage: views.ErrorPage,
		}),
	}
}

// Mount registers the page routes on r.
func (s *Site) Mount(r chi.Router) {
	r.Get("/robots.txt", Robots)
	r.Get("/", wrap(s, s.home))

	for _, kind := range directory.TenantKinds {
		r.Get("/"+kind.Plural(), wrap(s, s.list(kind), binder.Query()))
		r.Get("/"+kind.Plural()+"/{id}", wrap(s, s.detail(kind), pathBinder))
	}

	r.Get("/business/{kind}", wrap(s, s.dashboardHome, pathBinder))
	r.Get("/business/{kind}/{family}", wrap(s, s.dashboard, binder.Query(), pathBinder))

	r.Group(func(r chi.Router) {
		r.Use(identity.RequireSignIn)

		r.Get("/bookmarks", wrap(s, s.bookmarks))
		r.Post("/bookmarks", wrap(s, s.toggleBookmark, binder.Form()))
		r.Get("/become-a-tenant", wrap(s, s.onboarding, binder.Query()))
		r.Post("/become-a-tenant", wrap(s, s.requestTenant, binder.Form()))
		r.Get("/conversations", wrap(s, s.inbox))
		r.Post("/conversations", wrap(s, s.startConversation, binder.Form()))
		r.Get("/conversations/{id}", wrap(s, s.thread, binder.Query(), pathBinder))
		r.Post("/conversations/{id}/messages", wrap(s, s.send, binder.Form(), binder.Query(), pathBinder))
		r.Get("/conversations/{id}/stream", s.stream)
	})
}

// NotFound renders the not-found page for unmatched paths.
func (s *Site) NotFound() http.HandlerFunc {
	return wrap(s, func(handler.Context, struct{}) handler.Response {
		return handler.TemplWithStatus(http.StatusNotFound, views.NotFoundPage())
	})
}

var pathBinder = binder.Path(chi.URLParam)

func wrap[R any](s *Site, h handler.HandlerFunc[handler.Context, R], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithErrorHandler[handler.Context, R](s.onError),
	)
}

// errorFor attaches the HTTP status to domain errors.
func errorFor(err error) error {
	switch {
	case errors.Is(err, directory.ErrNotFound),
		errors.Is(err, messaging.ErrConversationNotFound),
		errors.Is(err, messaging.ErrCounterpartNotFound):
		return errors.Join(handler.ErrNotFound, err)
	case errors.Is(err, messaging.ErrNotParticipant):
		return errors.Join(handler.ErrForbidden, err)
	case errors.Is(err, messaging.ErrAmbiguousParticipant):
		return errors.Join(handler.ErrConflict, err)
	case tenancy.IsInvalidInput(err), errors.Is(err, directory.ErrInvalidInput):
		return errors.Join(handler.ErrBadRequest, err)
	}
	return err
}

// fail renders the not-found page or hands err to the error handler.
func fail(err error) handler.Response {
	if errors.Is(err, directory.ErrNotFound) || errors.Is(err, messaging.ErrConversationNotFound) {
		return handler.TemplWithStatus(http.StatusNotFound, views.NotFoundPage())
	}
	return handler.Error(errorFor(err))
}

func principal(ctx context.Context) (identity.PrincipalID, bool) {
	return identity.PrincipalFromContext(ctx)
}

// Robots serves the crawler policy.
func Robots(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write([]byte(robotsPolicy))
}

var robotsPolicy = strings.Join([]string{
	"User-agent: *",
	"Allow: /",
	"Allow: /companies",
	"Allow: /suppliers",
	"Disallow: /sign-in",
	"Disallow: /sign-out",
	"Disallow: /business",
	"Disallow: /bookmarks",
	"Disallow: /conversations",
	"Disallow: /become-a-tenant",
	"Disallow: /api",
	"Disallow: /studio",
	"Disallow: /admin",
	"",
}, "\n")
