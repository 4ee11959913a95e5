// Package api serves the JSON endpoints under /api.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orbsaiuk/DatesHub-sub003/binder"
	"github.com/orbsaiuk/DatesHub-sub003/handler"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/audit"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/clientip"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/file"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/logger"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/ratelimiter"
	"github.com/orbsaiuk/DatesHub-sub003/svc/activity"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
	"github.com/orbsaiuk/DatesHub-sub003/svc/identity"
	"github.com/orbsaiuk/DatesHub-sub003/svc/messaging"
	"github.com/orbsaiuk/DatesHub-sub003/svc/namecache"
	"github.com/orbsaiuk/DatesHub-sub003/svc/search"
	"github.com/orbsaiuk/DatesHub-sub003/svc/tenancy"
)

// Deps are the services the endpoints use. Search, Indexer, Audit,
// Activity, Files and Throttle are optional. Without Audit and Activity
// events go to an in-memory log.
type Deps struct {
	Store     directory.Store
	Lookup    *tenancy.Lookup
	Gate      *tenancy.Gate
	Messaging *messaging.Service
	Search    search.Searcher
	Indexer   search.Indexer
	Audit     *audit.Logger
	Activity  *audit.Reader
	Files     file.Storage
	Names     *namecache.Names
	// Throttle limits review and message writes per caller.
	Throttle *ratelimiter.Bucket
	// BaseURL is the public site origin, used in QR codes.
	BaseURL string
	Log     *slog.Logger
}

type API struct {
	Deps
	onError handler.ErrorHandler[handler.Context]
}

func New(deps Deps) *API {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Search == nil {
		deps.Search = search.Nop{}
	}
	if deps.Indexer == nil {
		deps.Indexer = search.Nop{}
	}
	if deps.Audit == nil || deps.Activity == nil {
		events := activity.NewMemoryStorage(0)
		deps.Audit = activity.NewLogger(events)
		deps.Activity = audit.NewReader(events)
	}
	deps.Log = deps.Log.With(logger.Component("api"))
	return &API{
		Deps:    deps,
		onError: handler.NewErrorHandler(deps.Log, handler.ErrorHandlerConfig{}),
	}
}

// Router returns the /api routes, to be mounted at /api.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/blogs", wrap(a, a.blogTitle))
	r.Get("/blogs/{id}", wrap(a, a.blogTitle, pathBinder))
	r.Get("/categories", wrap(a, a.categories, binder.Query()))
	r.Get("/offers/public", wrap(a, a.publicOffers, binder.Query()))
	r.Get("/users", wrap(a, a.user))
	r.Get("/users/{id}", wrap(a, a.user, pathBinder))
	r.Get("/reviews", wrap(a, a.reviews, binder.Query()))
	r.Get("/search", wrap(a, a.search, binder.Query()))
	r.Get("/{kind}/{id}/qrcode.png", wrap(a, a.qrcode, binder.Query(), pathBinder))

	r.Group(func(r chi.Router) {
		r.Use(identity.RequirePrincipal)

		r.Get("/bookmarks", wrap(a, a.bookmarks))
		r.Post("/bookmarks", wrap(a, a.toggleBookmark, binder.JSON()))
		r.Get("/conversations/{id}/messages", wrap(a, a.messages, binder.Query(), pathBinder))

		r.Group(func(r chi.Router) {
			r.Use(a.throttle)
			r.Post("/reviews", wrap(a, a.createReview, binder.JSON()))
			r.Post("/conversations", wrap(a, a.startUserConversation, binder.JSON()))
			r.Post("/conversations/{id}/messages", wrap(a, a.sendMessage, binder.JSON(), pathBinder))
		})
	})

	r.Route("/business/{kind}", func(r chi.Router) {
		r.Use(tenancy.RequireOwner(a.Lookup, kindParam, a.Log))

		r.Patch("/profile", wrap(a, a.updateProfile, binder.JSON()))
		r.Post("/media", wrap(a, a.uploadMedia))
		r.Post("/conversations", wrap(a, a.startBusinessConversation, binder.JSON()))
		r.Get("/activity", wrap(a, a.recentActivity, binder.Query()))
		r.Get("/{family}", wrap(a, a.listItems, binder.Query(), pathBinder))
		r.Post("/{family}", wrap(a, a.createItem, binder.JSON(), pathBinder))
		r.Patch("/{family}/{itemID}", wrap(a, a.updateItem, binder.JSON(), pathBinder))
		r.Delete("/{family}/{itemID}", wrap(a, a.deleteItem, pathBinder))
	})

	r.NotFound(wrap(a, func(handler.Context, struct{}) handler.Response {
		return handler.JSONError(handler.ErrNotFound)
	}))
	return r
}

var pathBinder = binder.Path(chi.URLParam)

// throttle applies the write limit, keyed by principal and falling back to
// the client address.
func (a *API) throttle(next http.Handler) http.Handler {
	if a.Throttle == nil {
		return next
	}
	return ratelimiter.Middleware(a.Throttle, throttleKey, a.tooManyRequests)(next)
}

func throttleKey(r *http.Request) string {
	if p, ok := identity.PrincipalFromContext(r.Context()); ok {
		return "p:" + p.String()
	}
	if ip := clientip.FromContext(r.Context()); ip != "" {
		return "ip:" + ip
	}
	return ""
}

func (a *API) tooManyRequests(w http.ResponseWriter, r *http.Request, _ ratelimiter.Result) {
	p, _ := identity.PrincipalFromContext(r.Context())
	a.Log.WarnContext(r.Context(), "write throttled", logger.PrincipalID(p.String()))
	if err := handler.JSONError(handler.ErrTooManyRequests).Render(w, r); err != nil {
		a.Log.ErrorContext(r.Context(), "render throttle response", logger.Error(err))
	}
}

func kindParam(r *http.Request) string {
	return chi.URLParam(r, "kind")
}

func wrap[R any](a *API, h handler.HandlerFunc[handler.Context, R], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithErrorHandler[handler.Context, R](a.onError),
	)
}

// fail maps domain errors to HTTP errors and hands them to the error
// handler, which logs them. Unknown errors become a generic 500.
func fail(err error) handler.Response {
	switch {
	case errors.Is(err, directory.ErrNotFound),
		errors.Is(err, messaging.ErrConversationNotFound),
		errors.Is(err, messaging.ErrCounterpartNotFound):
		return handler.Error(errors.Join(handler.ErrNotFound, err))
	case errors.Is(err, messaging.ErrNotParticipant):
		return handler.Error(errors.Join(handler.ErrForbidden, err))
	case errors.Is(err, directory.ErrConflict),
		errors.Is(err, messaging.ErrAmbiguousParticipant):
		return handler.Error(errors.Join(handler.ErrConflict, err))
	case errors.Is(err, directory.ErrInvalidInput):
		return handler.Error(errors.Join(handler.ErrBadRequest, err))
	}
	return handler.Error(err)
}

// principal is set by identity.RequirePrincipal or tenancy.RequireOwner.
func principal(ctx handler.Context) identity.PrincipalID {
	p, _ := identity.PrincipalFromContext(ctx)
	return p
}

// owner is set by tenancy.RequireOwner.
func owner(ctx handler.Context) *directory.Tenant {
	t, _ := tenancy.FromContext(ctx)
	return t
}

// record logs a write by the owning tenant. The tenant and the actor come
// from the request context.
func (a *API) record(ctx handler.Context, action string, opts ...audit.EventOption) {
	if err := a.Audit.Log(ctx, action, opts...); err != nil {
		a.Log.WarnContext(ctx, "activity not recorded",
			logger.Event(action),
			logger.Error(err),
		)
	}
}
