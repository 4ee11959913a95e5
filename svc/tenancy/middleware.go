package tenancy

import (
	"log/slog"
	"net/http"

	"github.com/orbsaiuk/DatesHub-sub003/handler"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/logger"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
	"github.com/orbsaiuk/DatesHub-sub003/svc/identity"
)

// KindFunc extracts the tenant kind from a request, e.g. a path parameter.
type KindFunc func(r *http.Request) string

// RequireOwner resolves the tenant the caller administers for the kind in
// the request and stores it in the context. APIs get status codes instead
// of redirects: 401 anonymous, 404 unknown kind, 403 no tenant.
func RequireOwner(lookup *Lookup, kindOf KindFunc, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := identity.PrincipalFromContext(r.Context())
			if !ok {
				_ = handler.JSONError(handler.ErrUnauthorized).Render(w, r)
				return
			}
			kind, ok := directory.ParseKind(kindOf(r))
			if !ok {
				_ = handler.JSONError(handler.ErrNotFound).Render(w, r)
				return
			}

			tenant, err := lookup.Membership(r.Context(), principal, kind)
			if err != nil {
				log.ErrorContext(r.Context(), "owner lookup failed",
					logger.Component("tenancy"),
					logger.Error(err),
				)
				_ = handler.JSONError(err).Render(w, r)
				return
			}
			if tenant == nil {
				_ = handler.JSONError(handler.ErrForbidden).Render(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), tenant)))
		})
	}
}
