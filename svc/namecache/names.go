package namecache

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/i18n"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/logger"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/metrics"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
)

// TenantSource loads tenants on a cache miss.
type TenantSource interface {
	TenantByID(ctx context.Context, kind directory.Kind, id string) (*directory.Tenant, error)
}

// Names resolves breadcrumb labels through a Cache.
type Names struct {
	cache   Cache
	tenants TenantSource
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewNames(c Cache, tenants TenantSource, m *metrics.Metrics, log *slog.Logger) *Names {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Names{cache: c, tenants: tenants, metrics: m, log: log.With(logger.Component("namecache"))}
}

// Key is the cache key of a tenant name in one locale.
func Key(kind directory.Kind, id, locale string) string {
	return string(kind) + ":" + id + ":" + locale
}

// Tenant returns the tenant's display name in the request locale. It falls
// back to the id when the tenant cannot be loaded.
func (n *Names) Tenant(ctx context.Context, kind directory.Kind, id string) string {
	locale := i18n.GetLocale(ctx)
	key := Key(kind, id, locale)
	if name, ok := n.cache.Get(ctx, key); ok {
		n.metrics.CacheLookup(true)
		return name
	}
	n.metrics.CacheLookup(false)

	t, err := n.tenants.TenantByID(ctx, kind, id)
	if err != nil {
		n.log.DebugContext(ctx, "breadcrumb name unavailable",
			slog.String("kind", string(kind)), slog.String("id", id), logger.Error(err))
		return id
	}
	name := t.DisplayName(locale)
	n.cache.Set(ctx, key, name)
	return name
}

// Remember stores names already at hand, e.g. after rendering a listing.
func (n *Names) Remember(ctx context.Context, t directory.Tenant) {
	for _, locale := range []string{"ar", "en"} {
		n.cache.Set(ctx, Key(t.Kind, t.ID, locale), t.DisplayName(locale))
	}
}

// Forget drops a tenant's names after its profile changed.
func (n *Names) Forget(ctx context.Context, ref directory.TenantRef) {
	for _, locale := range []string{"ar", "en"} {
		n.cache.Delete(ctx, Key(ref.Kind, ref.ID, locale))
	}
}

type ctxKey struct{}

func WithNames(ctx context.Context, n *Names) context.Context {
	return context.WithValue(ctx, ctxKey{}, n)
}

// FromContext returns nil when no Names was installed.
func FromContext(ctx context.Context) *Names {
	n, _ := ctx.Value(ctxKey{}).(*Names)
	return n
}

// Middleware makes n available to views rendered for the request.
func Middleware(n *Names) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithNames(r.Context(), n)))
		})
	}
}
