package tenancy

import (
	"context"
	"log/slog"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/logger"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
)

type contextKey struct{}

func WithTenant(ctx context.Context, t *directory.Tenant) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext returns the tenant stored by RequireOwner.
func FromContext(ctx context.Context) (*directory.Tenant, bool) {
	t, ok := ctx.Value(contextKey{}).(*directory.Tenant)
	return t, ok && t != nil
}

// LoggerExtractor adds the owning tenant to log records.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if t, ok := FromContext(ctx); ok {
			return logger.Tenant(string(t.Kind), t.ID), true
		}
		return slog.Attr{}, false
	}
}
