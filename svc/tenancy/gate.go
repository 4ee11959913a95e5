package tenancy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/audit"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/logger"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/metrics"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
	"github.com/orbsaiuk/DatesHub-sub003/svc/identity"
)

// OnboardingPath is where principals without a tenant are sent.
const OnboardingPath = "/become-a-tenant"

// OnboardingURL builds the onboarding redirect for kind.
func OnboardingURL(kind directory.Kind) string {
	return OnboardingPath + "?type=" + url.QueryEscape(string(kind))
}

// Source is the scoped read side of the directory.
type Source interface {
	ListItems(ctx context.Context, scope directory.Scope, page directory.Page) ([]directory.Item, error)
	ItemStats(ctx context.Context, scope directory.Scope) (directory.Stats, error)
	ConversationsFor(ctx context.Context, p directory.Participant) ([]directory.Conversation, error)
}

// ActivityCounter counts audit events; *audit.Reader implements it.
// Tenants are matched by their "kind:id" ref.
type ActivityCounter interface {
	Count(ctx context.Context, criteria audit.Criteria) (int64, error)
}

type Request struct {
	Principal identity.PrincipalID
	Kind      directory.Kind
	Family    directory.Family
	// Path is the originally requested path, used as the sign-in return target.
	Path string
	Page directory.Page
}

// Outcome is either a redirect or the tenant's scoped collection.
type Outcome struct {
	Redirect      string
	Tenant        *directory.Tenant
	Items         []directory.Item
	Conversations []directory.Conversation
	Stats         directory.Stats
}

func (o Outcome) Redirected() bool {
	return o.Redirect != ""
}

type Gate struct {
	lookup   *Lookup
	source   Source
	activity ActivityCounter
	metrics  *metrics.Metrics
	log      *slog.Logger
	window   time.Duration
	now      func() time.Time
}

type GateOption func(*Gate)

// WithActivity adds the recent write count to the stats.
func WithActivity(a ActivityCounter, window time.Duration) GateOption {
	return func(g *Gate) {
		g.activity = a
		if window > 0 {
			g.window = window
		}
	}
}

func WithMetrics(m *metrics.Metrics) GateOption {
	return func(g *Gate) { g.metrics = m }
}

func WithGateLogger(log *slog.Logger) GateOption {
	return func(g *Gate) {
		if log != nil {
			g.log = log
		}
	}
}

func WithGateClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

func NewGate(lookup *Lookup, source Source, opts ...GateOption) *Gate {
	g := &Gate{
		lookup: lookup,
		source: source,
		log:    slog.Default(),
		window: 7 * 24 * time.Hour,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AuthorizeAndFetch runs the sign-in check, the membership check and the
// scoped fetch for any (kind, family) pair.
func (g *Gate) AuthorizeAndFetch(ctx context.Context, req Request) (Outcome, error) {
	if !req.Kind.IsTenant() {
		return Outcome{}, fmt.Errorf("%w: kind %q", ErrInvalidInput, req.Kind)
	}
	if _, ok := directory.ParseFamily(string(req.Family)); !ok {
		return Outcome{}, fmt.Errorf("%w: family %q", ErrInvalidInput, req.Family)
	}

	if req.Principal == "" {
		g.metrics.GateDecision(string(req.Kind), string(req.Family), "sign_in")
		return Outcome{Redirect: identity.SignInURL(req.Path)}, nil
	}

	tenant, err := g.lookup.Membership(ctx, req.Principal, req.Kind)
	if err != nil {
		return Outcome{}, err
	}
	if tenant == nil {
		g.metrics.GateDecision(string(req.Kind), string(req.Family), "onboarding")
		return Outcome{Redirect: OnboardingURL(req.Kind)}, nil
	}
	g.metrics.GateDecision(string(req.Kind), string(req.Family), "allowed")

	out := Outcome{Tenant: tenant}
	if req.Family == directory.FamilyMessages {
		convs, err := g.source.ConversationsFor(ctx, directory.Participant{Kind: tenant.Kind, ID: tenant.ID})
		if err != nil {
			return Outcome{}, fmt.Errorf("fetch conversations: %w", err)
		}
		out.Conversations = convs
		out.Stats.Total = len(convs)
	} else {
		scope := directory.Scope{Owner: tenant.Ref(), Family: req.Family}
		if out.Items, err = g.source.ListItems(ctx, scope, req.Page); err != nil {
			return Outcome{}, fmt.Errorf("fetch items: %w", err)
		}
		if out.Stats, err = g.source.ItemStats(ctx, scope); err != nil {
			return Outcome{}, fmt.Errorf("fetch stats: %w", err)
		}
	}

	if g.activity != nil {
		n, err := g.activity.Count(ctx, audit.Criteria{
			TenantID:  tenant.Ref().String(),
			StartTime: g.now().Add(-g.window),
		})
		if err != nil {
			g.log.WarnContext(ctx, "recent activity unavailable",
				logger.Component("gate"),
				logger.Tenant(string(tenant.Kind), tenant.ID),
				logger.Error(err),
			)
		} else {
			out.Stats.RecentActivity = int(n)
		}
	}
	return out, nil
}

// IsInvalidInput reports whether err came from a bad kind or family.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
