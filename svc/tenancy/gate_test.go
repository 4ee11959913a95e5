package tenancy_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/audit"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/metrics"
	"github.com/orbsaiuk/DatesHub-sub003/svc/activity"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory/memstore"
	"github.com/orbsaiuk/DatesHub-sub003/svc/tenancy"
)

type mockActivity struct {
	mock.Mock
}

func (m *mockActivity) Count(ctx context.Context, criteria audit.Criteria) (int64, error) {
	args := m.Called(ctx, criteria)
	return args.Get(0).(int64), args.Error(1)
}

type failingStore struct{}

func (failingStore) MembershipFor(context.Context, string, directory.Kind) (*directory.Tenant, error) {
	return nil, errors.New("connection refused")
}

func seed(t *testing.T) (*memstore.Store, *directory.Tenant, *directory.Tenant) {
	t.Helper()
	ctx := context.Background()
	s := memstore.New()

	mine, err := s.CreateTenant(ctx, directory.Tenant{Kind: directory.KindCompany, Name: "Mine", Status: directory.TenantActive, Owners: []string{"owner"}})
	require.NoError(t, err)
	other, err := s.CreateTenant(ctx, directory.Tenant{Kind: directory.KindCompany, Name: "Other", Status: directory.TenantActive, Owners: []string{"someone"}})
	require.NoError(t, err)

	for _, tenant := range []*directory.Tenant{mine, other} {
		for _, f := range []directory.Family{directory.FamilyOffers, directory.FamilyProducts, directory.FamilyBlogs} {
			_, err := s.CreateItem(ctx, directory.Item{Owner: tenant.Ref(), Family: f, Title: tenant.Name + " " + string(f)})
			require.NoError(t, err)
		}
	}
	return s, mine, other
}

func TestGateRedirectsAnonymousToSignIn(t *testing.T) {
	t.Parallel()
	s, _, _ := seed(t)
	gate := tenancy.NewGate(tenancy.NewLookup(s), s)

	for _, kind := range directory.TenantKinds {
		for _, family := range directory.Families {
			path := fmt.Sprintf("/business/%s/%s", kind, family)
			t.Run(path, func(t *testing.T) {
				out, err := gate.AuthorizeAndFetch(context.Background(), tenancy.Request{Kind: kind, Family: family, Path: path})
				require.NoError(t, err)
				assert.True(t, out.Redirected())
				assert.Equal(t, fmt.Sprintf("/sign-in?redirect_url=%%2Fbusiness%%2F%s%%2F%s", kind, family), out.Redirect)
				assert.Nil(t, out.Tenant)
			})
		}
	}
}

func TestGateRedirectsTenantlessToOnboarding(t *testing.T) {
	t.Parallel()
	s, _, _ := seed(t)
	gate := tenancy.NewGate(tenancy.NewLookup(s), s)

	for _, kind := range directory.TenantKinds {
		for _, family := range directory.Families {
			out, err := gate.AuthorizeAndFetch(context.Background(), tenancy.Request{
				Principal: "newcomer",
				Kind:      kind,
				Family:    family,
				Path:      "/business/x",
			})
			require.NoError(t, err)
			assert.Equal(t, "/become-a-tenant?type="+string(kind), out.Redirect)
		}
	}

	// An owner of a company has no supplier membership.
	out, err := gate.AuthorizeAndFetch(context.Background(), tenancy.Request{
		Principal: "owner",
		Kind:      directory.KindSupplier,
		Family:    directory.FamilyOffers,
	})
	require.NoError(t, err)
	assert.Equal(t, "/become-a-tenant?type=supplier", out.Redirect)
}

func TestGateFetchesOnlyOwnItems(t *testing.T) {
	t.Parallel()
	s, mine, _ := seed(t)
	m := metrics.New("test")
	gate := tenancy.NewGate(tenancy.NewLookup(s), s, tenancy.WithMetrics(m))

	for _, family := range []directory.Family{directory.FamilyOffers, directory.FamilyProducts, directory.FamilyBlogs} {
		out, err := gate.AuthorizeAndFetch(context.Background(), tenancy.Request{
			Principal: "owner",
			Kind:      directory.KindCompany,
			Family:    family,
		})
		require.NoError(t, err)
		require.False(t, out.Redirected())
		assert.Equal(t, mine.ID, out.Tenant.ID)
		require.Len(t, out.Items, 1)
		assert.Equal(t, mine.Ref(), out.Items[0].Owner)
		assert.Equal(t, family, out.Items[0].Family)
		assert.Equal(t, 1, out.Stats.Total)
	}
}

func TestGateMessagesListsConversations(t *testing.T) {
	t.Parallel()
	s, mine, _ := seed(t)
	ctx := context.Background()

	_, err := s.FindOrCreateConversation(ctx,
		directory.Participant{Kind: directory.KindUser, ID: "u1"},
		directory.Participant{Kind: mine.Kind, ID: mine.ID},
	)
	require.NoError(t, err)

	gate := tenancy.NewGate(tenancy.NewLookup(s), s)
	out, err := gate.AuthorizeAndFetch(ctx, tenancy.Request{Principal: "owner", Kind: directory.KindCompany, Family: directory.FamilyMessages})
	require.NoError(t, err)
	assert.Len(t, out.Conversations, 1)
	assert.Empty(t, out.Items)
	assert.Equal(t, 1, out.Stats.Total)
}

func TestGateAddsRecentActivity(t *testing.T) {
	t.Parallel()
	s, mine, _ := seed(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	counter := &mockActivity{}
	counter.On("Count", mock.Anything, audit.Criteria{
		TenantID:  "company:" + mine.ID,
		StartTime: now.Add(-24 * time.Hour),
	}).Return(int64(4), nil).Once()

	gate := tenancy.NewGate(tenancy.NewLookup(s), s,
		tenancy.WithActivity(counter, 24*time.Hour),
		tenancy.WithGateClock(func() time.Time { return now }),
	)
	out, err := gate.AuthorizeAndFetch(context.Background(), tenancy.Request{Principal: "owner", Kind: directory.KindCompany, Family: directory.FamilyOffers})
	require.NoError(t, err)
	assert.Equal(t, 4, out.Stats.RecentActivity)
	counter.AssertExpectations(t)
}

func TestGateCountsAuditEventsInWindow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, mine, other := seed(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	events := activity.NewMemoryStorage(0)
	require.NoError(t, events.Store(ctx,
		audit.Event{ID: "1", TenantID: activity.TenantID(mine.Ref()), UserID: "owner", Action: activity.ItemCreated, CreatedAt: now.Add(-time.Hour)},
		audit.Event{ID: "2", TenantID: activity.TenantID(mine.Ref()), UserID: "owner", Action: activity.ItemUpdated, CreatedAt: now.Add(-2 * time.Hour)},
		audit.Event{ID: "3", TenantID: activity.TenantID(mine.Ref()), UserID: "owner", Action: activity.ItemDeleted, CreatedAt: now.Add(-48 * time.Hour)},
		audit.Event{ID: "4", TenantID: activity.TenantID(other.Ref()), UserID: "other", Action: activity.ItemCreated, CreatedAt: now.Add(-time.Hour)},
	))

	gate := tenancy.NewGate(tenancy.NewLookup(s), s,
		tenancy.WithActivity(audit.NewReader(events), 24*time.Hour),
		tenancy.WithGateClock(func() time.Time { return now }),
	)
	out, err := gate.AuthorizeAndFetch(ctx, tenancy.Request{Principal: "owner", Kind: directory.KindCompany, Family: directory.FamilyOffers})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Stats.RecentActivity)
}

func TestGateIgnoresActivityFailure(t *testing.T) {
	t.Parallel()
	s, _, _ := seed(t)

	counter := &mockActivity{}
	counter.On("Count", mock.Anything, mock.Anything).Return(int64(0), errors.New("pg down"))

	gate := tenancy.NewGate(tenancy.NewLookup(s), s, tenancy.WithActivity(counter, time.Hour))
	out, err := gate.AuthorizeAndFetch(context.Background(), tenancy.Request{Principal: "owner", Kind: directory.KindCompany, Family: directory.FamilyBlogs})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Stats.RecentActivity)
	assert.Len(t, out.Items, 1)
}

func TestGateRejectsInvalidInput(t *testing.T) {
	t.Parallel()
	s, _, _ := seed(t)
	gate := tenancy.NewGate(tenancy.NewLookup(s), s)

	_, err := gate.AuthorizeAndFetch(context.Background(), tenancy.Request{Kind: "shop", Family: directory.FamilyOffers})
	assert.True(t, tenancy.IsInvalidInput(err))

	_, err = gate.AuthorizeAndFetch(context.Background(), tenancy.Request{Kind: directory.KindCompany, Family: "reviews"})
	assert.True(t, tenancy.IsInvalidInput(err))
}

func TestLookupMembership(t *testing.T) {
	t.Parallel()
	s, mine, _ := seed(t)
	lookup := tenancy.NewLookup(s)
	ctx := context.Background()

	got, err := lookup.Membership(ctx, "owner", directory.KindCompany)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	got, err = lookup.Membership(ctx, "nobody", directory.KindCompany)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = lookup.Membership(ctx, "", directory.KindCompany)
	assert.ErrorIs(t, err, tenancy.ErrInvalidInput)

	_, err = lookup.Membership(ctx, "owner", directory.KindUser)
	assert.ErrorIs(t, err, tenancy.ErrInvalidInput)

	_, err = tenancy.NewLookup(failingStore{}).Membership(ctx, "owner", directory.KindCompany)
	assert.ErrorIs(t, err, tenancy.ErrLookupFailed)
}
