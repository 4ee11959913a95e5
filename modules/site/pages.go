package site

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strings"

	"github.com/orbsaiuk/DatesHub-sub003/handler"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/async"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/i18n"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/logger"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
	"github.com/orbsaiuk/DatesHub-sub003/svc/tenancy"
	"github.com/orbsaiuk/DatesHub-sub003/views"
)

func (s *Site) home(ctx handler.Context, _ struct{}) handler.Response {
	cats := async.Go(ctx, directory.Kind(""), s.Store.Categories)
	offers := async.Go(ctx, directory.KindCompany, s.Store.PublicOffers)

	data := views.HomeData{}
	var err error
	if data.Categories, err = cats.Await(); err != nil {
		s.Log.WarnContext(ctx, "categories unavailable", logger.Error(err))
	}
	if data.Offers, err = offers.Await(); err != nil {
		return fail(err)
	}
	return handler.Templ(views.HomePage(data))
}

type listQuery struct {
	Q        string `query:"q"`
	Category string `query:"category"`
	City     string `query:"city"`
	Offset   int    `query:"offset"`
}

const searchPageSize = 50

func (s *Site) list(kind directory.Kind) handler.HandlerFunc[handler.Context, listQuery] {
	return func(ctx handler.Context, req listQuery) handler.Response {
		page := directory.Page{Offset: req.Offset}.Normalize()
		data := views.ListData{
			Kind:  kind,
			Page:  page,
			Query: ctx.Request().URL.Query(),
		}

		cats, err := s.Store.Categories(ctx, kind)
		if err != nil {
			s.Log.WarnContext(ctx, "categories unavailable", logger.Error(err))
		}
		data.Categories = cats

		if q := strings.TrimSpace(req.Q); q != "" {
			hits, err := s.Search.Search(ctx, q, kind, searchPageSize)
			if err != nil {
				return fail(err)
			}
			for _, h := range hits {
				data.Tenants = append(data.Tenants, directory.Tenant{
					ID: h.ID, Kind: h.Kind, Name: h.Name, NameAr: h.NameAr, City: h.City,
				})
			}
			data.Total = len(data.Tenants)
			data.Page = directory.Page{Limit: searchPageSize}
			return handler.Templ(views.TenantListPage(data))
		}

		data.Tenants, data.Total, err = s.Store.ListTenants(ctx, kind, directory.TenantFilter{
			Category: strings.TrimSpace(req.Category),
			City:     strings.TrimSpace(req.City),
		}, page)
		if err != nil {
			return fail(err)
		}
		return handler.Templ(views.TenantListPage(data))
	}
}

type idParam struct {
	ID string `path:"id"`
}

func (s *Site) detail(kind directory.Kind) handler.HandlerFunc[handler.Context, idParam] {
	return func(ctx handler.Context, req idParam) handler.Response {
		t, err := s.Store.TenantByID(ctx, kind, req.ID)
		if err != nil {
			return fail(err)
		}
		if s.Names != nil {
			s.Names.Remember(ctx, *t)
		}

		fetch := func(f directory.Family) *async.Future[[]directory.Item] {
			scope := directory.Scope{Owner: t.Ref(), Family: f, Status: directory.ItemPublished}
			return async.Go(ctx, scope,
				func(ctx context.Context, scope directory.Scope) ([]directory.Item, error) {
					return s.Store.ListItems(ctx, scope, directory.Page{Limit: directory.MaxPageLimit})
				})
		}
		families, err := async.WaitAll(
			fetch(directory.FamilyOffers),
			fetch(directory.FamilyProducts),
			fetch(directory.FamilyBlogs),
		)
		if err != nil {
			return fail(err)
		}

		data := views.DetailData{
			Tenant:   t,
			Offers:   families[0],
			Products: families[1],
			Blogs:    families[2],
			Crumbs:   s.crumbs(ctx, kind, t.ID),
		}
		data.Reviews, data.ReviewTotal, err = s.Store.Reviews(ctx, t.Ref(), directory.Page{Limit: directory.DefaultPageLimit})
		if err != nil {
			return fail(err)
		}

		if p, ok := principal(ctx); ok {
			data.SignedIn = true
			ids, err := s.Store.Bookmarks(ctx, p.String())
			if err != nil {
				s.Log.WarnContext(ctx, "bookmarks unavailable", logger.PrincipalID(p.String()), logger.Error(err))
			}
			data.Bookmarked = slices.Contains(ids, t.ID)
		}
		return handler.Templ(views.TenantDetailPage(data))
	}
}

// crumbs builds Home / Companies / <name>, with the name from the cache.
func (s *Site) crumbs(ctx context.Context, kind directory.Kind, id string) []views.Crumb {
	name := id
	if s.Names != nil {
		name = s.Names.Tenant(ctx, kind, id)
	}
	return []views.Crumb{
		{Label: i18n.T(ctx, "nav.home"), URL: "/"},
		{Label: i18n.T(ctx, "nav."+kind.Plural()), URL: "/" + kind.Plural()},
		{Label: name},
	}
}

func (s *Site) bookmarks(ctx handler.Context, _ struct{}) handler.Response {
	p, _ := principal(ctx)
	ids, err := s.Store.Bookmarks(ctx, p.String())
	if err != nil {
		return fail(err)
	}

	tenants := make([]directory.Tenant, 0, len(ids))
	for _, id := range ids {
		for _, kind := range directory.TenantKinds {
			t, err := s.Store.TenantByID(ctx, kind, id)
			if errors.Is(err, directory.ErrNotFound) {
				continue
			}
			if err != nil {
				return fail(err)
			}
			tenants = append(tenants, *t)
			break
		}
	}
	return handler.Templ(views.BookmarksPage(tenants))
}

type bookmarkForm struct {
	Type string `form:"type"`
	ID   string `form:"id"`
}

func (s *Site) toggleBookmark(ctx handler.Context, req bookmarkForm) handler.Response {
	kind, ok := directory.ParseKind(req.Type)
	if !ok {
		return handler.Error(handler.ErrBadRequest)
	}
	t, err := s.Store.TenantByID(ctx, kind, strings.TrimSpace(req.ID))
	if err != nil {
		return fail(err)
	}
	p, _ := principal(ctx)
	if _, err := s.Store.ToggleBookmark(ctx, p.String(), t.Ref()); err != nil {
		return fail(err)
	}
	return handler.Redirect("/" + kind.Plural() + "/" + url.PathEscape(t.ID))
}

type dashboardParams struct {
	Kind   string `path:"kind"`
	Family string `path:"family"`
	Offset int    `query:"offset"`
}

func (s *Site) dashboardHome(_ handler.Context, req dashboardParams) handler.Response {
	kind, ok := directory.ParseKind(req.Kind)
	if !ok {
		return fail(directory.ErrNotFound)
	}
	return handler.Redirect("/business/" + string(kind) + "/" + string(directory.FamilyOffers))
}

// dashboard renders one family of the caller's tenant, or redirects to
// sign-in or onboarding.
func (s *Site) dashboard(ctx handler.Context, req dashboardParams) handler.Response {
	kind, _ := directory.ParseKind(req.Kind)
	family, _ := directory.ParseFamily(req.Family)
	p, _ := principal(ctx)

	out, err := s.Gate.AuthorizeAndFetch(ctx, tenancy.Request{
		Principal: p,
		Kind:      kind,
		Family:    family,
		Path:      ctx.Request().URL.RequestURI(),
		Page:      directory.Page{Offset: req.Offset},
	})
	switch {
	case tenancy.IsInvalidInput(err):
		return fail(directory.ErrNotFound)
	case err != nil:
		return fail(err)
	case out.Redirected():
		return handler.Redirect(out.Redirect)
	}
	return handler.Templ(views.DashboardPage(views.DashboardData{Kind: kind, Family: family, Outcome: out}))
}
