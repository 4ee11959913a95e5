package views

import (
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/orbsaiuk/DatesHub-sub003/handler"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/i18n"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
)

// ErrorPage is the full-page error view used by the error handler.
func ErrorPage(params handler.ErrorPageParams) templ.Component {
	body := component(func(p *page) {
		p.tag(`<section class="error"><h1>%s</h1><p>%s</p>`, params.StatusCode, params.Error)
		if params.RequestID != "" {
			p.tag(`<p class="muted"><small>%s</small></p>`, params.RequestID)
		}
		p.raw(`<p><a href="/">`)
		p.t("nav.home")
		p.raw(`</a></p></section>`)
	})
	return Layout(params.Error, nil, body)
}

// NotFoundPage is shown for unknown tenants and pages.
func NotFoundPage() templ.Component {
	return component(func(p *page) {
		title := i18n.T(p.ctx, "errors.not_found")
		p.render(Layout(title, nil, component(func(p *page) {
			p.tag(`<section class="error"><h1>%s</h1><p><a href="/">`, title)
			p.t("nav.home")
			p.raw(`</a></p></section>`)
		})))
	})
}

type HomeData struct {
	Categories []directory.Category
	Offers     []directory.Item
}

func HomePage(data HomeData) templ.Component {
	return component(func(p *page) {
		locale := i18n.GetLocale(p.ctx)
		p.render(Layout("", nil, component(func(p *page) {
			p.raw(`<section class="hero"><h1>`)
			p.t("home.title")
			p.raw(`</h1><p>`)
			p.t("home.subtitle")
			p.raw(`</p><form action="/companies" method="get"><input type="search" name="q" aria-label="search"><button type="submit">`)
			p.t("home.search")
			p.raw(`</button></form></section>`)

			if len(data.Categories) > 0 {
				p.raw(`<section><h2>`)
				p.t("home.categories")
				p.raw(`</h2><ul class="categories">`)
				for _, c := range data.Categories {
					p.tag(`<li><a href="/%s?category=%s">%s</a></li>`, c.Kind.Plural(), c.Code, c.Name(locale))
				}
				p.raw(`</ul></section>`)
			}

			p.raw(`<section><h2>`)
			p.t("home.offers")
			p.raw(`</h2>`)
			p.render(itemCards(data.Offers))
			p.raw(`</section>`)
		})))
	})
}

func itemCards(items []directory.Item) templ.Component {
	return component(func(p *page) {
		if len(items) == 0 {
			p.raw(`<p class="empty">`)
			p.t("common.empty")
			p.raw(`</p>`)
			return
		}
		p.raw(`<ul class="cards">`)
		for _, it := range items {
			p.raw(`<li class="card">`)
			if it.ImageURL != "" {
				p.tag(`<img src="%s" alt="%s" loading="lazy">`, safeURL(it.ImageURL), it.Title)
			}
			p.tag(`<h3>%s</h3>`, it.Title)
			if it.Price > 0 {
				p.tag(`<p class="price">%s</p>`, strconv.FormatFloat(it.Price, 'f', 2, 64))
			}
			if it.Content != "" {
				p.tag(`<p>%s</p>`, it.Content)
			}
			p.tag(`<a href="/%s/%s">`, it.Owner.Kind.Plural(), it.Owner.ID)
			p.t("common.view_tenant")
			p.raw(`</a></li>`)
		}
		p.raw(`</ul>`)
	})
}

type ListData struct {
	Kind       directory.Kind
	Tenants    []directory.Tenant
	Total      int
	Page       directory.Page
	Query      url.Values
	Categories []directory.Category
}

func TenantListPage(data ListData) templ.Component {
	return component(func(p *page) {
		locale := i18n.GetLocale(p.ctx)
		title := i18n.T(p.ctx, "nav."+data.Kind.Plural())
		crumbs := []Crumb{{Label: i18n.T(p.ctx, "nav.home"), URL: "/"}, {Label: title}}
		base := "/" + data.Kind.Plural()

		p.render(Layout(title, crumbs, component(func(p *page) {
			p.tag(`<h1>%s</h1>`, title)
			p.tag(`<form method="get" action="%s" class="filters">`, base)
			p.tag(`<input type="search" name="q" value="%s">`, data.Query.Get("q"))
			p.raw(`<select name="category"><option value="">`)
			p.t("list.all_categories")
			p.raw(`</option>`)
			for _, c := range data.Categories {
				selected := ""
				if c.Code == data.Query.Get("category") {
					selected = " selected"
				}
				p.tag(`<option value="%s"`, c.Code)
				p.raw(selected)
				p.tag(`>%s</option>`, c.Name(locale))
			}
			p.raw(`</select>`)
			p.tag(`<input type="text" name="city" value="%s" placeholder="%s">`, data.Query.Get("city"), i18n.T(p.ctx, "list.city"))
			p.raw(`<button type="submit">`)
			p.t("list.filter")
			p.raw(`</button></form>`)

			if len(data.Tenants) == 0 {
				p.raw(`<p class="empty">`)
				p.t("common.empty")
				p.raw(`</p>`)
				return
			}
			p.raw(`<ul class="tenants">`)
			for _, t := range data.Tenants {
				p.raw(`<li>`)
				if t.LogoURL != "" {
					p.tag(`<img src="%s" alt="" width="48" height="48">`, safeURL(t.LogoURL))
				}
				p.tag(`<a href="%s/%s">%s</a>`, base, t.ID, t.DisplayName(locale))
				if t.City != "" {
					p.tag(` <span class="city">%s</span>`, t.City)
				}
				p.raw(`</li>`)
			}
			p.raw(`</ul>`)

			pg := data.Page.Normalize()
			p.raw(`<nav class="pager">`)
			if pg.Offset > 0 {
				p.tag(`<a rel="prev" href="%s">`, pageLink(base, data.Query, max(pg.Offset-pg.Limit, 0)))
				p.t("list.prev")
				p.raw(`</a> `)
			}
			if pg.Offset+pg.Limit < data.Total {
				p.tag(`<a rel="next" href="%s">`, pageLink(base, data.Query, pg.Offset+pg.Limit))
				p.t("list.next")
				p.raw(`</a>`)
			}
			p.raw(`</nav>`)
		})))
	})
}

type DetailData struct {
	Tenant      *directory.Tenant
	Crumbs      []Crumb
	Offers      []directory.Item
	Products    []directory.Item
	Blogs       []directory.Item
	Reviews     []directory.Review
	ReviewTotal int
	SignedIn    bool
	Bookmarked  bool
}

func TenantDetailPage(data DetailData) templ.Component {
	return component(func(p *page) {
		t := data.Tenant
		locale := i18n.GetLocale(p.ctx)
		name := t.DisplayName(locale)

		p.render(Layout(name, data.Crumbs, component(func(p *page) {
			p.raw(`<article class="tenant">`)
			if t.LogoURL != "" {
				p.tag(`<img src="%s" alt="" width="96" height="96">`, safeURL(t.LogoURL))
			}
			p.tag(`<h1>%s</h1>`, name)
			if t.Description != "" {
				p.tag(`<p>%s</p>`, t.Description)
			}
			p.raw(`<dl>`)
			for _, f := range []struct{ key, value string }{
				{"detail.city", t.City},
				{"detail.phone", t.Phone},
				{"detail.email", t.Email},
			} {
				if f.value == "" {
					continue
				}
				p.tag(`<dt>%s</dt><dd>%s</dd>`, i18n.T(p.ctx, f.key), f.value)
			}
			if t.Website != "" {
				p.tag(`<dt>%s</dt><dd><a href="%s" rel="nofollow noopener">%s</a></dd>`, i18n.T(p.ctx, "detail.website"), safeURL(t.Website), t.Website)
			}
			p.raw(`</dl>`)
			p.tag(`<img class="qrcode" src="/api/%s/%s/qrcode.png" alt="QR" width="128" height="128">`, t.Kind, t.ID)

			if data.SignedIn {
				label := "detail.bookmark"
				if data.Bookmarked {
					label = "detail.unbookmark"
				}
				p.tag(`<form method="post" action="/bookmarks"><input type="hidden" name="type" value="%s"><input type="hidden" name="id" value="%s"><button type="submit">%s</button></form>`,
					t.Kind, t.ID, i18n.T(p.ctx, label))
				if t.Kind == directory.KindCompany {
					p.tag(`<form method="post" action="/conversations"><input type="hidden" name="tenantId" value="%s"><button type="submit">%s</button></form>`,
						t.ID, i18n.T(p.ctx, "detail.contact"))
				}
			}
			p.raw(`</article>`)

			for _, sec := range []struct {
				key   string
				items []directory.Item
			}{
				{"families.offers", data.Offers},
				{"families.products", data.Products},
				{"families.blogs", data.Blogs},
			} {
				p.tag(`<section><h2>%s</h2>`, i18n.T(p.ctx, sec.key))
				p.render(itemCards(sec.items))
				p.raw(`</section>`)
			}

			p.tag(`<section id="reviews"><h2>%s (%s)</h2>`, i18n.T(p.ctx, "detail.reviews"), data.ReviewTotal)
			for _, r := range data.Reviews {
				p.tag(`<blockquote><p><strong>%s</strong> · %s/5</p><p>%s</p><footer>%s</footer></blockquote>`,
					r.Title, r.Rating, r.Content, r.AuthorName)
			}
			p.raw(`</section>`)
		})))
	})
}

func BookmarksPage(tenants []directory.Tenant) templ.Component {
	return component(func(p *page) {
		locale := i18n.GetLocale(p.ctx)
		title := i18n.T(p.ctx, "nav.bookmarks")
		p.render(Layout(title, nil, component(func(p *page) {
			p.tag(`<h1>%s</h1>`, title)
			if len(tenants) == 0 {
				p.raw(`<p class="empty">`)
				p.t("common.empty")
				p.raw(`</p>`)
				return
			}
			p.raw(`<ul class="tenants">`)
			for _, t := range tenants {
				p.tag(`<li><a href="/%s/%s">%s</a></li>`, t.Kind.Plural(), t.ID, t.DisplayName(locale))
			}
			p.raw(`</ul>`)
		})))
	})
}
