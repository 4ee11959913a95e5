package views

import (
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/i18n"
	"github.com/orbsaiuk/DatesHub-sub003/svc/identity"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

// Crumb is one breadcrumb link. The last crumb is rendered without a link.
type Crumb struct {
	Label string
	URL   string
}

// Layout wraps body in the document shell for the request locale.
func Layout(title string, crumbs []Crumb, body templ.Component) templ.Component {
	return component(func(p *page) {
		locale := i18n.GetLocale(p.ctx)
		p.raw("<!doctype html>")
		p.tag(`<html lang="%s" dir="%s">`, locale, i18n.Dir(locale))
		p.raw(`<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw("<title>")
		if title != "" {
			p.text(title + " · ")
		}
		p.t("site.name")
		p.raw("</title>")
		p.tag(`<script type="module" src="%s"></script>`, datastarScript)
		p.raw("</head><body>")
		p.render(nav())
		p.render(breadcrumbs(crumbs))
		p.raw(`<main id="main">`)
		p.render(body)
		p.raw("</main></body></html>")
	})
}

func nav() templ.Component {
	return component(func(p *page) {
		_, signedIn := identity.PrincipalFromContext(p.ctx)
		p.raw(`<header><nav>`)
		p.raw(`<a href="/">`)
		p.t("nav.home")
		p.raw(`</a> <a href="/companies">`)
		p.t("nav.companies")
		p.raw(`</a> <a href="/suppliers">`)
		p.t("nav.suppliers")
		p.raw(`</a> `)
		if signedIn {
			p.raw(`<a href="/bookmarks">`)
			p.t("nav.bookmarks")
			p.raw(`</a> <a href="/business/company/offers">`)
			p.t("nav.dashboard")
			p.raw(`</a> <form method="post" action="/sign-out" class="inline"><button type="submit">`)
			p.t("nav.sign_out")
			p.raw(`</button></form>`)
		} else {
			p.raw(`<a href="/sign-in">`)
			p.t("nav.sign_in")
			p.raw(`</a>`)
		}
		other := "en"
		if i18n.GetLocale(p.ctx) == "en" {
			other = "ar"
		}
		p.tag(` <a href="?lang=%s" hreflang="%s">`, other, other)
		p.t("nav.switch_language")
		p.raw(`</a></nav></header>`)
	})
}

func breadcrumbs(crumbs []Crumb) templ.Component {
	return component(func(p *page) {
		if len(crumbs) == 0 {
			return
		}
		p.raw(`<nav aria-label="breadcrumb"><ol class="breadcrumb">`)
		for i, c := range crumbs {
			if i == len(crumbs)-1 || c.URL == "" {
				p.tag(`<li aria-current="page">%s</li>`, c.Label)
				continue
			}
			p.tag(`<li><a href="%s">%s</a></li>`, c.URL, c.Label)
		}
		p.raw(`</ol></nav>`)
	})
}

// pageLink keeps the current query and replaces offset.
func pageLink(base string, query url.Values, offset int) string {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("offset", strconv.Itoa(offset))
	return base + "?" + q.Encode()
}
