package views

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/i18n"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/validator"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
	"github.com/orbsaiuk/DatesHub-sub003/svc/tenancy"
)

type DashboardData struct {
	Kind    directory.Kind
	Family  directory.Family
	Outcome tenancy.Outcome
}

// DashboardPage lists one family of the signed-in tenant's resources.
func DashboardPage(data DashboardData) templ.Component {
	return component(func(p *page) {
		out := data.Outcome
		locale := i18n.GetLocale(p.ctx)
		title := i18n.T(p.ctx, "families."+string(data.Family))
		crumbs := []Crumb{
			{Label: out.Tenant.DisplayName(locale), URL: "/" + data.Kind.Plural() + "/" + out.Tenant.ID},
			{Label: title},
		}

		p.render(Layout(title, crumbs, component(func(p *page) {
			p.raw(`<nav class="tabs">`)
			for _, f := range directory.Families {
				current := ""
				if f == data.Family {
					current = ` aria-current="page"`
				}
				p.tag(`<a href="/business/%s/%s"`, data.Kind, f)
				p.raw(current)
				p.tag(`>%s</a> `, i18n.T(p.ctx, "families."+string(f)))
			}
			p.raw(`</nav>`)

			p.raw(`<section class="stats"><dl>`)
			for _, s := range []struct {
				key   string
				value int
			}{
				{"dashboard.total", out.Stats.Total},
				{"dashboard.published", out.Stats.Published},
				{"dashboard.drafts", out.Stats.Drafts},
				{"dashboard.archived", out.Stats.Archived},
				{"dashboard.recent_activity", out.Stats.RecentActivity},
			} {
				if data.Family == directory.FamilyMessages && s.key != "dashboard.total" {
					continue
				}
				p.tag(`<dt>%s</dt><dd>%s</dd>`, i18n.T(p.ctx, s.key), strconv.Itoa(s.value))
			}
			p.raw(`</dl></section>`)

			if data.Family == directory.FamilyMessages {
				me := directory.Participant{Kind: out.Tenant.Kind, ID: out.Tenant.ID}
				p.render(ConversationList(out.Conversations, me))
				return
			}

			if len(out.Items) == 0 {
				p.raw(`<p class="empty">`)
				p.t("common.empty")
				p.raw(`</p>`)
				return
			}
			p.raw(`<table><thead><tr>`)
			for _, h := range []string{"dashboard.title", "dashboard.status", "dashboard.updated"} {
				p.tag(`<th>%s</th>`, i18n.T(p.ctx, h))
			}
			p.raw(`</tr></thead><tbody>`)
			for _, it := range out.Items {
				p.tag(`<tr id="item-%s"><td>%s</td><td>%s</td><td><time datetime="%s">%s</time></td></tr>`,
					it.ID, it.Title, i18n.T(p.ctx, "status."+string(it.Status)),
					it.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"), it.UpdatedAt.Format("2006-01-02"))
			}
			p.raw(`</tbody></table>`)
		})))
	})
}

type OnboardingData struct {
	Kind    directory.Kind
	Form    directory.TenantProfile
	Errors  validator.ValidationErrors
	Pending bool
}

// OnboardingPage is the "become a tenant" request form.
func OnboardingPage(data OnboardingData) templ.Component {
	return component(func(p *page) {
		title := i18n.T(p.ctx, "onboarding.title")
		p.render(Layout(title, nil, component(func(p *page) {
			p.tag(`<h1>%s</h1>`, title)
			if data.Pending {
				p.raw(`<p class="notice">`)
				p.t("onboarding.pending")
				p.raw(`</p>`)
				return
			}
			p.raw(`<p>`)
			p.t("onboarding.intro")
			p.raw(`</p><form method="post" action="/become-a-tenant"><label>`)
			p.t("onboarding.type")
			p.raw(`<select name="type">`)
			for _, k := range directory.TenantKinds {
				selected := ""
				if k == data.Kind {
					selected = " selected"
				}
				p.tag(`<option value="%s"`, k)
				p.raw(selected)
				p.tag(`>%s</option>`, i18n.T(p.ctx, "kinds."+string(k)))
			}
			p.raw(`</select></label>`)
			for _, f := range []struct{ name, key, value string }{
				{"name", "onboarding.name", data.Form.Name},
				{"nameAr", "onboarding.name_ar", data.Form.NameAr},
				{"city", "detail.city", data.Form.City},
				{"email", "detail.email", data.Form.Email},
				{"phone", "detail.phone", data.Form.Phone},
				{"website", "detail.website", data.Form.Website},
			} {
				p.tag(`<label>%s<input name="%s" value="%s"></label>`, i18n.T(p.ctx, f.key), f.name, f.value)
				p.render(fieldErrors(data.Errors, f.name))
			}
			p.tag(`<label>%s<textarea name="description">%s</textarea></label>`, i18n.T(p.ctx, "onboarding.description"), data.Form.Description)
			p.raw(`<button type="submit">`)
			p.t("onboarding.submit")
			p.raw(`</button></form>`)
		})))
	})
}

func fieldErrors(errs validator.ValidationErrors, field string) templ.Component {
	return component(func(p *page) {
		for _, e := range errs {
			if e.Field != field {
				continue
			}
			msg := i18n.T(p.ctx, e.TranslationKey, e.TranslationArgs()...)
			if msg == e.TranslationKey {
				msg = e.Message
			}
			p.tag(`<p class="field-error">%s</p>`, msg)
		}
	})
}
