package site

import (
	"errors"
	"net/http"

	"github.com/orbsaiuk/DatesHub-sub003/handler"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/logger"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/slug"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/validator"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
	"github.com/orbsaiuk/DatesHub-sub003/views"
)

type onboardingQuery struct {
	Type string `query:"type"`
}

// onboarding shows the tenant request form. A caller who already
// administers a tenant of the kind goes straight to the dashboard.
func (s *Site) onboarding(ctx handler.Context, req onboardingQuery) handler.Response {
	kind, ok := directory.ParseKind(req.Type)
	if !ok {
		kind = directory.KindCompany
	}
	p, _ := principal(ctx)
	t, err := s.Lookup.Membership(ctx, p, kind)
	if err != nil {
		return fail(err)
	}
	if t != nil {
		return handler.Redirect("/business/" + string(kind) + "/" + string(directory.FamilyOffers))
	}
	return handler.Templ(views.OnboardingPage(views.OnboardingData{Kind: kind}))
}

const (
	tenantIDLength   = 48
	tenantIDAttempts = 3
)

type tenantForm struct {
	Type        string `form:"type"`
	Name        string `form:"name"`
	NameAr      string `form:"nameAr"`
	City        string `form:"city"`
	Email       string `form:"email"`
	Phone       string `form:"phone"`
	Website     string `form:"website"`
	Description string `form:"description"`
}

// requestTenant files a pending tenant owned by the caller. It becomes
// visible once an administrator activates it.
func (s *Site) requestTenant(ctx handler.Context, req tenantForm) handler.Response {
	kind, _ := directory.ParseKind(req.Type)
	profile := directory.TenantProfile{
		Name:        req.Name,
		NameAr:      req.NameAr,
		City:        req.City,
		Email:       req.Email,
		Phone:       req.Phone,
		Website:     req.Website,
		Description: req.Description,
	}.Trim()

	errs := validator.ExtractValidationErrors(validator.Apply(validator.OneOf("type", kind, directory.TenantKinds)))
	errs = append(errs, validator.ExtractValidationErrors(directory.ValidateProfile(profile))...)
	if len(errs) > 0 {
		if !kind.IsTenant() {
			kind = directory.KindCompany
		}
		return handler.TemplWithStatus(http.StatusUnprocessableEntity, views.OnboardingPage(views.OnboardingData{
			Kind:   kind,
			Form:   profile,
			Errors: errs,
		}))
	}

	p, _ := principal(ctx)
	tenant := directory.Tenant{
		Kind:        kind,
		Status:      directory.TenantPending,
		Name:        profile.Name,
		NameAr:      profile.NameAr,
		Description: profile.Description,
		City:        profile.City,
		Email:       profile.Email,
		Phone:       profile.Phone,
		Website:     profile.Website,
		Owners:      []string{p.String()},
	}
	var (
		t   *directory.Tenant
		err error
	)
	for range tenantIDAttempts {
		tenant.ID = slug.Make(profile.Name, slug.MaxLength(tenantIDLength), slug.WithSuffix(6))
		t, err = s.Store.CreateTenant(ctx, tenant)
		if !errors.Is(err, directory.ErrConflict) {
			break
		}
	}
	if err != nil {
		return fail(err)
	}
	// Pending tenants stay out of search until activated.
	if err := s.Indexer.Index(ctx, *t); err != nil {
		s.Log.WarnContext(ctx, "search index not updated", logger.Tenant(string(t.Kind), t.ID), logger.Error(err))
	}
	s.Log.InfoContext(ctx, "tenant requested",
		logger.Tenant(string(t.Kind), t.ID),
		logger.PrincipalID(p.String()),
	)
	return handler.TemplWithStatus(http.StatusCreated, views.OnboardingPage(views.OnboardingData{Kind: kind, Pending: true}))
}
