package directory

import (
	"github.com/orbsaiuk/DatesHub-sub003/pkg/sanitizer"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/validator"
)

const (
	MaxNameLength        = 120
	MaxDescriptionLength = 2000
	MaxTitleLength       = 200
	MaxContentLength     = 20000
)

// ItemStatuses lists the statuses an owner may set.
var ItemStatuses = []ItemStatus{ItemDraft, ItemPublished, ItemArchived}

// Trim normalizes every field: single-line fields are collapsed, the
// description keeps its line breaks, contact fields are canonicalized.
func (p TenantProfile) Trim() TenantProfile {
	for _, f := range []*string{&p.Name, &p.NameAr, &p.CategoryCode, &p.City, &p.LogoURL} {
		*f = sanitizer.Line(*f)
	}
	p.Description = sanitizer.Text(p.Description)
	p.Email = sanitizer.Email(p.Email)
	p.Phone = sanitizer.Phone(p.Phone)
	p.Website = sanitizer.URL(p.Website)
	return p
}

// ValidateProfile checks a trimmed profile. Only the name is required.
func ValidateProfile(p TenantProfile) error {
	rules := []validator.Rule{
		validator.RequiredString("name", p.Name),
		validator.MaxRunes("name", p.Name, MaxNameLength),
		validator.MaxRunes("nameAr", p.NameAr, MaxNameLength),
		validator.MaxRunes("description", p.Description, MaxDescriptionLength),
		validator.MaxRunes("city", p.City, MaxNameLength),
		validator.MaxRunes("email", p.Email, MaxNameLength),
		validator.MaxRunes("phone", p.Phone, 40),
	}
	rules = append(rules, validator.When(p.Website != "", validator.ValidURL("website", p.Website))...)
	rules = append(rules, validator.When(p.LogoURL != "", validator.ValidURL("logo", p.LogoURL))...)
	return validator.Apply(rules...)
}

// ValidateItem checks a new item before it is created.
func ValidateItem(it Item) error {
	rules := []validator.Rule{
		validator.RequiredString("title", it.Title),
		validator.MaxRunes("title", it.Title, MaxTitleLength),
		validator.MaxRunes("content", it.Content, MaxContentLength),
		validator.MinNum("price", it.Price, 0),
	}
	rules = append(rules, validator.When(it.Status != "", validator.OneOf("status", it.Status, ItemStatuses))...)
	rules = append(rules, validator.When(it.ImageURL != "", validator.ValidURL("image", it.ImageURL))...)
	return validator.Apply(rules...)
}

// ValidatePatch checks the fields a patch sets.
func ValidatePatch(p ItemPatch) error {
	var rules []validator.Rule
	if p.Title != nil {
		rules = append(rules,
			validator.RequiredString("title", *p.Title),
			validator.MaxRunes("title", *p.Title, MaxTitleLength),
		)
	}
	if p.Content != nil {
		rules = append(rules, validator.MaxRunes("content", *p.Content, MaxContentLength))
	}
	if p.Price != nil {
		rules = append(rules, validator.MinNum("price", *p.Price, 0))
	}
	if p.ImageURL != nil && *p.ImageURL != "" {
		rules = append(rules, validator.ValidURL("image", *p.ImageURL))
	}
	if p.Status != nil {
		rules = append(rules, validator.OneOf("status", *p.Status, ItemStatuses))
	}
	return validator.Apply(rules...)
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Price == nil && p.ImageURL == nil && p.Status == nil
}
