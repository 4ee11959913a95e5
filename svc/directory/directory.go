// Package directory holds the business-directory data model and the store
// contract shared by the Mongo and in-memory implementations.
package directory

import (
	"slices"
	"strings"
	"time"
)

// Kind is a tenant kind. KindUser only appears in conversation participants.
type Kind string

const (
	KindCompany  Kind = "company"
	KindSupplier Kind = "supplier"
	KindUser     Kind = "user"
)

// TenantKinds lists the kinds a tenant can have.
var TenantKinds = []Kind{KindCompany, KindSupplier}

// ParseKind accepts only tenant kinds.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	return k, k.IsTenant()
}

// IsTenant reports whether k is company or supplier.
func (k Kind) IsTenant() bool {
	return k == KindCompany || k == KindSupplier
}

// Plural is the public path segment for the kind ("companies", "suppliers").
func (k Kind) Plural() string {
	switch k {
	case KindCompany:
		return "companies"
	case KindSupplier:
		return "suppliers"
	}
	return string(k) + "s"
}

// Family is a tenant-owned resource family.
type Family string

const (
	FamilyOffers   Family = "offers"
	FamilyProducts Family = "products"
	FamilyBlogs    Family = "blogs"
	FamilyMessages Family = "messages"
)

// Families lists every dashboard resource family.
var Families = []Family{FamilyOffers, FamilyProducts, FamilyBlogs, FamilyMessages}

func ParseFamily(s string) (Family, bool) {
	f := Family(strings.ToLower(strings.TrimSpace(s)))
	return f, slices.Contains(Families, f)
}

// Writable reports whether items of the family are edited through the item
// endpoints. Messages are written through conversations.
func (f Family) Writable() bool {
	return f == FamilyOffers || f == FamilyProducts || f == FamilyBlogs
}

// TenantRef points at a tenant by kind and id.
type TenantRef struct {
	Kind Kind   `json:"type" bson:"kind"`
	ID   string `json:"id" bson:"id"`
}

func (r TenantRef) String() string {
	return string(r.Kind) + ":" + r.ID
}

type TenantStatus string

const (
	TenantPending TenantStatus = "pending"
	TenantActive  TenantStatus = "active"
)

// Tenant is a company or a supplier.
type Tenant struct {
	ID           string       `json:"_id" bson:"_id"`
	Kind         Kind         `json:"type" bson:"kind"`
	Status       TenantStatus `json:"status" bson:"status"`
	Name         string       `json:"name" bson:"name"`
	NameAr       string       `json:"nameAr,omitempty" bson:"name_ar,omitempty"`
	Description  string       `json:"description,omitempty" bson:"description,omitempty"`
	CategoryCode string       `json:"category,omitempty" bson:"category,omitempty"`
	City         string       `json:"city,omitempty" bson:"city,omitempty"`
	Email        string       `json:"email,omitempty" bson:"email,omitempty"`
	Phone        string       `json:"phone,omitempty" bson:"phone,omitempty"`
	Website      string       `json:"website,omitempty" bson:"website,omitempty"`
	LogoURL      string       `json:"logo,omitempty" bson:"logo,omitempty"`
	Owners       []string     `json:"-" bson:"owners"`
	CreatedAt    time.Time    `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time    `json:"updatedAt" bson:"updated_at"`
}

func (t *Tenant) Ref() TenantRef {
	return TenantRef{Kind: t.Kind, ID: t.ID}
}

// DisplayName picks the Arabic name for Arabic locales when present.
func (t *Tenant) DisplayName(locale string) string {
	if locale == "ar" && t.NameAr != "" {
		return t.NameAr
	}
	return t.Name
}

// OwnedBy reports whether principal administers the tenant.
func (t *Tenant) OwnedBy(principal string) bool {
	return principal != "" && slices.Contains(t.Owners, principal)
}

// TenantProfile is the owner-editable part of a tenant.
type TenantProfile struct {
	Name         string `json:"name"`
	NameAr       string `json:"nameAr"`
	Description  string `json:"description"`
	CategoryCode string `json:"category"`
	City         string `json:"city"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Website      string `json:"website"`
	LogoURL      string `json:"logo"`
}

// TenantFilter narrows public tenant listings.
type TenantFilter struct {
	Category string
	City     string
}

type ItemStatus string

const (
	ItemDraft     ItemStatus = "draft"
	ItemPublished ItemStatus = "published"
	ItemArchived  ItemStatus = "archived"
)

// Item is an offer, a product or a blog post.
type Item struct {
	ID        string     `json:"_id" bson:"_id"`
	Family    Family     `json:"family" bson:"family"`
	Owner     TenantRef  `json:"owner" bson:"owner"`
	Title     string     `json:"title" bson:"title"`
	Content   string     `json:"content,omitempty" bson:"content,omitempty"`
	Price     float64    `json:"price,omitempty" bson:"price,omitempty"`
	ImageURL  string     `json:"image,omitempty" bson:"image,omitempty"`
	Status    ItemStatus `json:"status" bson:"status"`
	CreatedAt time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updated_at"`
}

// ItemPatch holds the fields an owner may change. Nil fields stay as they are.
type ItemPatch struct {
	Title    *string     `json:"title"`
	Content  *string     `json:"content"`
	Price    *float64    `json:"price"`
	ImageURL *string     `json:"image"`
	Status   *ItemStatus `json:"status"`
}

// Apply writes the non-nil fields of p onto it.
func (p ItemPatch) Apply(it *Item) {
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Content != nil {
		it.Content = *p.Content
	}
	if p.Price != nil {
		it.Price = *p.Price
	}
	if p.ImageURL != nil {
		it.ImageURL = *p.ImageURL
	}
	if p.Status != nil {
		it.Status = *p.Status
	}
}

// Scope restricts item queries to one tenant and one family. A non-empty
// Status further restricts them to items in that state.
type Scope struct {
	Owner  TenantRef
	Family Family
	Status ItemStatus
}

// Stats aggregates a scoped item collection.
type Stats struct {
	Total          int `json:"total"`
	Published      int `json:"published"`
	Drafts         int `json:"drafts"`
	Archived       int `json:"archived"`
	RecentActivity int `json:"recentActivity,omitempty"`
}

// Count adds one item to the stats.
func (s *Stats) Count(status ItemStatus) {
	s.Total++
	switch status {
	case ItemPublished:
		s.Published++
	case ItemDraft:
		s.Drafts++
	case ItemArchived:
		s.Archived++
	}
}

// Category is a bilingual category label.
type Category struct {
	ID     string `json:"_id" bson:"_id"`
	Kind   Kind   `json:"type" bson:"kind"`
	Code   string `json:"code" bson:"code"`
	NameEn string `json:"nameEn" bson:"name_en"`
	NameAr string `json:"nameAr" bson:"name_ar"`
}

func (c Category) Name(locale string) string {
	if locale == "ar" && c.NameAr != "" {
		return c.NameAr
	}
	return c.NameEn
}

// BlogTitle is the public projection of a blog post.
type BlogTitle struct {
	ID    string `json:"_id" bson:"_id"`
	Title string `json:"title" bson:"title"`
}

// User is a person known to the identity provider.
type User struct {
	ID         string    `json:"_id" bson:"_id"`
	ExternalID string    `json:"externalId" bson:"external_id"`
	Email      string    `json:"-" bson:"email"`
	Name       string    `json:"name" bson:"name"`
	AvatarURL  string    `json:"avatar,omitempty" bson:"avatar,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt  time.Time `json:"-" bson:"updated_at"`
}

// Review is a rating left on a tenant.
type Review struct {
	ID         string    `json:"_id" bson:"_id"`
	Target     TenantRef `json:"target" bson:"target"`
	Rating     int       `json:"rating" bson:"rating"`
	Title      string    `json:"title" bson:"title"`
	Content    string    `json:"content" bson:"content"`
	AuthorID   string    `json:"-" bson:"author_id"`
	AuthorName string    `json:"authorName" bson:"author_name"`
	CreatedAt  time.Time `json:"createdAt" bson:"created_at"`
}

// Participant is one side of a conversation: a user or a tenant.
type Participant struct {
	Kind Kind   `json:"type" bson:"kind"`
	ID   string `json:"id" bson:"id"`
}

func (p Participant) String() string {
	return string(p.Kind) + ":" + p.ID
}

// PairKey identifies an unordered participant pair.
func PairKey(a, b Participant) string {
	x, y := a.String(), b.String()
	if y < x {
		x, y = y, x
	}
	return x + "|" + y
}

// Conversation is keyed by its participant pair.
type Conversation struct {
	ID            string         `json:"_id" bson:"_id"`
	Key           string         `json:"-" bson:"key"`
	Participants  [2]Participant `json:"participants" bson:"participants"`
	LastMessage   string         `json:"lastMessage,omitempty" bson:"last_message,omitempty"`
	LastMessageAt time.Time      `json:"lastMessageAt,omitzero" bson:"last_message_at,omitempty"`
	CreatedAt     time.Time      `json:"createdAt" bson:"created_at"`
}

// Has reports whether p takes part in the conversation.
func (c *Conversation) Has(p Participant) bool {
	return c.Participants[0] == p || c.Participants[1] == p
}

// Other returns the participant that is not p.
func (c *Conversation) Other(p Participant) Participant {
	if c.Participants[0] == p {
		return c.Participants[1]
	}
	return c.Participants[0]
}

type Message struct {
	ID             string      `json:"_id" bson:"_id"`
	ConversationID string      `json:"conversationId" bson:"conversation_id"`
	Sender         Participant `json:"sender" bson:"sender"`
	Text           string      `json:"text" bson:"text"`
	CreatedAt      time.Time   `json:"createdAt" bson:"created_at"`
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Page is an offset window.
type Page struct {
	Offset int
	Limit  int
}

// Normalize clamps the window to sane bounds.
func (p Page) Normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Slice applies the window to n elements and returns the bounds.
func (p Page) Slice(n int) (int, int) {
	p = p.Normalize()
	start := min(p.Offset, n)
	end := min(start+p.Limit, n)
	return start, end
}
