// Package memstore is an in-memory directory.Store for tests and local
// development.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
)

type bookmark struct {
	principal string
	ref       directory.TenantRef
}

// Store keeps every collection in maps guarded by one lock.
type Store struct {
	mu    sync.RWMutex
	clock func() time.Time

	tenants       map[string]directory.Tenant
	items         map[string]directory.Item
	categories    []directory.Category
	users         map[string]directory.User
	bookmarks     []bookmark
	reviews       []directory.Review
	conversations map[string]directory.Conversation
	messages      map[string][]directory.Message
}

type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		clock:         time.Now,
		tenants:       make(map[string]directory.Tenant),
		items:         make(map[string]directory.Item),
		users:         make(map[string]directory.User),
		conversations: make(map[string]directory.Conversation),
		messages:      make(map[string][]directory.Message),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ directory.Store = (*Store)(nil)

func (s *Store) now() time.Time {
	return s.clock().UTC()
}

// AddCategory seeds a category.
func (s *Store) AddCategory(c directory.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.categories = append(s.categories, c)
}

func (s *Store) MembershipFor(_ context.Context, principal string, kind directory.Kind) (*directory.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.sortedTenants() {
		if t.Kind == kind && t.Status == directory.TenantActive && t.OwnedBy(principal) {
			return &t, nil
		}
	}
	return nil, directory.ErrNotFound
}

func (s *Store) TenantByID(_ context.Context, kind directory.Kind, id string) (*directory.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[id]
	if !ok || t.Kind != kind || t.Status != directory.TenantActive {
		return nil, directory.ErrNotFound
	}
	return &t, nil
}

func (s *Store) ListTenants(_ context.Context, kind directory.Kind, filter directory.TenantFilter, page directory.Page) ([]directory.Tenant, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []directory.Tenant
	for _, t := range s.sortedTenants() {
		if t.Kind != kind || t.Status != directory.TenantActive {
			continue
		}
		if filter.Category != "" && t.CategoryCode != filter.Category {
			continue
		}
		if filter.City != "" && !strings.EqualFold(t.City, filter.City) {
			continue
		}
		matched = append(matched, t)
	}
	start, end := page.Slice(len(matched))
	return slices.Clone(matched[start:end]), len(matched), nil
}

// sortedTenants returns tenants by name for stable listings.
func (s *Store) sortedTenants() []directory.Tenant {
	out := make([]directory.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b directory.Tenant) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out
}

func (s *Store) CreateTenant(_ context.Context, t directory.Tenant) (*directory.Tenant, error) {
	if !t.Kind.IsTenant() {
		return nil, fmt.Errorf("%w: kind %q", directory.ErrInvalidInput, t.Kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, exists := s.tenants[t.ID]; exists {
		return nil, directory.ErrConflict
	}
	if t.Status == "" {
		t.Status = directory.TenantPending
	}
	now := s.now()
	t.CreatedAt, t.UpdatedAt = now, now
	t.Owners = slices.Clone(t.Owners)
	s.tenants[t.ID] = t
	return &t, nil
}

func (s *Store) UpdateTenantProfile(_ context.Context, ref directory.TenantRef, principal string, p directory.TenantProfile) (*directory.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[ref.ID]
	if !ok || t.Kind != ref.Kind || !t.OwnedBy(principal) {
		return nil, directory.ErrNotFound
	}
	t.Name = p.Name
	t.NameAr = p.NameAr
	t.Description = p.Description
	t.CategoryCode = p.CategoryCode
	t.City = p.City
	t.Email = p.Email
	t.Phone = p.Phone
	t.Website = p.Website
	t.LogoURL = p.LogoURL
	t.UpdatedAt = s.now()
	s.tenants[t.ID] = t
	return &t, nil
}

func (s *Store) scoped(scope directory.Scope) []directory.Item {
	var out []directory.Item
	for _, it := range s.items {
		if it.Owner == scope.Owner && it.Family == scope.Family &&
			(scope.Status == "" || it.Status == scope.Status) {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, newestFirst)
	return out
}

func newestFirst(a, b directory.Item) int {
	return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
}

func (s *Store) ListItems(_ context.Context, scope directory.Scope, page directory.Page) ([]directory.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.scoped(scope)
	start, end := page.Slice(len(items))
	return slices.Clone(items[start:end]), nil
}

func (s *Store) ItemStats(_ context.Context, scope directory.Scope) (directory.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats directory.Stats
	for _, it := range s.scoped(scope) {
		stats.Count(it.Status)
	}
	return stats, nil
}

func (s *Store) CreateItem(_ context.Context, it directory.Item) (*directory.Item, error) {
	if !it.Owner.Kind.IsTenant() || it.Owner.ID == "" || !it.Family.Writable() {
		return nil, directory.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	it.ID = uuid.NewString()
	if it.Status == "" {
		it.Status = directory.ItemDraft
	}
	now := s.now()
	it.CreatedAt, it.UpdatedAt = now, now
	s.items[it.ID] = it
	return &it, nil
}

func (s *Store) UpdateItem(_ context.Context, scope directory.Scope, id string, patch directory.ItemPatch) (*directory.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok || it.Owner != scope.Owner || it.Family != scope.Family {
		return nil, directory.ErrNotFound
	}
	patch.Apply(&it)
	it.UpdatedAt = s.now()
	s.items[id] = it
	return &it, nil
}

func (s *Store) DeleteItem(_ context.Context, scope directory.Scope, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok || it.Owner != scope.Owner || it.Family != scope.Family {
		return directory.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Store) PublicOffers(_ context.Context, kind directory.Kind) ([]directory.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []directory.Item{}
	for _, it := range s.items {
		if it.Family == directory.FamilyOffers && it.Owner.Kind == kind && it.Status == directory.ItemPublished {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, newestFirst)
	return out, nil
}

func (s *Store) BlogTitle(_ context.Context, id string) (*directory.BlogTitle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok || it.Family != directory.FamilyBlogs || it.Status != directory.ItemPublished {
		return nil, directory.ErrNotFound
	}
	return &directory.BlogTitle{ID: it.ID, Title: it.Title}, nil
}

func (s *Store) Categories(_ context.Context, kind directory.Kind) ([]directory.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []directory.Category{}
	for _, c := range s.categories {
		if kind == "" || c.Kind == kind {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b directory.Category) int {
		return cmp.Or(cmp.Compare(a.NameEn, b.NameEn), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) UserByAnyID(_ context.Context, id string) (*directory.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	for _, u := range s.users {
		if u.ExternalID == id {
			return &u, nil
		}
	}
	return nil, directory.ErrNotFound
}

func (s *Store) UpsertUser(_ context.Context, u directory.User) (*directory.User, error) {
	if u.ExternalID == "" {
		return nil, directory.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, existing := range s.users {
		if existing.ExternalID == u.ExternalID {
			existing.Email = u.Email
			existing.Name = u.Name
			existing.AvatarURL = u.AvatarURL
			existing.UpdatedAt = now
			s.users[id] = existing
			return &existing, nil
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = u
	return &u, nil
}

func (s *Store) Bookmarks(_ context.Context, principal string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := []string{}
	for _, b := range s.bookmarks {
		if b.principal == principal {
			ids = append(ids, b.ref.ID)
		}
	}
	return ids, nil
}

func (s *Store) ToggleBookmark(_ context.Context, principal string, ref directory.TenantRef) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.bookmarks, func(b bookmark) bool {
		return b.principal == principal && b.ref == ref
	})
	if idx >= 0 {
		s.bookmarks = slices.Delete(s.bookmarks, idx, idx+1)
		return false, nil
	}
	s.bookmarks = append(s.bookmarks, bookmark{principal: principal, ref: ref})
	return true, nil
}

func (s *Store) Reviews(_ context.Context, target directory.TenantRef, page directory.Page) ([]directory.Review, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []directory.Review
	for _, r := range s.reviews {
		if r.Target == target {
			matched = append(matched, r)
		}
	}
	slices.SortStableFunc(matched, func(a, b directory.Review) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	start, end := page.Slice(len(matched))
	return slices.Clone(matched[start:end]), len(matched), nil
}

func (s *Store) CreateReview(_ context.Context, r directory.Review) (*directory.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = uuid.NewString()
	r.CreatedAt = s.now()
	s.reviews = append(s.reviews, r)
	return &r, nil
}

func (s *Store) FindOrCreateConversation(_ context.Context, a, b directory.Participant) (*directory.Conversation, error) {
	key := directory.PairKey(a, b)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.conversations {
		if c.Key == key {
			return &c, nil
		}
	}
	c := directory.Conversation{
		ID:           uuid.NewString(),
		Key:          key,
		Participants: [2]directory.Participant{a, b},
		CreatedAt:    s.now(),
	}
	s.conversations[c.ID] = c
	return &c, nil
}

func (s *Store) ConversationsFor(_ context.Context, p directory.Participant) ([]directory.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []directory.Conversation{}
	for _, c := range s.conversations {
		if c.Has(p) {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b directory.Conversation) int {
		return cmp.Or(lastActivity(b).Compare(lastActivity(a)), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func lastActivity(c directory.Conversation) time.Time {
	if c.LastMessageAt.IsZero() {
		return c.CreatedAt
	}
	return c.LastMessageAt
}

func (s *Store) ConversationByID(_ context.Context, id string) (*directory.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	return &c, nil
}

func (s *Store) AppendMessage(_ context.Context, m directory.Message) (*directory.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[m.ConversationID]
	if !ok {
		return nil, directory.ErrNotFound
	}
	m.ID = uuid.NewString()
	m.CreatedAt = s.now()
	s.messages[c.ID] = append(s.messages[c.ID], m)

	c.LastMessage = m.Text
	c.LastMessageAt = m.CreatedAt
	s.conversations[c.ID] = c
	return &m, nil
}

func (s *Store) Messages(_ context.Context, conversationID string) ([]directory.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return nil, directory.ErrNotFound
	}
	out := slices.Clone(s.messages[conversationID])
	if out == nil {
		out = []directory.Message{}
	}
	slices.SortStableFunc(out, func(a, b directory.Message) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}
