package directory

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("directory: not found")
	ErrInvalidInput = errors.New("directory: invalid input")
	ErrConflict     = errors.New("directory: conflict")
)

// Store is the document store the application reads and writes through.
// Every write on an owned resource is filtered by its owner; a filter that
// matches nothing returns ErrNotFound.
type Store interface {
	TenantStore
	ItemStore
	UserStore
	ReviewStore
	ConversationStore

	Categories(ctx context.Context, kind Kind) ([]Category, error)
}

type TenantStore interface {
	// MembershipFor returns the active tenant of the given kind that
	// principal administers.
	MembershipFor(ctx context.Context, principal string, kind Kind) (*Tenant, error)
	TenantByID(ctx context.Context, kind Kind, id string) (*Tenant, error)
	ListTenants(ctx context.Context, kind Kind, filter TenantFilter, page Page) ([]Tenant, int, error)
	CreateTenant(ctx context.Context, t Tenant) (*Tenant, error)
	UpdateTenantProfile(ctx context.Context, ref TenantRef, principal string, p TenantProfile) (*Tenant, error)
}

type ItemStore interface {
	ListItems(ctx context.Context, scope Scope, page Page) ([]Item, error)
	ItemStats(ctx context.Context, scope Scope) (Stats, error)
	CreateItem(ctx context.Context, it Item) (*Item, error)
	UpdateItem(ctx context.Context, scope Scope, id string, patch ItemPatch) (*Item, error)
	DeleteItem(ctx context.Context, scope Scope, id string) error
	PublicOffers(ctx context.Context, kind Kind) ([]Item, error)
	BlogTitle(ctx context.Context, id string) (*BlogTitle, error)
}

type UserStore interface {
	// UserByAnyID matches either the internal id or the identity-provider id.
	UserByAnyID(ctx context.Context, id string) (*User, error)
	// UpsertUser creates or refreshes a user keyed by ExternalID.
	UpsertUser(ctx context.Context, u User) (*User, error)
	Bookmarks(ctx context.Context, principal string) ([]string, error)
	// ToggleBookmark reports whether the tenant is bookmarked afterwards.
	ToggleBookmark(ctx context.Context, principal string, ref TenantRef) (bool, error)
}

type ReviewStore interface {
	Reviews(ctx context.Context, target TenantRef, page Page) ([]Review, int, error)
	CreateReview(ctx context.Context, r Review) (*Review, error)
}

type ConversationStore interface {
	// FindOrCreateConversation returns the conversation between a and b
	// regardless of argument order.
	FindOrCreateConversation(ctx context.Context, a, b Participant) (*Conversation, error)
	ConversationsFor(ctx context.Context, p Participant) ([]Conversation, error)
	ConversationByID(ctx context.Context, id string) (*Conversation, error)
	AppendMessage(ctx context.Context, m Message) (*Message, error)
	// Messages are ordered by creation time, oldest first.
	Messages(ctx context.Context, conversationID string) ([]Message, error)
}
