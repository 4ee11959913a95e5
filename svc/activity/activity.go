// Package activity keeps the append-only log of tenant write operations.
// Events are audit events whose TenantID is the tenant's "kind:id" ref;
// PostgreSQL holds them in production and a bounded in-memory log serves
// when no database is configured.
package activity

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/audit"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/requestid"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
	"github.com/orbsaiuk/DatesHub-sub003/svc/identity"
	"github.com/orbsaiuk/DatesHub-sub003/svc/tenancy"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const (
	ItemCreated         = "item.created"
	ItemUpdated         = "item.updated"
	ItemDeleted         = "item.deleted"
	ProfileUpdated      = "profile.updated"
	ConversationStarted = "conversation.started"
	MessageSent         = "message.sent"
	MediaUploaded       = "media.uploaded"
)

// Resources named in events.
const (
	ResourceTenant       = "tenant"
	ResourceConversation = "conversation"
	ResourceMedia        = "media"
)

// TenantID is the audit tenant ID of ref.
func TenantID(ref directory.TenantRef) string {
	return ref.String()
}

// ParseTenantID is the inverse of TenantID. It fails for refs that are not
// companies or suppliers.
func ParseTenantID(id string) (directory.TenantRef, error) {
	kind, tenantID, ok := strings.Cut(id, ":")
	ref := directory.TenantRef{Kind: directory.Kind(kind), ID: tenantID}
	if !ok || !ref.Kind.IsTenant() || ref.ID == "" {
		return directory.TenantRef{}, fmt.Errorf("%w: tenant %q", audit.ErrInvalidEvent, id)
	}
	return ref, nil
}

// NewLogger returns an audit logger that takes the tenant from
// tenancy.FromContext and the actor from the signed-in principal.
func NewLogger(storage audit.Storage, opts ...audit.Option) *audit.Logger {
	base := []audit.Option{
		audit.WithTenantIDExtractor(tenantFromContext),
		audit.WithUserIDExtractor(principalFromContext),
		audit.WithRequestIDExtractor(requestIDFromContext),
	}
	return audit.NewLogger(storage, append(base, opts...)...)
}

func tenantFromContext(ctx context.Context) (string, bool) {
	t, ok := tenancy.FromContext(ctx)
	if !ok {
		return "", false
	}
	return TenantID(t.Ref()), true
}

func principalFromContext(ctx context.Context) (string, bool) {
	p, ok := identity.PrincipalFromContext(ctx)
	if !ok || p == "" {
		return "", false
	}
	return p.String(), true
}

func requestIDFromContext(ctx context.Context) (string, bool) {
	id := requestid.FromContext(ctx)
	return id, id != ""
}

// validate is the storage-side check: tenant and actor are required for
// every stored event.
func validate(e audit.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if _, err := ParseTenantID(e.TenantID); err != nil {
		return err
	}
	if e.UserID == "" {
		return fmt.Errorf("%w: user is required", audit.ErrInvalidEvent)
	}
	return nil
}
