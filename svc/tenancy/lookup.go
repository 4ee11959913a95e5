// Package tenancy answers which tenant a principal administers and gates
// every tenant dashboard behind one parameterized check.
package tenancy

import (
	"context"
	"errors"
	"fmt"

	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
	"github.com/orbsaiuk/DatesHub-sub003/svc/identity"
)

var (
	ErrInvalidInput = errors.New("tenancy: invalid input")
	ErrLookupFailed = errors.New("tenancy: membership lookup failed")
)

// MembershipStore is the read the lookup needs from the directory.
type MembershipStore interface {
	MembershipFor(ctx context.Context, principal string, kind directory.Kind) (*directory.Tenant, error)
}

type Lookup struct {
	store MembershipStore
}

func NewLookup(store MembershipStore) *Lookup {
	return &Lookup{store: store}
}

// Membership returns the tenant of kind administered by principal, or nil
// when there is none.
func (l *Lookup) Membership(ctx context.Context, principal identity.PrincipalID, kind directory.Kind) (*directory.Tenant, error) {
	if principal == "" {
		return nil, fmt.Errorf("%w: empty principal", ErrInvalidInput)
	}
	if !kind.IsTenant() {
		return nil, fmt.Errorf("%w: kind %q", ErrInvalidInput, kind)
	}

	t, err := l.store.MembershipFor(ctx, principal.String(), kind)
	switch {
	case errors.Is(err, directory.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, errors.Join(ErrLookupFailed, err)
	}
	return t, nil
}
