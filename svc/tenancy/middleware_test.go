package tenancy_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orbsaiuk/DatesHub-sub003/svc/identity"
	"github.com/orbsaiuk/DatesHub-sub003/svc/tenancy"
)

func TestRequireOwner(t *testing.T) {
	t.Parallel()
	s, mine, _ := seed(t)

	kindFromQuery := func(r *http.Request) string { return r.URL.Query().Get("kind") }
	var seen string
	h := tenancy.RequireOwner(tenancy.NewLookup(s), kindFromQuery, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, ok := tenancy.FromContext(r.Context())
		if ok {
			seen = tenant.ID
		}
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name      string
		principal identity.PrincipalID
		kind      string
		want      int
	}{
		{"anonymous", "", "company", http.StatusUnauthorized},
		{"unknown kind", "owner", "shop", http.StatusNotFound},
		{"no tenant of kind", "owner", "supplier", http.StatusForbidden},
		{"owner", "owner", "company", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/business/x?kind="+tt.kind, nil)
			if tt.principal != "" {
				req = req.WithContext(identity.WithPrincipal(req.Context(), tt.principal))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
	assert.Equal(t, mine.ID, seen)
}
