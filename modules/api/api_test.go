package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbsaiuk/DatesHub-sub003/modules/api"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/audit"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/file"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/ratelimiter"
	"github.com/orbsaiuk/DatesHub-sub003/svc/activity"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory/memstore"
	"github.com/orbsaiuk/DatesHub-sub003/svc/identity"
	"github.com/orbsaiuk/DatesHub-sub003/svc/messaging"
	"github.com/orbsaiuk/DatesHub-sub003/svc/tenancy"
)

type fixture struct {
	store    *memstore.Store
	server   *httptest.Server
	company  *directory.Tenant
	supplier *directory.Tenant
}

const (
	companyOwner  = "user_company"
	supplierOwner = "user_supplier"
	visitor       = "user_visitor"
)

func newFixture(t *testing.T, opts ...func(*api.Deps)) *fixture {
	t.Helper()
	ctx := context.Background()
	s := memstore.New()

	company, err := s.CreateTenant(ctx, directory.Tenant{
		ID: "c-1", Kind: directory.KindCompany, Status: directory.TenantActive,
		Name: "Golden Palm", Owners: []string{companyOwner},
	})
	require.NoError(t, err)
	supplier, err := s.CreateTenant(ctx, directory.Tenant{
		ID: "s-1", Kind: directory.KindSupplier, Status: directory.TenantActive,
		Name: "Oasis Farms", Owners: []string{supplierOwner},
	})
	require.NoError(t, err)
	_, err = s.UpsertUser(ctx, directory.User{ExternalID: visitor, Name: "Sara"})
	require.NoError(t, err)

	files, err := file.NewLocalStorage(t.TempDir(), "/media")
	require.NoError(t, err)

	lookup := tenancy.NewLookup(s)
	deps := api.Deps{
		Store:     s,
		Lookup:    lookup,
		Gate:      tenancy.NewGate(lookup, s),
		Messaging: messaging.NewService(s),
		Files:     files,
		BaseURL:   "https://dateshub.test",
	}
	for _, opt := range opts {
		opt(&deps)
	}
	a := api.New(deps)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p := r.Header.Get("X-Principal"); p != "" {
				r = r.WithContext(identity.WithPrincipal(r.Context(), identity.PrincipalID(p)))
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Mount("/api", a.Router())

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &fixture{store: s, server: srv, company: company, supplier: supplier}
}

func (f *fixture) do(t *testing.T, method, path, principal string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.server.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if principal != "" {
		req.Header.Set("X-Principal", principal)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var out map[string]any
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(res.Header.Get("Content-Type"), "application/json") && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return res, out
}

func TestBlogTitle(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	blog, err := f.store.CreateItem(ctx, directory.Item{
		Family: directory.FamilyBlogs, Owner: f.company.Ref(), Title: "Harvest notes", Status: directory.ItemPublished,
	})
	require.NoError(t, err)
	draft, err := f.store.CreateItem(ctx, directory.Item{
		Family: directory.FamilyBlogs, Owner: f.company.Ref(), Title: "Unreleased notes",
	})
	require.NoError(t, err)

	res, body := f.do(t, http.MethodGet, "/api/blogs/"+blog.ID, "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, fmt.Sprintf(`{"_id":%q,"title":"Harvest notes"}`, blog.ID), string(raw))

	res, _ = f.do(t, http.MethodGet, "/api/blogs", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	for _, id := range []string{"missing", draft.ID} {
		res, body = f.do(t, http.MethodGet, "/api/blogs/"+id, "", nil)
		assert.Equal(t, http.StatusNotFound, res.StatusCode, id)
		assert.Equal(t, "errors.not_found", body["code"], id)
		assert.NotEmpty(t, body["error"], id)
	}
}

func TestActivityFeed(t *testing.T) {
	t.Parallel()
	events := activity.NewMemoryStorage(0)
	reader := audit.NewReader(events)
	f := newFixture(t, func(d *api.Deps) {
		d.Audit = activity.NewLogger(events)
		d.Activity = reader
		d.Gate = tenancy.NewGate(d.Lookup, d.Store, tenancy.WithActivity(reader, time.Hour))
	})

	res, body := f.do(t, http.MethodPost, "/api/business/company/offers", companyOwner, map[string]any{"title": "Eid offer", "price": 10})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	itemID := body["_id"].(string)
	res, _ = f.do(t, http.MethodPatch, "/api/business/company/profile", companyOwner, map[string]any{"name": "Golden Palm", "city": "Jeddah"})
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, body = f.do(t, http.MethodGet, "/api/business/company/activity?limit=5", companyOwner, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	feed := body["events"].([]any)
	require.Len(t, feed, 2)
	latest := feed[0].(map[string]any)
	assert.Equal(t, activity.ProfileUpdated, latest["action"])
	first := feed[1].(map[string]any)
	assert.Equal(t, activity.ItemCreated, first["action"])
	assert.Equal(t, "company:c-1", first["tenant_id"])
	assert.Equal(t, companyOwner, first["user_id"])
	assert.Equal(t, "offers", first["resource"])
	assert.Equal(t, itemID, first["resource_id"])

	res, body = f.do(t, http.MethodGet, "/api/business/company/offers", companyOwner, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.EqualValues(t, 2, body["stats"].(map[string]any)["recentActivity"])

	// Another tenant's feed is its own.
	res, body = f.do(t, http.MethodGet, "/api/business/supplier/activity", supplierOwner, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, body["events"])
}

func TestUserLookup(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res, body := f.do(t, http.MethodGet, "/api/users/"+visitor, "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "Sara", body["name"])
	assert.NotContains(t, body, "email")

	res, _ = f.do(t, http.MethodGet, "/api/users/nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestPublicOffersDefaultsToCompany(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	for _, owner := range []directory.TenantRef{f.company.Ref(), f.supplier.Ref()} {
		_, err := f.store.CreateItem(ctx, directory.Item{
			Family: directory.FamilyOffers, Owner: owner, Title: "Ramadan box " + owner.ID,
			Status: directory.ItemPublished,
		})
		require.NoError(t, err)
	}

	res, body := f.do(t, http.MethodGet, "/api/offers/public", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	offers := body["offers"].([]any)
	require.Len(t, offers, 1)
	assert.Equal(t, "Ramadan box c-1", offers[0].(map[string]any)["title"])

	_, body = f.do(t, http.MethodGet, "/api/offers/public?type=supplier", "", nil)
	assert.Len(t, body["offers"], 1)
}

func TestCategoriesNeverFail(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res, err := http.Get(f.server.URL + "/api/categories?type=supplier")
	require.NoError(t, err)
	defer res.Body.Close()
	raw, _ := io.ReadAll(res.Body)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestBookmarks(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res, _ := f.do(t, http.MethodGet, "/api/bookmarks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, body := f.do(t, http.MethodPost, "/api/bookmarks", visitor, map[string]string{"type": "supplier", "id": "s-1"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, true, body["bookmarked"])

	_, body = f.do(t, http.MethodGet, "/api/bookmarks", visitor, nil)
	assert.Equal(t, []any{"s-1"}, body["bookmarks"])

	_, body = f.do(t, http.MethodPost, "/api/bookmarks", visitor, map[string]string{"type": "supplier", "id": "s-1"})
	assert.Equal(t, false, body["bookmarked"])

	res, _ = f.do(t, http.MethodPost, "/api/bookmarks", visitor, map[string]string{"type": "company", "id": "s-1"})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, body = f.do(t, http.MethodPost, "/api/bookmarks", visitor, map[string]string{"type": "shop", "id": ""})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body["details"], "type")
	assert.Contains(t, body["details"], "id")
}

func TestReviews(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res, body := f.do(t, http.MethodPost, "/api/reviews", visitor, map[string]any{
		"type": "company", "id": "c-1", "rating": 6, "content": "",
	})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body["details"], "rating")
	assert.Contains(t, body["details"], "content")

	res, body = f.do(t, http.MethodPost, "/api/reviews", visitor, map[string]any{
		"type": "company", "id": "c-1", "rating": 5, "title": "Great", "content": "Fresh dates",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "Sara", body["authorName"])

	res, body = f.do(t, http.MethodGet, "/api/reviews?type=company&id=c-1", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.EqualValues(t, 1, body["total"])
	assert.Len(t, body["reviews"], 1)
}

func TestWritesAreThrottled(t *testing.T) {
	t.Parallel()
	bucket, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(),
		ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Hour})
	require.NoError(t, err)
	f := newFixture(t, func(d *api.Deps) { d.Throttle = bucket })

	review := map[string]any{"type": "company", "id": "c-1", "rating": 4, "content": "Good"}
	res, _ := f.do(t, http.MethodPost, "/api/reviews", visitor, review)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res, body := f.do(t, http.MethodPost, "/api/reviews", visitor, review)
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	assert.Equal(t, "errors.too_many_requests", body["code"])
	assert.NotEmpty(t, res.Header.Get("Retry-After"))

	// Another caller has its own bucket, and reads are not limited.
	res, _ = f.do(t, http.MethodPost, "/api/reviews", supplierOwner, review)
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	res, _ = f.do(t, http.MethodGet, "/api/reviews?type=company&id=c-1", visitor, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestQRCode(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res, err := http.Get(f.server.URL + "/api/company/c-1/qrcode.png?size=128")
	require.NoError(t, err)
	defer res.Body.Close()
	raw, _ := io.ReadAll(res.Body)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "image/png", res.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(raw, []byte("\x89PNG")))

	res2, err := http.Get(f.server.URL + "/api/supplier/c-1/qrcode.png")
	require.NoError(t, err)
	res2.Body.Close()
	assert.Equal(t, http.StatusNotFound, res2.StatusCode)
}

func TestConversations(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res, body := f.do(t, http.MethodPost, "/api/conversations", visitor, map[string]string{"tenantId": "c-1"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	convID := body["_id"].(string)

	res, _ = f.do(t, http.MethodPost, "/api/conversations", visitor, map[string]string{"tenantId": "s-1"})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, body = f.do(t, http.MethodPost, "/api/conversations/"+convID+"/messages", visitor, map[string]string{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body["details"], "text")

	res, _ = f.do(t, http.MethodPost, "/api/conversations/"+convID+"/messages", visitor, map[string]string{"text": strings.Repeat("a", messaging.MaxMessageLength+1)})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, body = f.do(t, http.MethodPost, "/api/conversations/"+convID+"/messages", visitor, map[string]string{"text": "  Do you ship to Jeddah?  "})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "Do you ship to Jeddah?", body["text"])

	// The company owner reads the thread as the company.
	res, body = f.do(t, http.MethodGet, "/api/conversations/"+convID+"/messages", companyOwner, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, body["messages"], 1)
	assert.Equal(t, "company", body["me"].(map[string]any)["type"])

	res, _ = f.do(t, http.MethodGet, "/api/conversations/"+convID+"/messages", supplierOwner, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestOwnerOfBothSidesPicksSide(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	_, err := f.store.CreateTenant(context.Background(), directory.Tenant{
		ID: "s-2", Kind: directory.KindSupplier, Status: directory.TenantActive,
		Name: "Palm Orchards", Owners: []string{companyOwner},
	})
	require.NoError(t, err)

	res, body := f.do(t, http.MethodPost, "/api/business/company/conversations", companyOwner,
		map[string]string{"toType": "supplier", "toId": "s-2"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	path := "/api/conversations/" + body["_id"].(string) + "/messages"

	res, _ = f.do(t, http.MethodPost, path, companyOwner, map[string]string{"text": "hello"})
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	res, _ = f.do(t, http.MethodGet, path, companyOwner, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	res, body = f.do(t, http.MethodPost, path, companyOwner, map[string]string{"as": "supplier", "text": "hello"})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "supplier", body["sender"].(map[string]any)["type"])
	assert.Equal(t, "s-2", body["sender"].(map[string]any)["id"])

	res, body = f.do(t, http.MethodGet, path+"?as=company", companyOwner, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "company", body["me"].(map[string]any)["type"])

	res, body = f.do(t, http.MethodPost, path, companyOwner, map[string]string{"as": "admin", "text": "hello"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body["details"], "as")
}

func TestBusinessConversationRejectsSelf(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res, body := f.do(t, http.MethodPost, "/api/business/company/conversations", companyOwner,
		map[string]string{"toType": "company", "toId": "c-1"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body["details"], "toId")

	res, body = f.do(t, http.MethodPost, "/api/business/company/conversations", companyOwner,
		map[string]string{"toType": "supplier", "toId": "s-1"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, body["_id"])
}

func TestBusinessItems(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res, _ := f.do(t, http.MethodGet, "/api/business/company/offers", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	res, _ = f.do(t, http.MethodGet, "/api/business/supplier/offers", companyOwner, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	res, _ = f.do(t, http.MethodGet, "/api/business/company/reviews", companyOwner, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, body := f.do(t, http.MethodPost, "/api/business/company/offers", companyOwner, map[string]any{"title": "", "price": -3})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body["details"], "title")
	assert.Contains(t, body["details"], "price")

	res, _ = f.do(t, http.MethodPost, "/api/business/company/messages", companyOwner, map[string]any{"title": "hi"})
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)

	res, body = f.do(t, http.MethodPost, "/api/business/company/offers", companyOwner, map[string]any{"title": " Eid offer ", "price": 99.5})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	itemID := body["_id"].(string)
	assert.Equal(t, "Eid offer", body["title"])
	assert.Equal(t, "draft", body["status"])

	res, body = f.do(t, http.MethodGet, "/api/business/company/offers", companyOwner, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, body["items"], 1)
	assert.EqualValues(t, 1, body["stats"].(map[string]any)["drafts"])

	// Another tenant cannot see or touch the item.
	_, body = f.do(t, http.MethodGet, "/api/business/supplier/offers", supplierOwner, nil)
	assert.Empty(t, body["items"])
	res, _ = f.do(t, http.MethodPatch, "/api/business/supplier/offers/"+itemID, supplierOwner, map[string]any{"status": "published"})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	res, _ = f.do(t, http.MethodPatch, "/api/business/company/products/"+itemID, companyOwner, map[string]any{"status": "published"})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, body = f.do(t, http.MethodPatch, "/api/business/company/offers/"+itemID, companyOwner, map[string]any{"status": "published"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "published", body["status"])
	assert.Equal(t, "Eid offer", body["title"])

	res, _ = f.do(t, http.MethodPatch, "/api/business/company/offers/"+itemID, companyOwner, map[string]any{"status": "gone"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, _ = f.do(t, http.MethodDelete, "/api/business/company/offers/"+itemID, companyOwner, nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	res, _ = f.do(t, http.MethodDelete, "/api/business/company/offers/"+itemID, companyOwner, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res, body := f.do(t, http.MethodPatch, "/api/business/supplier/profile", supplierOwner, map[string]any{
		"name": "", "website": "ftp://oasis",
	})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body["details"], "name")
	assert.Contains(t, body["details"], "website")

	res, body = f.do(t, http.MethodPatch, "/api/business/supplier/profile", supplierOwner, map[string]any{
		"name": "Oasis Farms", "nameAr": "مزارع الواحة", "city": "Al-Ahsa",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "مزارع الواحة", body["nameAr"])

	res, _ = f.do(t, http.MethodPatch, "/api/business/supplier/profile", supplierOwner, map[string]any{"name": "x", "owners": []string{"me"}})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestUploadMedia(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	upload := func(content []byte) *http.Response {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "logo.png")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req, err := http.NewRequest(http.MethodPost, f.server.URL+"/api/business/company/media", &buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("X-Principal", companyOwner)
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { res.Body.Close() })
		return res
	}

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	res := upload(png)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.True(t, strings.HasPrefix(body["url"], "/media/company/c-1/"))
	assert.True(t, strings.HasSuffix(body["url"], ".png"))

	res = upload([]byte("#!/bin/sh\necho hi\n"))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}
