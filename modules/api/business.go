package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/orbsaiuk/DatesHub-sub003/handler"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/audit"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/file"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/logger"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/sanitizer"
	"github.com/orbsaiuk/DatesHub-sub003/svc/activity"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
	"github.com/orbsaiuk/DatesHub-sub003/svc/tenancy"
)

// MaxUploadSize caps media uploads.
const MaxUploadSize = 5 << 20

func (a *API) updateProfile(ctx handler.Context, req directory.TenantProfile) handler.Response {
	t := owner(ctx)
	p := req.Trim()
	if err := directory.ValidateProfile(p); err != nil {
		return handler.Error(err)
	}

	updated, err := a.Store.UpdateTenantProfile(ctx, t.Ref(), principal(ctx).String(), p)
	if err != nil {
		return fail(err)
	}
	if err := a.Indexer.Index(ctx, *updated); err != nil {
		a.Log.WarnContext(ctx, "search index not updated",
			logger.Tenant(string(t.Kind), t.ID),
			logger.Error(err),
		)
	}
	if a.Names != nil {
		a.Names.Forget(ctx, t.Ref())
	}
	a.record(ctx, activity.ProfileUpdated, audit.WithResource(activity.ResourceTenant, t.ID))
	return handler.JSON(updated)
}

// uploadMedia stores one image from the multipart field "file" and returns
// its public URL.
func (a *API) uploadMedia(ctx handler.Context, _ struct{}) handler.Response {
	if a.Files == nil {
		return handler.Error(handler.NewHTTPError(http.StatusServiceUnavailable, "errors.internal"))
	}
	t := owner(ctx)
	r := ctx.Request()
	r.Body = http.MaxBytesReader(ctx.ResponseWriter(), r.Body, MaxUploadSize+1<<10)

	f, hdr, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return handler.Error(handler.NewHTTPError(http.StatusRequestEntityTooLarge, "errors.bad_request"))
		}
		return handler.Error(errors.Join(handler.ErrBadRequest, err))
	}
	defer f.Close()
	if hdr.Size > MaxUploadSize {
		return handler.Error(handler.NewHTTPError(http.StatusRequestEntityTooLarge, "errors.bad_request"))
	}

	contentType, body, err := file.SniffImage(f)
	if err != nil {
		return handler.Error(errors.Join(handler.ErrBadRequest, err))
	}
	key, err := file.Key(string(t.Kind), t.ID, uuid.NewString()+file.Extension(contentType))
	if err != nil {
		return handler.Error(errors.Join(handler.ErrBadRequest, err))
	}
	url, err := a.Files.Save(ctx, key, contentType, body, hdr.Size)
	if err != nil {
		return handler.Error(err)
	}

	a.record(ctx, activity.MediaUploaded, audit.WithResource(activity.ResourceMedia, key))
	return handler.JSON(map[string]string{"url": url}, handler.WithJSONStatus(http.StatusCreated))
}

type activityQuery struct {
	Limit int `query:"limit"`
}

func (a *API) recentActivity(ctx handler.Context, req activityQuery) handler.Response {
	limit := req.Limit
	if limit <= 0 || limit > directory.MaxPageLimit {
		limit = directory.DefaultPageLimit
	}
	events, err := a.Activity.Find(ctx, audit.Criteria{
		TenantID: activity.TenantID(owner(ctx).Ref()),
		Limit:    limit,
	})
	if err != nil {
		return fail(err)
	}
	if events == nil {
		events = []audit.Event{}
	}
	return handler.JSON(map[string]any{"events": events})
}

type familyRequest struct {
	Kind   string `path:"kind" json:"-"`
	Family string `path:"family" json:"-"`
	Offset int    `query:"offset" json:"-"`
	Limit  int    `query:"limit" json:"-"`
}

// listItems goes through the same gate as the dashboards.
func (a *API) listItems(ctx handler.Context, req familyRequest) handler.Response {
	kind, _ := directory.ParseKind(req.Kind)
	family, _ := directory.ParseFamily(req.Family)
	out, err := a.Gate.AuthorizeAndFetch(ctx, tenancy.Request{
		Principal: principal(ctx),
		Kind:      kind,
		Family:    family,
		Path:      ctx.Request().URL.Path,
		Page:      directory.Page{Offset: req.Offset, Limit: req.Limit},
	})
	switch {
	case tenancy.IsInvalidInput(err):
		return handler.Error(errors.Join(handler.ErrNotFound, err))
	case err != nil:
		return fail(err)
	case out.Redirected():
		return handler.Error(handler.ErrForbidden)
	}

	if family == directory.FamilyMessages {
		convs := out.Conversations
		if convs == nil {
			convs = []directory.Conversation{}
		}
		return handler.JSON(map[string]any{"conversations": convs, "stats": out.Stats})
	}
	items := out.Items
	if items == nil {
		items = []directory.Item{}
	}
	return handler.JSON(map[string]any{"items": items, "stats": out.Stats})
}

// writableFamily resolves the family of an item write. Messages are
// written through conversations.
func writableFamily(s string) (directory.Family, handler.Response) {
	family, ok := directory.ParseFamily(s)
	switch {
	case !ok:
		return "", handler.Error(handler.ErrNotFound)
	case !family.Writable():
		return "", handler.Error(handler.NewHTTPError(http.StatusMethodNotAllowed, "errors.bad_request"))
	}
	return family, nil
}

type createItemRequest struct {
	Family   string               `path:"family" json:"-"`
	Title    string               `json:"title"`
	Content  string               `json:"content"`
	Price    float64              `json:"price"`
	ImageURL string               `json:"image"`
	Status   directory.ItemStatus `json:"status"`
}

func (a *API) createItem(ctx handler.Context, req createItemRequest) handler.Response {
	family, resp := writableFamily(req.Family)
	if resp != nil {
		return resp
	}
	t := owner(ctx)
	it := directory.Item{
		Family:   family,
		Owner:    t.Ref(),
		Title:    sanitizer.Line(req.Title),
		Content:  sanitizer.Text(req.Content),
		Price:    req.Price,
		ImageURL: sanitizer.Line(req.ImageURL),
		Status:   req.Status,
	}
	if err := directory.ValidateItem(it); err != nil {
		return handler.Error(err)
	}

	created, err := a.Store.CreateItem(ctx, it)
	if err != nil {
		return fail(err)
	}
	a.record(ctx, activity.ItemCreated, audit.WithResource(string(family), created.ID))
	return handler.JSON(created, handler.WithJSONStatus(http.StatusCreated))
}

type updateItemRequest struct {
	directory.ItemPatch
	Family string `path:"family" json:"-"`
	ItemID string `path:"itemID" json:"-"`
}

func (a *API) updateItem(ctx handler.Context, req updateItemRequest) handler.Response {
	family, resp := writableFamily(req.Family)
	if resp != nil {
		return resp
	}
	patch := req.ItemPatch
	if patch.Title != nil {
		*patch.Title = sanitizer.Line(*patch.Title)
	}
	if patch.Content != nil {
		*patch.Content = sanitizer.Text(*patch.Content)
	}
	if patch.ImageURL != nil {
		*patch.ImageURL = sanitizer.Line(*patch.ImageURL)
	}
	if err := directory.ValidatePatch(patch); err != nil {
		return handler.Error(err)
	}

	t := owner(ctx)
	scope := directory.Scope{Owner: t.Ref(), Family: family}
	updated, err := a.Store.UpdateItem(ctx, scope, req.ItemID, patch)
	if err != nil {
		return fail(err)
	}
	if !patch.Empty() {
		a.record(ctx, activity.ItemUpdated, audit.WithResource(string(family), updated.ID))
	}
	return handler.JSON(updated)
}

type deleteItemRequest struct {
	Family string `path:"family"`
	ItemID string `path:"itemID"`
}

func (a *API) deleteItem(ctx handler.Context, req deleteItemRequest) handler.Response {
	family, resp := writableFamily(req.Family)
	if resp != nil {
		return resp
	}
	t := owner(ctx)
	if err := a.Store.DeleteItem(ctx, directory.Scope{Owner: t.Ref(), Family: family}, req.ItemID); err != nil {
		return fail(err)
	}
	a.record(ctx, activity.ItemDeleted, audit.WithResource(string(family), req.ItemID))
	return handler.EmptyWithStatus(http.StatusNoContent)
}
