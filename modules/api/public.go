package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/orbsaiuk/DatesHub-sub003/handler"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/logger"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/qrcode"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/validator"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
)

type idRequest struct {
	ID string `path:"id"`
}

// missingID answers a lookup whose id is absent.
func missingID() handler.Response {
	return handler.Error(validator.Apply(validator.RequiredString("id", "")))
}

func (a *API) blogTitle(ctx handler.Context, req idRequest) handler.Response {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return missingID()
	}
	blog, err := a.Store.BlogTitle(ctx, id)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(blog)
}

func (a *API) user(ctx handler.Context, req idRequest) handler.Response {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return missingID()
	}
	u, err := a.Store.UserByAnyID(ctx, id)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(u)
}

type kindQuery struct {
	Type string `query:"type"`
}

// categories never fails the caller; lookup errors yield an empty list.
func (a *API) categories(ctx handler.Context, req kindQuery) handler.Response {
	kind, _ := directory.ParseKind(req.Type)
	cats, err := a.Store.Categories(ctx, kind)
	if err != nil {
		a.Log.WarnContext(ctx, "categories unavailable", logger.Error(err))
		cats = nil
	}
	if cats == nil {
		cats = []directory.Category{}
	}
	return handler.JSON(cats)
}

// publicOffers lists published offers. The type defaults to company.
func (a *API) publicOffers(ctx handler.Context, req kindQuery) handler.Response {
	kind, ok := directory.ParseKind(req.Type)
	if !ok {
		kind = directory.KindCompany
	}
	offers, err := a.Store.PublicOffers(ctx, kind)
	if err != nil {
		return fail(err)
	}
	if offers == nil {
		offers = []directory.Item{}
	}
	return handler.JSON(map[string]any{"offers": offers})
}

type reviewsQuery struct {
	Type   string `query:"type"`
	ID     string `query:"id"`
	Offset int    `query:"offset"`
	Limit  int    `query:"limit"`
}

func (a *API) reviews(ctx handler.Context, req reviewsQuery) handler.Response {
	kind, _ := directory.ParseKind(req.Type)
	id := strings.TrimSpace(req.ID)
	if err := validator.Apply(
		validator.OneOf("type", kind, directory.TenantKinds),
		validator.RequiredString("id", id),
	); err != nil {
		return handler.Error(err)
	}

	reviews, total, err := a.Store.Reviews(ctx,
		directory.TenantRef{Kind: kind, ID: id},
		directory.Page{Offset: req.Offset, Limit: req.Limit},
	)
	if err != nil {
		return fail(err)
	}
	if reviews == nil {
		reviews = []directory.Review{}
	}
	return handler.JSON(map[string]any{"reviews": reviews, "total": total})
}

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 50
)

type searchQuery struct {
	Q     string `query:"q"`
	Type  string `query:"type"`
	Limit int    `query:"limit"`
}

func (a *API) search(ctx handler.Context, req searchQuery) handler.Response {
	kind, _ := directory.ParseKind(req.Type)
	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)

	hits, err := a.Search.Search(ctx, req.Q, kind, limit)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(map[string]any{"results": hits})
}

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

type qrRequest struct {
	Kind string `path:"kind"`
	ID   string `path:"id"`
	Size int    `query:"size"`
}

type pngResponse []byte

func (p pngResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(p)
	return err
}

// qrcode renders a PNG linking to the tenant's public page.
func (a *API) qrcode(ctx handler.Context, req qrRequest) handler.Response {
	kind, ok := directory.ParseKind(req.Kind)
	if !ok {
		return handler.Error(handler.ErrNotFound)
	}
	t, err := a.Store.TenantByID(ctx, kind, req.ID)
	if err != nil {
		return fail(err)
	}
	if t.Status != directory.TenantActive {
		return handler.Error(handler.ErrNotFound)
	}

	size := req.Size
	if size <= 0 {
		size = defaultQRSize
	}
	size = min(size, maxQRSize)

	link := strings.TrimRight(a.BaseURL, "/") + "/" + kind.Plural() + "/" + t.ID
	png, err := qrcode.PNG(link, size)
	if err != nil {
		return handler.Error(errors.Join(handler.ErrInternalServerError, err))
	}
	return pngResponse(png)
}
