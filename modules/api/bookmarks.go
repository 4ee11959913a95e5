package api

import (
	"strings"

	"github.com/orbsaiuk/DatesHub-sub003/handler"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/validator"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
)

func (a *API) bookmarks(ctx handler.Context, _ struct{}) handler.Response {
	ids, err := a.Store.Bookmarks(ctx, principal(ctx).String())
	if err != nil {
		return fail(err)
	}
	if ids == nil {
		ids = []string{}
	}
	return handler.JSON(map[string]any{"bookmarks": ids})
}

type bookmarkRequest struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func (a *API) toggleBookmark(ctx handler.Context, req bookmarkRequest) handler.Response {
	ref, err := tenantRef(req.Type, req.ID)
	if err != nil {
		return handler.Error(err)
	}
	if _, err := a.Store.TenantByID(ctx, ref.Kind, ref.ID); err != nil {
		return fail(err)
	}

	on, err := a.Store.ToggleBookmark(ctx, principal(ctx).String(), ref)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(map[string]any{"bookmarked": on})
}

// tenantRef validates a kind and id pair sent by a client.
func tenantRef(kind, id string) (directory.TenantRef, error) {
	k, _ := directory.ParseKind(kind)
	id = strings.TrimSpace(id)
	err := validator.Apply(
		validator.OneOf("type", k, directory.TenantKinds),
		validator.RequiredString("id", id),
		validator.MaxRunes("id", id, 200),
	)
	return directory.TenantRef{Kind: k, ID: id}, err
}
