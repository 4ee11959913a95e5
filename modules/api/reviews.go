package api

import (
	"net/http"

	"github.com/orbsaiuk/DatesHub-sub003/handler"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/logger"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/sanitizer"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/validator"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
)

const (
	maxReviewTitle   = 200
	maxReviewContent = 5000
)

type reviewRequest struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (a *API) createReview(ctx handler.Context, req reviewRequest) handler.Response {
	title := sanitizer.Line(req.Title)
	content := sanitizer.Text(req.Content)
	ref, err := tenantRef(req.Type, req.ID)
	verr := validator.ExtractValidationErrors(err)
	if err := validator.Apply(
		validator.RangeNum("rating", req.Rating, 1, 5),
		validator.MaxRunes("title", title, maxReviewTitle),
		validator.RequiredString("content", content),
		validator.MaxRunes("content", content, maxReviewContent),
	); err != nil {
		verr = append(verr, validator.ExtractValidationErrors(err)...)
	}
	if len(verr) > 0 {
		return handler.Error(verr)
	}
	if _, err := a.Store.TenantByID(ctx, ref.Kind, ref.ID); err != nil {
		return fail(err)
	}

	me := principal(ctx).String()
	author := ""
	if u, err := a.Store.UserByAnyID(ctx, me); err == nil {
		author = u.Name
	} else {
		a.Log.WarnContext(ctx, "review author unknown", logger.PrincipalID(me), logger.Error(err))
	}

	review, err := a.Store.CreateReview(ctx, directory.Review{
		Target:     ref,
		Rating:     req.Rating,
		Title:      title,
		Content:    content,
		AuthorID:   me,
		AuthorName: author,
	})
	if err != nil {
		return fail(err)
	}
	return handler.JSON(review, handler.WithJSONStatus(http.StatusCreated))
}
