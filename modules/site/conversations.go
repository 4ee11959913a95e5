package site

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/orbsaiuk/DatesHub-sub003/handler"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/i18n"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/logger"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/validator"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
	"github.com/orbsaiuk/DatesHub-sub003/svc/messaging"
	"github.com/orbsaiuk/DatesHub-sub003/views"
)

func (s *Site) inbox(ctx handler.Context, _ struct{}) handler.Response {
	p, _ := principal(ctx)
	convs, err := s.Messaging.UserInbox(ctx, p)
	if err != nil {
		return fail(err)
	}
	return handler.Templ(views.InboxPage(convs, directory.Participant{Kind: directory.KindUser, ID: p.String()}))
}

type startForm struct {
	TenantID string `form:"tenantId"`
}

// startConversation opens the thread with a company from its detail page.
func (s *Site) startConversation(ctx handler.Context, req startForm) handler.Response {
	p, _ := principal(ctx)
	conv, err := s.Messaging.StartUserConversation(ctx, p, req.TenantID)
	if err != nil {
		return fail(err)
	}
	return handler.Redirect("/conversations/" + conv.ID)
}

// threadParam names the conversation and, for owners of more than one
// participant, the side to act as.
type threadParam struct {
	ID string `path:"id"`
	As string `query:"as"`
}

func (s *Site) thread(ctx handler.Context, req threadParam) handler.Response {
	p, _ := principal(ctx)
	as, err := messaging.ParseSide(req.As)
	if err != nil {
		return fail(err)
	}
	th, err := s.Messaging.Thread(ctx, p, as, req.ID)
	if err != nil {
		return fail(err)
	}
	crumbs := []views.Crumb{
		{Label: i18n.T(ctx, "nav.home"), URL: "/"},
		{Label: i18n.T(ctx, "messages.inbox"), URL: "/conversations"},
	}
	if th.Me.Kind.IsTenant() {
		crumbs[1] = views.Crumb{
			Label: i18n.T(ctx, "families.messages"),
			URL:   "/business/" + string(th.Me.Kind) + "/" + string(directory.FamilyMessages),
		}
	}
	return handler.Templ(views.ThreadPage(views.ThreadData{Thread: th, Crumbs: crumbs}))
}

type messageForm struct {
	ID   string `path:"id"`
	As   string `query:"as"`
	Text string `form:"text"`
}

// send appends a message. DataStar clients get a fresh form; the message
// itself reaches every open thread through the stream.
func (s *Site) send(ctx handler.Context, req messageForm) handler.Response {
	p, _ := principal(ctx)
	as, err := messaging.ParseSide(req.As)
	if err != nil {
		return fail(err)
	}
	_, err = s.Messaging.Send(ctx, p, as, req.ID, req.Text)
	if verrs := validator.ExtractValidationErrors(err); len(verrs) > 0 && handler.IsDataStar(ctx.Request()) {
		msg := i18n.T(ctx, verrs[0].TranslationKey, verrs[0].TranslationArgs()...)
		return handler.Templ(views.MessageForm(req.ID, as, msg), handler.WithTarget(views.FormTarget))
	}
	if err != nil {
		return fail(err)
	}
	if handler.IsDataStar(ctx.Request()) {
		return handler.Templ(views.MessageForm(req.ID, as, ""), handler.WithTarget(views.FormTarget))
	}
	return handler.Redirect(views.ThreadURL(req.ID, as))
}

// stream pushes new messages of a conversation over SSE until the client
// goes away.
func (s *Site) stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, _ := principal(ctx)
	id := chi.URLParam(r, "id")

	as, err := messaging.ParseSide(r.URL.Query().Get("as"))
	if err != nil {
		s.onError(handler.NewContext(w, r), errorFor(err))
		return
	}
	_, me, err := s.Messaging.Authorize(ctx, p, as, id)
	if err != nil {
		s.onError(handler.NewContext(w, r), errorFor(err))
		return
	}
	sub, err := s.Messaging.Subscribe(ctx, p, as, id)
	if err != nil {
		s.onError(handler.NewContext(w, r), errorFor(err))
		return
	}
	defer sub.Close()

	sse := datastar.NewSSE(w, r)
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-sub.Receive():
			if !ok {
				return
			}
			if err := sse.PatchElementTempl(views.MessageItem(m, me),
				datastar.WithSelector(views.MessagesTarget),
				datastar.WithMode(datastar.ElementPatchModeAppend),
			); err != nil {
				s.Log.DebugContext(ctx, "stream closed", logger.ConversationID(id), logger.Error(err))
				return
			}
		}
	}
}
