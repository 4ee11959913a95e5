package api

import (
	"net/http"

	"github.com/orbsaiuk/DatesHub-sub003/handler"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
	"github.com/orbsaiuk/DatesHub-sub003/svc/messaging"
)

type startConversationRequest struct {
	TenantID string `json:"tenantId"`
}

// startUserConversation opens (or reuses) the conversation between the
// caller and a company.
func (a *API) startUserConversation(ctx handler.Context, req startConversationRequest) handler.Response {
	conv, err := a.Messaging.StartUserConversation(ctx, principal(ctx), req.TenantID)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(conv)
}

type startBusinessConversationRequest struct {
	ToType string `json:"toType"`
	ToID   string `json:"toId"`
}

func (a *API) startBusinessConversation(ctx handler.Context, req startBusinessConversationRequest) handler.Response {
	from := owner(ctx)
	toKind, _ := directory.ParseKind(req.ToType)
	conv, err := a.Messaging.StartBusinessConversation(ctx, principal(ctx), from, toKind, req.ToID)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(conv)
}

// As picks the side to act as when the caller owns more than one
// participant of the conversation.
type conversationRequest struct {
	ID string `path:"id" json:"-"`
	As string `query:"as" json:"-"`
}

func (a *API) messages(ctx handler.Context, req conversationRequest) handler.Response {
	as, err := messaging.ParseSide(req.As)
	if err != nil {
		return handler.Error(err)
	}
	thread, err := a.Messaging.Thread(ctx, principal(ctx), as, req.ID)
	if err != nil {
		return fail(err)
	}
	msgs := thread.Messages
	if msgs == nil {
		msgs = []directory.Message{}
	}
	return handler.JSON(map[string]any{
		"conversation": thread.Conversation,
		"me":           thread.Me,
		"messages":     msgs,
	})
}

type sendMessageRequest struct {
	ID   string `path:"id" json:"-"`
	As   string `json:"as"`
	Text string `json:"text"`
}

func (a *API) sendMessage(ctx handler.Context, req sendMessageRequest) handler.Response {
	as, err := messaging.ParseSide(req.As)
	if err != nil {
		return handler.Error(err)
	}
	msg, err := a.Messaging.Send(ctx, principal(ctx), as, req.ID, req.Text)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(msg, handler.WithJSONStatus(http.StatusCreated))
}
