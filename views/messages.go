package views

import (
	"github.com/a-h/templ"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/i18n"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
	"github.com/orbsaiuk/DatesHub-sub003/svc/messaging"
	"github.com/orbsaiuk/DatesHub-sub003/svc/namecache"
)

// MessagesTarget is the element live messages are appended to.
const MessagesTarget = "#messages"

// FormTarget is the message form replaced after each send.
const FormTarget = "#message-form"

// ThreadURL is the conversation page, acting as the tenant side when as
// is a tenant kind.
func ThreadURL(conversationID string, as directory.Kind) string {
	return "/conversations/" + conversationID + sideQuery(as)
}

func sideQuery(as directory.Kind) string {
	if !as.IsTenant() {
		return ""
	}
	return "?as=" + string(as)
}

// ConversationList links to each conversation with its latest message.
func ConversationList(convs []directory.Conversation, me directory.Participant) templ.Component {
	return component(func(p *page) {
		if len(convs) == 0 {
			p.raw(`<p class="empty">`)
			p.t("common.empty")
			p.raw(`</p>`)
			return
		}
		p.raw(`<ul class="conversations">`)
		for _, c := range convs {
			other := c.Other(me)
			p.tag(`<li><a href="%s">%s</a>`, ThreadURL(c.ID, me.Kind), participantLabel(p, other))
			if c.LastMessage != "" {
				p.tag(` <span class="preview">%s</span>`, c.LastMessage)
			}
			p.raw(`</li>`)
		}
		p.raw(`</ul>`)
	})
}

// participantLabel is the participant's name, or a generic label for users.
func participantLabel(p *page, who directory.Participant) string {
	if who.Kind == directory.KindUser {
		return i18n.T(p.ctx, "messages.customer")
	}
	if names := namecache.FromContext(p.ctx); names != nil {
		return names.Tenant(p.ctx, who.Kind, who.ID)
	}
	return who.ID
}

type ThreadData struct {
	Thread *messaging.Thread
	Crumbs []Crumb
	Inbox  string
}

// ThreadPage shows a conversation and keeps it live over SSE.
func ThreadPage(data ThreadData) templ.Component {
	return component(func(p *page) {
		conv := data.Thread.Conversation
		title := participantLabel(p, conv.Other(data.Thread.Me))

		p.render(Layout(title, data.Crumbs, component(func(p *page) {
			p.tag(`<h1>%s</h1>`, title)
			as := data.Thread.Me.Kind
			p.tag(`<ol id="messages" data-init="@get('/conversations/%s/stream%s')">`, conv.ID, sideQuery(as))
			for _, m := range data.Thread.Messages {
				p.render(MessageItem(m, data.Thread.Me))
			}
			p.raw(`</ol>`)
			p.render(MessageForm(conv.ID, as, ""))
		})))
	})
}

// MessageItem is one message, marked as own or theirs.
func MessageItem(m directory.Message, me directory.Participant) templ.Component {
	return component(func(p *page) {
		class := "theirs"
		if m.Sender == me {
			class = "mine"
		}
		p.tag(`<li id="msg-%s" class="%s"><p>%s</p><time datetime="%s">%s</time></li>`,
			m.ID, class, m.Text,
			m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), m.CreatedAt.Format("2006-01-02 15:04"))
	})
}

// MessageForm posts with DataStar when available and as a plain form
// otherwise. errMsg is shown above the input.
func MessageForm(conversationID string, as directory.Kind, errMsg string) templ.Component {
	return component(func(p *page) {
		action := "/conversations/" + conversationID + "/messages" + sideQuery(as)
		p.tag(`<form id="message-form" method="post" action="%s" data-on-submit="@post('%s', {contentType: 'form'})">`, action, action)
		if errMsg != "" {
			p.tag(`<p class="field-error">%s</p>`, errMsg)
		}
		p.tag(`<textarea name="text" maxlength="%s" required></textarea>`, messaging.MaxMessageLength)
		p.raw(`<button type="submit">`)
		p.t("messages.send")
		p.raw(`</button></form>`)
	})
}

// InboxPage lists a user's conversations.
func InboxPage(convs []directory.Conversation, me directory.Participant) templ.Component {
	return component(func(p *page) {
		title := i18n.T(p.ctx, "messages.inbox")
		p.render(Layout(title, nil, component(func(p *page) {
			p.tag(`<h1>%s</h1>`, title)
			p.render(ConversationList(convs, me))
		})))
	})
}
