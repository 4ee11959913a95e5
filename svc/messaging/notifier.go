package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/a-h/templ"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/async"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/email"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/i18n"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/logger"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
)

var ErrNoRecipientEmail = errors.New("messaging: recipient has no e-mail")

const previewLength = 280

// Notifier e-mails the other participant of a conversation about a new
// message. Delivery is best effort and runs on a background pool.
type Notifier struct {
	store   Store
	sender  email.Sender
	pool    *async.Pool
	baseURL string
	log     *slog.Logger
}

func NewNotifier(store Store, sender email.Sender, pool *async.Pool, baseURL string, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{
		store:   store,
		sender:  sender,
		pool:    pool,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

// NewMessage schedules the notification for msg.
func (n *Notifier) NewMessage(ctx context.Context, conv *directory.Conversation, msg directory.Message) {
	recipient := conv.Other(msg.Sender)
	err := n.pool.Submit(ctx, "message_notification", func(ctx context.Context) error {
		return n.deliver(ctx, conv.ID, recipient, msg)
	})
	if err != nil {
		n.log.WarnContext(ctx, "message notification dropped",
			logger.ConversationID(conv.ID),
			logger.Error(err),
		)
	}
}

func (n *Notifier) deliver(ctx context.Context, conversationID string, to directory.Participant, msg directory.Message) error {
	addr, err := n.address(ctx, to)
	if err != nil {
		return err
	}

	var body strings.Builder
	link := n.baseURL + "/conversations/" + conversationID
	if err := newMessageEmail(i18n.T(ctx, "messages.email_intro"), preview(msg.Text), link, i18n.T(ctx, "messages.email_open")).Render(ctx, &body); err != nil {
		return fmt.Errorf("render notification: %w", err)
	}

	return n.sender.Send(ctx, email.Message{
		To:       addr,
		Subject:  i18n.T(ctx, "messages.email_subject"),
		BodyHTML: body.String(),
		Tag:      "new-message",
	})
}

func (n *Notifier) address(ctx context.Context, p directory.Participant) (string, error) {
	var addr string
	if p.Kind == directory.KindUser {
		u, err := n.store.UserByAnyID(ctx, p.ID)
		if err != nil {
			return "", fmt.Errorf("load recipient: %w", err)
		}
		addr = u.Email
	} else {
		t, err := n.store.TenantByID(ctx, p.Kind, p.ID)
		if err != nil {
			return "", fmt.Errorf("load recipient: %w", err)
		}
		addr = t.Email
	}
	if addr == "" {
		return "", ErrNoRecipientEmail
	}
	return addr, nil
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	return string([]rune(text)[:previewLength]) + "…"
}

func newMessageEmail(intro, text, link, linkLabel string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		dir := i18n.Dir(i18n.GetLocale(ctx))
		_, err := fmt.Fprintf(w,
			`<div dir="%s"><p>%s</p><blockquote>%s</blockquote><p><a href="%s">%s</a></p></div>`,
			dir,
			templ.EscapeString(intro),
			templ.EscapeString(text),
			templ.EscapeString(link),
			templ.EscapeString(linkLabel),
		)
		return err
	})
}
