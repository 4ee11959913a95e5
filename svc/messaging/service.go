// Package messaging opens conversations between users and tenants, or
// between tenants, and delivers messages within them.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/audit"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/broadcast"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/logger"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/metrics"
	"github.com/orbsaiuk/DatesHub-sub003/svc/activity"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
	"github.com/orbsaiuk/DatesHub-sub003/svc/identity"
)

var (
	ErrConversationNotFound = errors.New("messaging: conversation not found")
	ErrCounterpartNotFound  = errors.New("messaging: counterpart not found")
	ErrNotParticipant       = errors.New("messaging: not a participant")
	// ErrAmbiguousParticipant means the principal could act as more than
	// one side of the conversation and did not say which.
	ErrAmbiguousParticipant = errors.New("messaging: acting side is ambiguous")
)

// Store is the part of the directory messaging works with.
type Store interface {
	TenantByID(ctx context.Context, kind directory.Kind, id string) (*directory.Tenant, error)
	UserByAnyID(ctx context.Context, id string) (*directory.User, error)
	FindOrCreateConversation(ctx context.Context, a, b directory.Participant) (*directory.Conversation, error)
	ConversationsFor(ctx context.Context, p directory.Participant) ([]directory.Conversation, error)
	ConversationByID(ctx context.Context, id string) (*directory.Conversation, error)
	AppendMessage(ctx context.Context, m directory.Message) (*directory.Message, error)
	Messages(ctx context.Context, conversationID string) ([]directory.Message, error)
}

// ActivityLogger records tenant writes; *audit.Logger implements it.
type ActivityLogger interface {
	Log(ctx context.Context, action string, opts ...audit.EventOption) error
}

type Service struct {
	store    Store
	live     broadcast.Broadcaster[directory.Message]
	activity ActivityLogger
	notifier *Notifier
	metrics  *metrics.Metrics
	log      *slog.Logger
}

type Option func(*Service)

// WithBroadcaster publishes every new message on the conversation's topic.
func WithBroadcaster(b broadcast.Broadcaster[directory.Message]) Option {
	return func(s *Service) { s.live = b }
}

func WithActivity(l ActivityLogger) Option {
	return func(s *Service) { s.activity = l }
}

// WithNotifier e-mails the other participant about new messages.
func WithNotifier(n *Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func userParticipant(p identity.PrincipalID) directory.Participant {
	return directory.Participant{Kind: directory.KindUser, ID: p.String()}
}

func (s *Service) counterpart(ctx context.Context, kind directory.Kind, id string) (*directory.Tenant, error) {
	t, err := s.store.TenantByID(ctx, kind, id)
	switch {
	case errors.Is(err, directory.ErrNotFound):
		return nil, ErrCounterpartNotFound
	case err != nil:
		return nil, fmt.Errorf("load counterpart: %w", err)
	}
	return t, nil
}

// StartUserConversation opens, or returns the existing, conversation
// between a signed-in user and a company.
func (s *Service) StartUserConversation(ctx context.Context, user identity.PrincipalID, companyID string) (*directory.Conversation, error) {
	if err := ValidateUserConversation(companyID); err != nil {
		return nil, err
	}
	company, err := s.counterpart(ctx, directory.KindCompany, companyID)
	if err != nil {
		return nil, err
	}

	conv, err := s.store.FindOrCreateConversation(ctx,
		userParticipant(user),
		directory.Participant{Kind: company.Kind, ID: company.ID},
	)
	if err != nil {
		return nil, fmt.Errorf("start conversation: %w", err)
	}
	return conv, nil
}

// StartBusinessConversation opens a conversation from the tenant the actor
// administers to another tenant.
func (s *Service) StartBusinessConversation(ctx context.Context, actor identity.PrincipalID, from *directory.Tenant, toKind directory.Kind, toID string) (*directory.Conversation, error) {
	if err := ValidateBusinessConversation(from.Kind, from.ID, toKind, toID); err != nil {
		return nil, err
	}
	to, err := s.counterpart(ctx, toKind, toID)
	if err != nil {
		return nil, err
	}

	conv, err := s.store.FindOrCreateConversation(ctx,
		directory.Participant{Kind: from.Kind, ID: from.ID},
		directory.Participant{Kind: to.Kind, ID: to.ID},
	)
	if err != nil {
		return nil, fmt.Errorf("start conversation: %w", err)
	}

	s.record(ctx, activity.ConversationStarted, from.Ref(), actor, conv.ID)
	return conv, nil
}

// Thread is a conversation seen by one of its participants.
type Thread struct {
	Conversation *directory.Conversation
	Me           directory.Participant
	Messages     []directory.Message
}

func (s *Service) conversation(ctx context.Context, id string) (*directory.Conversation, error) {
	if err := ValidateConversationID(id); err != nil {
		return nil, err
	}
	conv, err := s.store.ConversationByID(ctx, id)
	switch {
	case errors.Is(err, directory.ErrNotFound):
		return nil, ErrConversationNotFound
	case err != nil:
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	return conv, nil
}

// participantFor finds the side of conv that principal acts as: the user
// itself, or a tenant the principal administers. as selects the side when
// the principal could act as more than one; empty means any.
func (s *Service) participantFor(ctx context.Context, principal identity.PrincipalID, as directory.Kind, conv *directory.Conversation) (directory.Participant, error) {
	var sides []directory.Participant
	if me := userParticipant(principal); (as == "" || as == directory.KindUser) && conv.Has(me) {
		sides = append(sides, me)
	}
	for _, p := range conv.Participants {
		if !p.Kind.IsTenant() || (as != "" && p.Kind != as) {
			continue
		}
		t, err := s.store.TenantByID(ctx, p.Kind, p.ID)
		if errors.Is(err, directory.ErrNotFound) {
			continue
		}
		if err != nil {
			return directory.Participant{}, fmt.Errorf("load participant: %w", err)
		}
		if t.OwnedBy(principal.String()) {
			sides = append(sides, p)
		}
	}
	switch len(sides) {
	case 0:
		return directory.Participant{}, ErrNotParticipant
	case 1:
		return sides[0], nil
	}
	return directory.Participant{}, ErrAmbiguousParticipant
}

// Thread returns the conversation with its messages, oldest first.
func (s *Service) Thread(ctx context.Context, principal identity.PrincipalID, as directory.Kind, conversationID string) (*Thread, error) {
	conv, me, err := s.Authorize(ctx, principal, as, conversationID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.store.Messages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	return &Thread{Conversation: conv, Me: me, Messages: msgs}, nil
}

// Authorize checks that principal takes part in the conversation, acting
// as the given side when as is set.
func (s *Service) Authorize(ctx context.Context, principal identity.PrincipalID, as directory.Kind, conversationID string) (*directory.Conversation, directory.Participant, error) {
	conv, err := s.conversation(ctx, conversationID)
	if err != nil {
		return nil, directory.Participant{}, err
	}
	me, err := s.participantFor(ctx, principal, as, conv)
	if err != nil {
		return nil, directory.Participant{}, err
	}
	return conv, me, nil
}

// Send validates and appends a message from principal, then fans it out to
// live subscribers and notifies the other side.
func (s *Service) Send(ctx context.Context, principal identity.PrincipalID, as directory.Kind, conversationID, text string) (*directory.Message, error) {
	text, err := ValidateMessageText(text)
	if err != nil {
		return nil, err
	}
	conv, me, err := s.Authorize(ctx, principal, as, conversationID)
	if err != nil {
		return nil, err
	}

	msg, err := s.store.AppendMessage(ctx, directory.Message{
		ConversationID: conv.ID,
		Sender:         me,
		Text:           text,
	})
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	s.metrics.MessageSent(conversationType(conv))
	if s.live != nil {
		if err := s.live.Publish(ctx, conv.ID, *msg); err != nil {
			s.log.WarnContext(ctx, "live publish failed", logger.ConversationID(conv.ID), logger.Error(err))
		}
	}
	if me.Kind.IsTenant() {
		s.record(ctx, activity.MessageSent, directory.TenantRef{Kind: me.Kind, ID: me.ID}, principal, conv.ID)
	}
	if s.notifier != nil {
		s.notifier.NewMessage(ctx, conv, *msg)
	}
	return msg, nil
}

// Inbox lists the conversations of p, most recent first.
func (s *Service) Inbox(ctx context.Context, p directory.Participant) ([]directory.Conversation, error) {
	convs, err := s.store.ConversationsFor(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("load inbox: %w", err)
	}
	return convs, nil
}

// UserInbox is Inbox for the principal as a user.
func (s *Service) UserInbox(ctx context.Context, principal identity.PrincipalID) ([]directory.Conversation, error) {
	return s.Inbox(ctx, userParticipant(principal))
}

// Subscribe streams new messages of a conversation the principal takes part
// in until ctx is done.
func (s *Service) Subscribe(ctx context.Context, principal identity.PrincipalID, as directory.Kind, conversationID string) (broadcast.Subscriber[directory.Message], error) {
	if s.live == nil {
		return nil, errors.New("messaging: live updates disabled")
	}
	conv, _, err := s.Authorize(ctx, principal, as, conversationID)
	if err != nil {
		return nil, err
	}
	return s.live.Subscribe(ctx, conv.ID), nil
}

func (s *Service) record(ctx context.Context, action string, tenant directory.TenantRef, actor identity.PrincipalID, conversationID string) {
	if s.activity == nil {
		return
	}
	err := s.activity.Log(ctx, action,
		audit.WithTenantID(activity.TenantID(tenant)),
		audit.WithUserID(actor.String()),
		audit.WithResource(activity.ResourceConversation, conversationID),
	)
	if err != nil {
		s.log.WarnContext(ctx, "activity not recorded",
			logger.Component("messaging"),
			logger.Event(action),
			logger.Error(err),
		)
	}
}

func conversationType(c *directory.Conversation) string {
	if c.Participants[0].Kind == directory.KindUser || c.Participants[1].Kind == directory.KindUser {
		return "user"
	}
	return "business"
}
