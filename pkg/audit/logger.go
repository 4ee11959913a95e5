package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// contextExtractor returns a value from the context and whether it was set.
type contextExtractor func(context.Context) (string, bool)

type Logger struct {
	storage            Storage
	tenantIDExtractor  contextExtractor
	userIDExtractor    contextExtractor
	requestIDExtractor contextExtractor
	now                func() time.Time
}

// Option configures a Logger.
type Option func(*Logger)

func WithTenantIDExtractor(fn func(context.Context) (string, bool)) Option {
	return func(l *Logger) { l.tenantIDExtractor = fn }
}

func WithUserIDExtractor(fn func(context.Context) (string, bool)) Option {
	return func(l *Logger) { l.userIDExtractor = fn }
}

func WithRequestIDExtractor(fn func(context.Context) (string, bool)) Option {
	return func(l *Logger) { l.requestIDExtractor = fn }
}

// WithClock sets the time source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLogger creates a logger writing to storage.
func NewLogger(storage Storage, opts ...Option) *Logger {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}
	l := &Logger{storage: storage, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log records a successful action.
func (l *Logger) Log(ctx context.Context, action string, opts ...EventOption) error {
	return l.store(ctx, l.event(ctx, action, ResultSuccess), opts)
}

// LogError records a failed action.
func (l *Logger) LogError(ctx context.Context, action string, err error, opts ...EventOption) error {
	event := l.event(ctx, action, ResultError)
	if err != nil {
		event.Error = err.Error()
	}
	return l.store(ctx, event, opts)
}

func (l *Logger) store(ctx context.Context, event Event, opts []EventOption) error {
	for _, opt := range opts {
		opt(&event)
	}
	if err := event.Validate(); err != nil {
		return err
	}
	return l.storage.Store(ctx, event)
}

func (l *Logger) event(ctx context.Context, action string, result Result) Event {
	event := Event{
		ID:        uuid.New().String(),
		Action:    action,
		Result:    result,
		CreatedAt: l.now().UTC(),
	}
	if v, ok := extract(ctx, l.tenantIDExtractor); ok {
		event.TenantID = v
	}
	if v, ok := extract(ctx, l.userIDExtractor); ok {
		event.UserID = v
	}
	if v, ok := extract(ctx, l.requestIDExtractor); ok {
		event.RequestID = v
	}
	return event
}

func extract(ctx context.Context, fn contextExtractor) (string, bool) {
	if fn == nil {
		return "", false
	}
	return fn(ctx)
}
