// Package audit records who did what to which resource, and reads the
// records back by tenant, user, action and time range.
//
// A Logger fills events from the request context through extractors and
// hands them to a Storage. A Reader queries the same Storage and uses its
// Count method when the backend has one.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEventValidation indicates event validation failed.
	ErrEventValidation = errors.New("audit: event validation failed")

	// ErrInvalidEvent is returned by storages for events they cannot keep.
	ErrInvalidEvent = errors.New("audit: invalid event")
)

// Result is the outcome of an audited action.
type Result string

const (
	ResultSuccess Result = "success"
	ResultError   Result = "error"
)

type Event struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	UserID     string    `json:"user_id"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource,omitempty"`
	ResourceID string    `json:"resource_id,omitempty"`
	Result     Result    `json:"result"`
	Error      string    `json:"error,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Validate checks the fields every event needs.
func (e *Event) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrEventValidation)
	}
	return nil
}

// EventOption adjusts an event before it is stored.
type EventOption func(*Event)

// WithResource sets the resource type and ID.
func WithResource(resource, id string) EventOption {
	return func(e *Event) {
		e.Resource = resource
		e.ResourceID = id
	}
}

// WithTenantID overrides the tenant taken from the context.
func WithTenantID(id string) EventOption {
	return func(e *Event) { e.TenantID = id }
}

// WithUserID overrides the user taken from the context.
func WithUserID(id string) EventOption {
	return func(e *Event) { e.UserID = id }
}

// Criteria selects events. Zero fields match everything; results are
// newest first.
type Criteria struct {
	TenantID  string
	UserID    string
	Action    string
	StartTime time.Time
	EndTime   time.Time
	Offset    int
	Limit     int
}

// Storage persists and queries events.
type Storage interface {
	Store(ctx context.Context, events ...Event) error
	Query(ctx context.Context, criteria Criteria) ([]Event, error)
}

// StorageCounter is implemented by storages that count without loading
// the events.
type StorageCounter interface {
	Storage
	Count(ctx context.Context, criteria Criteria) (int64, error)
}
