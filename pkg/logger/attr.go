package logger

import (
	"log/slog"
	"time"
)

// Error records err under "error". A nil error yields an empty Attr,
// which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// PrincipalID records the signed-in user's identity-provider id.
func PrincipalID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("principal_id", id)
}

// Tenant groups the tenant kind and id.
func Tenant(kind, id string) slog.Attr {
	return slog.Group("tenant", slog.String("kind", kind), slog.String("id", id))
}

func ConversationID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("conversation_id", id)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

func Event(name string) slog.Attr {
	return slog.String("event", name)
}
