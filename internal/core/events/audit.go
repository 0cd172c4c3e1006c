package events

import (
	"context"
	"log/slog"
)

// AuditedEventTypes lists the domain events the server publishes.
var AuditedEventTypes = []string{
	EventTypeUserCreated,
	EventTypeUserUpdated,
	EventTypeUserBanned,
	EventTypeUserUnbanned,
	EventTypeUserDeleted,
	EventTypeToolsUpdated,
	EventTypeFormCreated,
	EventTypeFormUpdated,
	EventTypeFormDeleted,
}

// AuditLogger returns a handler that writes each event to the audit log.
func AuditLogger(logger *slog.Logger) Handler {
	audit := logger.With("component", "audit")
	return func(ctx context.Context, event Event) error {
		audit.InfoContext(ctx, "audit event",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"occurred_at", event.OccurredAt(),
			"payload", event.Payload())
		return nil
	}
}
