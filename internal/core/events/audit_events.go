package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUserCreated  = "user.created"
	EventTypeUserUpdated  = "user.updated"
	EventTypeUserBanned   = "user.banned"
	EventTypeUserUnbanned = "user.unbanned"
	EventTypeUserDeleted  = "user.deleted"
	EventTypeToolsUpdated = "tools.updated"
	EventTypeFormCreated  = "form.created"
	EventTypeFormUpdated  = "form.updated"
	EventTypeFormDeleted  = "form.deleted"
)

// UserEvent records an account change and who made it. ActorID is 0 for system actions.
type UserEvent struct {
	BaseEvent
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	ActorID  int64  `json:"actor_id"`
}

func NewUserEvent(eventType string, userID int64, username string, actorID int64) *UserEvent {
	return &UserEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":  userID,
				"username": username,
				"actor_id": actorID,
			},
		},
		UserID:   userID,
		Username: username,
		ActorID:  actorID,
	}
}

type FormEvent struct {
	BaseEvent
	FormID string `json:"form_id"`
	Name   string `json:"name"`
	Actor  string `json:"actor"`
}

func NewFormEvent(eventType, formID, name, actor string) *FormEvent {
	return &FormEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"form_id": formID,
				"name":    name,
				"actor":   actor,
			},
		},
		FormID: formID,
		Name:   name,
		Actor:  actor,
	}
}

func NewToolsUpdatedEvent(tools []string, actorID int64) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeToolsUpdated,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"tools":    tools,
			"actor_id": actorID,
		},
	}
}
