package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Review session event types
const (
	TypeSessionStarted   = "session.started"
	TypeCardGraded       = "card.graded"
	TypeSessionPaused    = "session.paused"
	TypeSessionResumed   = "session.resumed"
	TypeSessionCompleted = "session.completed"
	TypeSessionCancelled = "session.cancelled"
)

// ReviewEvent describes something that happened to a review session.
type ReviewEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	SessionID string        `json:"session_id"`
	UserID    uuid.NullUUID `json:"user_id"`

	// Payload carries type-specific details serialized as JSON
	Payload json.RawMessage `json:"payload,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *ReviewEvent) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewReviewEvent creates a ReviewEvent. A nil payload is left empty.
func NewReviewEvent(
	eventType, sessionID string,
	userID uuid.NullUUID,
	payload any,
	now time.Time,
) (*ReviewEvent, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	return &ReviewEvent{
		ID:        uuid.New(),
		Type:      eventType,
		SessionID: sessionID,
		UserID:    userID,
		Payload:   raw,
		CreatedAt: now.UTC(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *ReviewEvent) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *ReviewEvent) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *ReviewEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *ReviewEvent) error
}

// NopEmitter discards every event.
type NopEmitter struct{}

// EmitEvent implements EventEmitter.
func (NopEmitter) EmitEvent(context.Context, *ReviewEvent) error { return nil }
