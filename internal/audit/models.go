package audit

import "time"

// Event is an immutable, append-only audit record of something unusual that
// happened during a conversation turn.
//
// Invariants:
// - Events are never updated or deleted.
// - call_id is required; conversation_id is set once the conversation exists.
// - Audit is best-effort; never block a turn on audit failures.
//
// Storage (Postgres): table conversation_audit_events, INSERT-only.
type Event struct {
	ID             string `json:"id" db:"id"`
	CallID         string `json:"call_id" db:"call_id"`
	ConversationID string `json:"conversation_id,omitempty" db:"conversation_id"`

	Type EventType `json:"type" db:"type"`

	// EventKey is the idempotency key of the inbound event, when relevant.
	EventKey string `json:"event_key,omitempty" db:"event_key"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeFallback          EventType = "turn_fallback"
	EventTypeDuplicateDelivery EventType = "duplicate_delivery"
	EventTypeSuperseded        EventType = "superseded_event"
	EventTypeMootDirective     EventType = "moot_directive"
	EventTypeCallClosed        EventType = "call_closed"
	EventTypeTurnFailed        EventType = "turn_failed"
)
