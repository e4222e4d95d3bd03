package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	// EventStateChanged fires on every auth state transition.
	EventStateChanged EventType = "auth.state_changed"

	EventSessionRestored    EventType = "auth.session_restored"
	EventSessionEstablished EventType = "auth.session_established"
	EventSessionEnded       EventType = "auth.session_ended"
	EventSessionInvalidated EventType = "auth.session_invalidated"
)

// SessionEvents lists the specific session lifecycle events.
var SessionEvents = []EventType{
	EventSessionRestored,
	EventSessionEstablished,
	EventSessionEnded,
	EventSessionInvalidated,
}

// Event represents something the auth machine did.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Cause     string      `json:"cause"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with an id and time.
func New(eventType EventType, cause string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Cause:     cause,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
