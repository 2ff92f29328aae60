// Package event defines the domain events the request and match
// services publish through the dispatcher, and the payload conventions
// handlers read them with.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Payload carries event-specific details as loose key-value pairs.
// Producers fill it with strings and numbers; handlers read it through
// the typed accessors and treat missing keys as zero values.
type Payload map[string]interface{}

// Event is one domain occurrence. Events are fire-and-forget: they are
// published after the producing operation has committed, so handlers
// observe settled state.
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	RequestID string    `json:"request_id,omitempty"`
	Payload   Payload   `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent stamps a fresh event with an ID and the current time.
func NewEvent(eventType Type, requestID string, payload Payload) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RequestID: requestID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// GetPayloadString returns the string at key, or "" when the key is
// absent or holds something else.
func (e *Event) GetPayloadString(key string) string {
	s, _ := e.Payload[key].(string)
	return s
}

// GetPayloadFloat returns the number at key as a float64. Integer
// values are widened; anything else reads as 0.
func (e *Event) GetPayloadFloat(key string) float64 {
	switch v := e.Payload[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}
