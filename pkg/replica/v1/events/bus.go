package events

import "time"

// EventType names a kind of cloner event.
type EventType string

const (
	// CloneStarted is emitted when a top-level clone call begins.
	CloneStarted EventType = "CloneStarted"
	// CloneCompleted is emitted after a clone call returned a result.
	CloneCompleted EventType = "CloneCompleted"
	// CloneFailed is emitted when a clone call aborted with an error.
	CloneFailed EventType = "CloneFailed"
	// FinalFieldSkipped is emitted when a field tagged `clone:"final"` kept
	// the value its constructor assigned instead of the original's value.
	FinalFieldSkipped EventType = "FinalFieldSkipped"
	// ConstructorFallback is emitted when a registered constructor failed and
	// construction moved on to the next candidate.
	ConstructorFallback EventType = "ConstructorFallback"
)

// Event describes something notable that happened inside a clone call.
type Event struct {
	// Type categorizes the event.
	Type EventType `json:"type"`
	// Timestamp marks when the event occurred.
	Timestamp time.Time `json:"timestamp"`
	// CloneID correlates every event of one top-level clone call.
	CloneID string `json:"clone_id,omitempty"`
	// TypeName is the Go type the event is about.
	TypeName string `json:"type_name,omitempty"`
	// Payload carries event-specific details. Field values of the cloned
	// graph are never included.
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Bus publishes cloner events. Implementations must not block the caller
// for long: Emit runs on the cloning goroutine.
type Bus interface {
	Emit(event Event)
}
