// Package events is the in-process event bus that carries entry, batch and
// grid-session events from the domain modules to their listeners (SSE
// notifications, audit logging). Event payloads live in internal/events.
package events

import (
	"context"
	"time"
)

// Event is anything published on the bus. EventName values are dotted
// "<context>.<subject>.<verb>" strings such as "entries.batch.submitted".
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent is embedded by every payload to stamp when it happened.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps an event with the current UTC time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now().UTC()}
}

// Handler reacts to one event. A returned error is logged by Publish and
// joined into the result of PublishSync.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a plain function subscribe.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus fans events out by name.
type Bus interface {
	// Publish hands the event to every subscriber in the background.
	Publish(ctx context.Context, event Event)

	// PublishSync runs subscribers in order on the caller's goroutine.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers handler for events whose EventName is eventName.
	Subscribe(eventName string, handler Handler)
}
