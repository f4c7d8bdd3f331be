package bus

import "time"

// EventBus is an in-process pub/sub bus for simulation lifecycle events.
//
// Delivery is synchronous, in the publisher's goroutine, so handlers must be
// quick. Publishers must not hold locks a handler might need. Handler
// errors are joined and returned from Publish.
type EventBus interface {
	// Publish delivers event to the subscribers of event.Type and to every
	// wildcard subscriber.
	Publish(event Event) error
	// Subscribe registers handler for one event type. AllEvents subscribes
	// to everything.
	Subscribe(eventType EventType, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels sub. Nil is ignored.
	Unsubscribe(sub Subscription) error
	// Stats returns delivery counters.
	Stats() Stats
}

// EventType routes an event to its handlers.
type EventType string

const (
	// AllEvents is the wildcard subscription key.
	AllEvents EventType = "*"

	WorldCollided  EventType = "world.collided"
	WorldRestarted EventType = "world.restarted"
	SceneLoaded    EventType = "world.scene_loaded"
)

// Event is a value published on the bus. Data is read-only for handlers.
type Event struct {
	Type      EventType `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

type (
	EventHandler func(event Event) error
)

// Subscription is a registered handler. Cancel is idempotent.
type Subscription interface {
	ID() string
	EventType() EventType
	IsActive() bool
	Cancel() error
}

type Stats struct {
	Published   uint64
	Delivered   uint64
	Errors      uint64
	Subscribers int
}
