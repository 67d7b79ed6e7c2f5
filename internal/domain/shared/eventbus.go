package shared

import "context"

// EventHandler consumes domain events. EventTypes declares which types the
// handler wants; a subscriber may override the declaration at registration.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventPublisher delivers domain events to registered handlers
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber manages handler registrations
type EventSubscriber interface {
	// Subscribe registers a handler. When eventTypes is empty the
	// handler's own EventTypes declaration is used.
	Subscribe(handler EventHandler, eventTypes ...string)
	// Unsubscribe removes the handler from every event type
	Unsubscribe(handler EventHandler)
}

// EventBus is the full publish/subscribe surface with lifecycle hooks
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
