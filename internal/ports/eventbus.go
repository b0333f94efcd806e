// Package ports define the EventBus interface for event-driven communication.
package ports

import (
	"github.com/tejashwikalptaru/audiolab/internal/domain"
)

// EventBus is the interface for publishing and subscribing to events.
//
// Services publish transport and demo events; the frontends subscribe to them
// and never call back into the publisher directly.
//
// Thread-safety: Implementations must be thread-safe. Progress events are
// published from the playback service's cursor goroutine while the UI
// subscribes from its own goroutine.
//
// Example usage:
//
//	bus.Publish(domain.NewPlaybackStartedEvent(0))
//
//	subID := bus.Subscribe(domain.EventPlaybackStarted, func(event domain.Event) {
//	    view.SetPlaying(true)
//	})
//
//	bus.Unsubscribe(subID)
type EventBus interface {
	// Publish delivers an event to all subscribers of its type and to every
	// SubscribeAll handler.
	Publish(event domain.Event)

	// Subscribe registers a handler for events of the specified type.
	// Each subscription gets a unique SubscriptionID.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a previously registered handler.
	// Unknown IDs are ignored.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers a handler that receives all events regardless of type.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers reports whether anything listens for the given event type.
	// Publishers use it to skip building events nobody consumes.
	HasSubscribers(eventType domain.EventType) bool

	// Close drops every subscription. Publish after Close is a no-op.
	Close() error
}
