// Package eventbus provides implementations of the EventBus interface.
package eventbus

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/audiolab/internal/domain"
	"github.com/tejashwikalptaru/audiolab/internal/ports"
)

// ErrClosed is returned by Close on a bus that is already closed.
var ErrClosed = errors.New("event bus already closed")

// SyncEventBus delivers events on the publishing goroutine.
//
// Type subscribers run first, in subscription order, then wildcard
// subscribers. A handler that panics is logged and skipped; the remaining
// handlers still run. Publishing happens from the cursor goroutine and the UI
// goroutine, so handlers that touch widgets must hop to the UI thread.
//
// Thread-safety: This implementation is thread-safe.
type SyncEventBus struct {
	logger *slog.Logger

	mu         sync.RWMutex
	byType     map[domain.EventType][]subscription
	wildcard   []subscription
	closed     bool
	nextID     atomic.Uint64
	panics     atomic.Uint64
	deliveries atomic.Uint64
}

type subscription struct {
	id      domain.SubscriptionID
	handler domain.EventHandler
}

// NewSyncEventBus creates a bus. A nil logger discards.
func NewSyncEventBus(logger *slog.Logger) *SyncEventBus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SyncEventBus{
		logger: logger.With(slog.String("component", "eventbus")),
		byType: make(map[domain.EventType][]subscription),
	}
}

// Publish delivers event to its subscribers. It is a no-op after Close.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}
	targets := make([]subscription, 0, len(bus.byType[event.Type()])+len(bus.wildcard))
	targets = append(targets, bus.byType[event.Type()]...)
	targets = append(targets, bus.wildcard...)
	bus.mu.RUnlock()

	for _, sub := range targets {
		bus.deliver(sub, event)
	}
}

func (bus *SyncEventBus) deliver(sub subscription, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			bus.panics.Add(1)
			bus.logger.Error("event handler panicked",
				slog.Any("panic", r),
				slog.String("event_type", string(event.Type())),
				slog.String("subscription", string(sub.id)))
		}
	}()

	bus.deliveries.Add(1)
	sub.handler(event)
}

// Subscribe registers handler for one event type.
// It panics on a nil handler or a closed bus, both programming errors.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	sub := bus.newSubscription(string(eventType), handler)

	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.mustBeOpen()

	bus.byType[eventType] = append(bus.byType[eventType], sub)
	return sub.id
}

// SubscribeAll registers handler for every event type.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	sub := bus.newSubscription("*", handler)

	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.mustBeOpen()

	bus.wildcard = append(bus.wildcard, sub)
	return sub.id
}

func (bus *SyncEventBus) newSubscription(scope string, handler domain.EventHandler) subscription {
	if handler == nil {
		panic("eventbus: nil handler")
	}
	return subscription{
		id:      domain.SubscriptionID(fmt.Sprintf("%s#%d", scope, bus.nextID.Add(1))),
		handler: handler,
	}
}

// mustBeOpen panics when the bus is closed. Caller holds bus.mu.
func (bus *SyncEventBus) mustBeOpen() {
	if bus.closed {
		panic("eventbus: subscribe after close")
	}
}

// Unsubscribe removes a subscription. Unknown IDs are ignored.
// The order of the remaining subscribers is preserved.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	match := func(s subscription) bool { return s.id == id }

	for eventType, subs := range bus.byType {
		if slices.ContainsFunc(subs, match) {
			bus.byType[eventType] = slices.DeleteFunc(subs, match)
			return
		}
	}
	bus.wildcard = slices.DeleteFunc(bus.wildcard, match)
}

// HasSubscribers reports whether publishing eventType would reach anyone.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.byType[eventType]) > 0 || len(bus.wildcard) > 0
}

// Close drops all subscriptions. Later publishes are ignored.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return ErrClosed
	}
	bus.closed = true
	bus.byType = make(map[domain.EventType][]subscription)
	bus.wildcard = nil

	bus.logger.Debug("event bus closed",
		slog.Uint64("deliveries", bus.deliveries.Load()),
		slog.Uint64("panics", bus.panics.Load()))
	return nil
}

// SubscriberCount returns the number of active subscriptions.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	n := len(bus.wildcard)
	for _, subs := range bus.byType {
		n += len(subs)
	}
	return n
}

// Panics returns how many handler panics were recovered.
func (bus *SyncEventBus) Panics() uint64 {
	return bus.panics.Load()
}

var _ ports.EventBus = (*SyncEventBus)(nil)
