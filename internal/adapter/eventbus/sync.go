// Package eventbus provides the in-process event bus the playback manager publishes on.
package eventbus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/soundstage/internal/domain"
	"github.com/tejashwikalptaru/soundstage/internal/ports"
)

// ErrClosed is returned by Close on a bus that was already closed.
var ErrClosed = errors.New("event bus already closed")

// wildcard is the key wildcard subscriptions are stored under.
const wildcard domain.EventType = "*"

// SyncEventBus delivers events synchronously on the publisher's goroutine.
// Type-specific handlers run before wildcard handlers, each in subscription order.
//
// Thread-safety: This implementation is thread-safe. The manager publishes from
// its tick goroutine while the UI subscribes from the main goroutine.
type SyncEventBus struct {
	logger *slog.Logger

	mu     sync.RWMutex
	subs   map[domain.EventType][]subscription
	index  map[domain.SubscriptionID]domain.EventType
	nextID uint64
	closed bool
}

type subscription struct {
	id      domain.SubscriptionID
	handler domain.EventHandler
}

// NewSyncEventBus creates a new synchronous event bus. logger may be nil.
func NewSyncEventBus(logger *slog.Logger) *SyncEventBus {
	return &SyncEventBus{
		logger: logger,
		subs:   make(map[domain.EventType][]subscription),
		index:  make(map[domain.SubscriptionID]domain.EventType),
	}
}

// Publish delivers event to its subscribers. A panicking handler is logged and
// does not prevent delivery to the remaining handlers.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}
	targets := make([]subscription, 0, len(bus.subs[event.Type()])+len(bus.subs[wildcard]))
	targets = append(targets, bus.subs[event.Type()]...)
	targets = append(targets, bus.subs[wildcard]...)
	bus.mu.RUnlock()

	for _, sub := range targets {
		bus.deliver(sub, event)
	}
}

func (bus *SyncEventBus) deliver(sub subscription, event domain.Event) {
	defer func() {
		if r := recover(); r != nil && bus.logger != nil {
			bus.logger.Error("event handler panicked",
				slog.Any("panic", r),
				slog.String("event_type", string(event.Type())),
				slog.String("subscription", string(sub.id)))
		}
	}()
	sub.handler(event)
}

// Subscribe registers handler for eventType. Subscribing to a closed bus
// returns an ID that never receives events.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	return bus.add(eventType, "sub", handler)
}

// SubscribeAll registers handler for every event type.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	return bus.add(wildcard, "sub-all", handler)
}

func (bus *SyncEventBus) add(eventType domain.EventType, prefix string, handler domain.EventHandler) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	bus.nextID++
	id := domain.SubscriptionID(fmt.Sprintf("%s-%d", prefix, bus.nextID))
	if bus.closed {
		return id
	}

	bus.subs[eventType] = append(bus.subs[eventType], subscription{id: id, handler: handler})
	bus.index[id] = eventType
	return id
}

// Unsubscribe removes a subscription, keeping the delivery order of the others.
// Unknown IDs are ignored.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	eventType, ok := bus.index[id]
	if !ok {
		return
	}
	delete(bus.index, id)

	subs := bus.subs[eventType]
	for i, sub := range subs {
		if sub.id == id {
			bus.subs[eventType] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(bus.subs[eventType]) == 0 {
		delete(bus.subs, eventType)
	}
}

// HasSubscribers reports whether publishing eventType would reach any handler.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.subs[eventType]) > 0 || len(bus.subs[wildcard]) > 0
}

// SubscriberCount returns the number of active subscriptions.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.index)
}

// Close drops every subscription. Later publishes are ignored.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return ErrClosed
	}
	bus.closed = true
	bus.subs = make(map[domain.EventType][]subscription)
	bus.index = make(map[domain.SubscriptionID]domain.EventType)
	return nil
}

var _ ports.EventBus = (*SyncEventBus)(nil)
