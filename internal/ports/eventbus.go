// Package ports define the EventBus interface used to observe the playback core.
package ports

import (
	"github.com/tejashwikalptaru/soundstage/internal/domain"
)

// EventBus delivers domain events from the manager to observers such as the desk UI.
// Publishers never know who is listening.
//
// Thread-safety: Implementations must be thread-safe; the manager publishes from the
// tick goroutine while the UI subscribes from its own.
//
// Example usage:
//
//	subID := bus.Subscribe(domain.EventSlotFinished, func(event domain.Event) {
//	    e := event.(domain.SlotFinishedEvent)
//	    view.SetActiveCount(e.ActiveCount)
//	})
//	defer bus.Unsubscribe(subID)
type EventBus interface {
	// Publish delivers event to every subscriber of its type and to wildcard subscribers.
	// Handlers must return quickly; the publisher is the manager's tick thread.
	Publish(event domain.Event)

	// Subscribe registers handler for one event type and returns its subscription ID.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a subscription. Unknown IDs are ignored.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers handler for every event type.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers reports whether publishing eventType would reach anyone.
	HasSubscribers(eventType domain.EventType) bool

	// Close drops every subscription. Publishing after Close is a no-op.
	Close() error
}
