// Package domain defines events for the event-driven architecture.
// Events let the UI and logging observe the manager without callbacks.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Slot lifecycle events
	EventSlotStarted  EventType = "slot.started"
	EventSlotFinished EventType = "slot.finished"
	EventSlotDropped  EventType = "slot.dropped"

	// Global policy events
	EventMuteAllChanged      EventType = "mute_all.changed"
	EventPauseAllChanged     EventType = "pause_all.changed"
	EventMasterVolumeChanged EventType = "master_volume.changed"

	// Sound bank events
	EventBankReloaded EventType = "bank.reloaded"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// SlotStartedEvent is published when a slot starts playing a clip.
type SlotStartedEvent struct {
	baseEvent
	SlotID      SlotID
	Clip        string
	Position    Vector3
	ActiveCount int
}

// Type returns the event type.
func (e SlotStartedEvent) Type() EventType {
	return EventSlotStarted
}

// NewSlotStartedEvent creates a new SlotStartedEvent.
func NewSlotStartedEvent(id SlotID, clip string, position Vector3, active int) SlotStartedEvent {
	return SlotStartedEvent{
		baseEvent:   newBaseEvent(),
		SlotID:      id,
		Clip:        clip,
		Position:    position,
		ActiveCount: active,
	}
}

// SlotFinishedEvent is published when a finished slot is retired by the manager.
type SlotFinishedEvent struct {
	baseEvent
	SlotID      SlotID
	Clip        string
	Pooled      bool // true if the slot went back to the pool
	ActiveCount int
}

// Type returns the event type.
func (e SlotFinishedEvent) Type() EventType {
	return EventSlotFinished
}

// NewSlotFinishedEvent creates a new SlotFinishedEvent.
func NewSlotFinishedEvent(id SlotID, clip string, pooled bool, active int) SlotFinishedEvent {
	return SlotFinishedEvent{
		baseEvent:   newBaseEvent(),
		SlotID:      id,
		Clip:        clip,
		Pooled:      pooled,
		ActiveCount: active,
	}
}

// SlotDroppedEvent is published when an externally destroyed slot is removed from tracking.
type SlotDroppedEvent struct {
	baseEvent
	SlotID      SlotID
	ActiveCount int
}

// Type returns the event type.
func (e SlotDroppedEvent) Type() EventType {
	return EventSlotDropped
}

// NewSlotDroppedEvent creates a new SlotDroppedEvent.
func NewSlotDroppedEvent(id SlotID, active int) SlotDroppedEvent {
	return SlotDroppedEvent{
		baseEvent:   newBaseEvent(),
		SlotID:      id,
		ActiveCount: active,
	}
}

// MuteAllChangedEvent is published when the global mute state changes.
type MuteAllChangedEvent struct {
	baseEvent
	Muted bool
}

// Type returns the event type.
func (e MuteAllChangedEvent) Type() EventType {
	return EventMuteAllChanged
}

// NewMuteAllChangedEvent creates a new MuteAllChangedEvent.
func NewMuteAllChangedEvent(muted bool) MuteAllChangedEvent {
	return MuteAllChangedEvent{
		baseEvent: newBaseEvent(),
		Muted:     muted,
	}
}

// PauseAllChangedEvent is published when the global pause state changes.
type PauseAllChangedEvent struct {
	baseEvent
	Paused bool
}

// Type returns the event type.
func (e PauseAllChangedEvent) Type() EventType {
	return EventPauseAllChanged
}

// NewPauseAllChangedEvent creates a new PauseAllChangedEvent.
func NewPauseAllChangedEvent(paused bool) PauseAllChangedEvent {
	return PauseAllChangedEvent{
		baseEvent: newBaseEvent(),
		Paused:    paused,
	}
}

// MasterVolumeChangedEvent is published when the master volume is applied.
type MasterVolumeChangedEvent struct {
	baseEvent
	Volume  float64 // linear, in [0.0001, 1]
	Decibel float64
}

// Type returns the event type.
func (e MasterVolumeChangedEvent) Type() EventType {
	return EventMasterVolumeChanged
}

// NewMasterVolumeChangedEvent creates a new MasterVolumeChangedEvent.
func NewMasterVolumeChangedEvent(volume, db float64) MasterVolumeChangedEvent {
	return MasterVolumeChangedEvent{
		baseEvent: newBaseEvent(),
		Volume:    volume,
		Decibel:   db,
	}
}

// BankReloadedEvent is published after the sound bank file is reloaded.
type BankReloadedEvent struct {
	baseEvent
	Cues []string
	Err  error
}

// Type returns the event type.
func (e BankReloadedEvent) Type() EventType {
	return EventBankReloaded
}

// NewBankReloadedEvent creates a new BankReloadedEvent.
func NewBankReloadedEvent(cues []string, err error) BankReloadedEvent {
	return BankReloadedEvent{
		baseEvent: newBaseEvent(),
		Cues:      cues,
		Err:       err,
	}
}
