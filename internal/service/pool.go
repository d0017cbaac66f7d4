package service

import (
	"log/slog"

	"gopkg.in/eapache/queue.v1"
)

// SlotAllocator creates a fresh inert slot backed by a new output channel.
type SlotAllocator func() (*Slot, error)

// SourcePool is a bounded FIFO of inert slots.
// A capacity of 0 disables pooling: Acquire always allocates and Release destroys.
//
// Invariant: every pooled slot is deinitialized, disabled and attached to the pool group.
type SourcePool struct {
	logger   *slog.Logger
	capacity int
	slots    *queue.Queue
	group    *Group
	alloc    SlotAllocator
}

// NewSourcePool creates an empty pool. Negative capacities are treated as 0.
func NewSourcePool(logger *slog.Logger, capacity int, group *Group, alloc SlotAllocator) *SourcePool {
	if capacity < 0 {
		capacity = 0
	}
	return &SourcePool{
		logger:   logger,
		capacity: capacity,
		slots:    queue.New(),
		group:    group,
		alloc:    alloc,
	}
}

// Enabled reports whether pooling is on.
func (p *SourcePool) Enabled() bool {
	return p.capacity > 0
}

// Capacity returns the maximum number of pooled slots.
func (p *SourcePool) Capacity() int {
	return p.capacity
}

// Len returns the number of slots waiting in the pool.
func (p *SourcePool) Len() int {
	return p.slots.Length()
}

// Group returns the group pooled slots are attached to.
func (p *SourcePool) Group() *Group {
	return p.group
}

// Fill pre-allocates inert slots until the pool holds n of them (bounded by capacity).
func (p *SourcePool) Fill(n int) error {
	for p.Len() < n && p.Len() < p.capacity {
		slot, err := p.alloc()
		if err != nil {
			return err
		}
		p.park(slot)
	}
	return nil
}

// Acquire returns a pooled slot, or a freshly allocated one when the pool is
// empty or disabled. The returned slot is inert and enabled.
func (p *SourcePool) Acquire() (*Slot, error) {
	if !p.Enabled() || p.slots.Length() == 0 {
		slot, err := p.alloc()
		if err != nil {
			return nil, err
		}
		p.logger.Debug("allocated fresh slot", slog.Uint64("slot_id", uint64(slot.ID())))
		return slot, nil
	}

	slot := p.slots.Remove().(*Slot)
	slot.setEnabled(true)
	return slot, nil
}

// Release takes back a deinitialized slot. It returns true if the slot was
// pooled and false if it was destroyed (pooling disabled, pool full or slot dead).
func (p *SourcePool) Release(slot *Slot) bool {
	if slot.IsInitialized() {
		p.logger.Error("released a slot that is still initialized", slog.Uint64("slot_id", uint64(slot.ID())))
		slot.Deinitialize()
	}

	if !p.Enabled() || p.slots.Length() >= p.capacity || !slot.Alive() {
		slot.Destroy()
		return false
	}

	p.park(slot)
	return true
}

// Contains reports whether slot is waiting in the pool.
func (p *SourcePool) Contains(slot *Slot) bool {
	for i := 0; i < p.slots.Length(); i++ {
		if p.slots.Get(i).(*Slot) == slot {
			return true
		}
	}
	return false
}

// Drain destroys every pooled slot.
func (p *SourcePool) Drain() {
	for p.slots.Length() > 0 {
		p.slots.Remove().(*Slot).Destroy()
	}
}

// park resets slot to its pooled display state and enqueues it.
func (p *SourcePool) park(slot *Slot) {
	slot.setName(defaultSlotName)
	slot.setEnabled(false)
	slot.attach(p.group)
	p.slots.Add(slot)
}
