// Package service provides the playback core of soundstage.
package service

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/tejashwikalptaru/soundstage/internal/domain"
	"github.com/tejashwikalptaru/soundstage/internal/ports"
)

const (
	// DefaultPoolSize is the pool capacity used when Play initializes the manager lazily.
	DefaultPoolSize = 10

	// MasterGroupName is the mixer group every slot is routed to.
	MasterGroupName = "Master"

	// MasterVolumeParameter is the mixer parameter driven by SetMasterVolume, in dB.
	MasterVolumeParameter = "MasterVolume"

	// MinMasterVolume keeps the decibel conversion finite.
	MinMasterVolume = 0.0001

	managerGroupName = "[AudioManager]"
	poolGroupName    = "[AudioPool]"
)

// Manager issues, tracks and recycles audio slots and owns the global
// mute, pause and master volume state.
//
// Manager is not thread-safe: every method, including Tick, must run on the
// same goroutine. Driver provides that goroutine for concurrent callers.
type Manager struct {
	// Dependencies (injected)
	logger *slog.Logger
	device ports.OutputDevice
	bus    ports.EventBus
	rng    *rand.Rand

	// Lifecycle
	initialized bool
	group       *Group
	pool        *SourcePool
	mixerGroup  domain.MixerGroup
	nextID      domain.SlotID

	// Active slots in insertion order
	active []*Slot

	// Global state
	muted        bool
	paused       bool
	masterVolume float64
}

// Option configures a Manager.
type Option func(*Manager)

// WithRand sets the random source used to sample pitch ranges.
func WithRand(rng *rand.Rand) Option {
	return func(m *Manager) {
		m.rng = rng
	}
}

// NewManager creates an uninitialized manager. Initialize runs on first Play
// if it is not called explicitly. bus may be nil.
func NewManager(logger *slog.Logger, device ports.OutputDevice, bus ports.EventBus, opts ...Option) *Manager {
	m := &Manager{
		logger:       logger,
		device:       device,
		bus:          bus,
		masterVolume: 1,
	}
	for _, opt := range opts {
		opt(m)
	}

	logger.Debug("playback manager created")
	return m
}

// Initialize resolves the mixer routing, resets master volume to full and
// pre-allocates poolSize inert slots. poolSize 0 disables pooling for the
// manager's lifetime. Calling Initialize again is a no-op until Shutdown.
func (m *Manager) Initialize(parent *Group, poolSize int) error {
	if m.initialized {
		return nil
	}

	group, err := m.device.Mixer().FindGroup(MasterGroupName)
	if err != nil {
		return domain.NewServiceError("Manager", "initialize", "resolve mixer group", err)
	}

	m.mixerGroup = group
	m.group = NewGroup(managerGroupName, parent)
	m.pool = NewSourcePool(m.logger.With(slog.String("component", "pool")), poolSize, NewGroup(poolGroupName, m.group), m.allocSlot)
	m.initialized = true

	if err := m.applyMasterVolume(1); err != nil {
		m.logger.Warn("failed to reset master volume", slog.Any("error", err))
	}

	if err := m.pool.Fill(m.pool.Capacity()); err != nil {
		m.logger.Warn("failed to pre-allocate pool", slog.Int("pooled", m.pool.Len()), slog.Any("error", err))
	}

	m.logger.Info("playback manager initialized",
		slog.Int("pool_size", m.pool.Capacity()),
		slog.String("group", m.group.Path()))
	return nil
}

// IsInitialized reports whether Initialize has run.
func (m *Manager) IsInitialized() bool {
	return m.initialized
}

// Play starts a clip at position and returns its slot. The slot stays valid
// for chained configuration until the manager retires it after it finishes.
//
// Returns domain.ErrInvalidSettings, without allocating anything, if settings
// have no clip or no volume.
func (m *Manager) Play(settings domain.PlaybackSettings, position domain.Vector3) (*Slot, error) {
	if !settings.IsValid() {
		return nil, domain.ErrInvalidSettings
	}

	if err := m.Initialize(nil, DefaultPoolSize); err != nil {
		return nil, err
	}

	slot, err := m.pool.Acquire()
	if err != nil {
		return nil, domain.NewServiceError("Manager", "play", "acquire slot", err)
	}

	slot.attach(m.group)
	slot.setName(fmt.Sprintf("[AudioSource - %s]", settings.Clip.Name))

	if err := slot.Initialize(settings, position, m.ambient()); err != nil {
		slot.Deinitialize()
		m.pool.Release(slot)
		return nil, domain.NewServiceError("Manager", "play", "initialize slot", err)
	}
	slot.syncEnabled()

	m.active = append(m.active, slot)

	m.logger.Debug("slot started",
		slog.Uint64("slot_id", uint64(slot.ID())),
		slog.String("clip", settings.Clip.Name))
	m.publish(domain.NewSlotStartedEvent(slot.ID(), settings.Clip.Name, position, len(m.active)))

	return slot, nil
}

// PlayClip plays a 3D clip at a fixed pitch.
func (m *Manager) PlayClip(clip *domain.Clip, volume, pitch float64, position domain.Vector3) (*Slot, error) {
	settings := domain.NewPlaybackSettings(clip)
	settings.Volume = volume
	settings.PitchMin = pitch
	settings.PitchMax = pitch
	return m.Play(settings, position)
}

// PlayClip2D plays a non-spatialized clip at a fixed pitch.
func (m *Manager) PlayClip2D(clip *domain.Clip, volume, pitch float64, position domain.Vector3) (*Slot, error) {
	settings := domain.NewPlaybackSettings(clip)
	settings.Volume = volume
	settings.PitchMin = pitch
	settings.PitchMax = pitch
	settings.Spatial = domain.SpatialTwoD
	return m.Play(settings, position)
}

// Tick advances every active slot once and retires slots that finished.
// Slots destroyed outside the manager are dropped without deinitialization.
func (m *Manager) Tick() {
	for i := len(m.active) - 1; i >= 0; i-- {
		slot := m.active[i]

		if !slot.Alive() {
			m.removeAt(i)
			slot.Destroy()
			m.logger.Debug("dropped destroyed slot", slog.Uint64("slot_id", uint64(slot.ID())))
			m.publish(domain.NewSlotDroppedEvent(slot.ID(), len(m.active)))
			continue
		}

		// disabled hierarchies hold their slots without ticking them
		if !slot.syncEnabled() {
			continue
		}

		slot.Tick()
		if slot.IsFinished() {
			m.retire(i, slot)
		}
	}
}

// retire unregisters the slot at index i, deinitializes it and hands it back to the pool.
func (m *Manager) retire(i int, slot *Slot) {
	clip := slot.Name()
	m.removeAt(i)
	slot.Deinitialize()
	pooled := m.pool.Release(slot)

	m.logger.Debug("slot finished",
		slog.Uint64("slot_id", uint64(slot.ID())),
		slog.Bool("pooled", pooled))
	m.publish(domain.NewSlotFinishedEvent(slot.ID(), clip, pooled, len(m.active)))
}

// SetMuteAll sets the global mute state for every active and future slot.
func (m *Manager) SetMuteAll(mute bool) {
	m.muted = mute
	for _, slot := range m.active {
		slot.SetMute(mute)
	}
	m.publish(domain.NewMuteAllChangedEvent(mute))
}

// SetPauseAll sets the global pause state for every active and future slot.
func (m *Manager) SetPauseAll(pause bool) {
	m.paused = pause
	for _, slot := range m.active {
		slot.SetPause(pause)
	}
	m.publish(domain.NewPauseAllChangedEvent(pause))
}

// IsMuted returns the global mute state.
func (m *Manager) IsMuted() bool {
	return m.muted
}

// IsPaused returns the global pause state.
func (m *Manager) IsPaused() bool {
	return m.paused
}

// SetMasterVolume clamps volume into [0.0001, 1] and applies it to the mixer
// in decibels. The manager is initialized first if needed.
func (m *Manager) SetMasterVolume(volume float64) error {
	if err := m.Initialize(nil, DefaultPoolSize); err != nil {
		return err
	}
	return m.applyMasterVolume(volume)
}

func (m *Manager) applyMasterVolume(volume float64) error {
	v01 := ClampMasterVolume(volume)
	db := VolumeToDecibel(v01)

	if err := m.device.Mixer().SetParameter(MasterVolumeParameter, db); err != nil {
		return domain.NewServiceError("Manager", "set_master_volume", "apply mixer parameter", err)
	}

	m.masterVolume = v01
	m.publish(domain.NewMasterVolumeChangedEvent(v01, db))
	return nil
}

// MasterVolume returns the linear master volume last applied.
func (m *Manager) MasterVolume() float64 {
	return m.masterVolume
}

// ActiveCount returns the number of tracked slots.
func (m *Manager) ActiveCount() int {
	return len(m.active)
}

// ActiveSlots returns the tracked slots in insertion order.
func (m *Manager) ActiveSlots() []*Slot {
	slots := make([]*Slot, len(m.active))
	copy(slots, m.active)
	return slots
}

// IsActive reports whether slot is tracked by the manager.
func (m *Manager) IsActive(slot *Slot) bool {
	for _, s := range m.active {
		if s == slot {
			return true
		}
	}
	return false
}

// Pool returns the slot pool, or nil before Initialize.
func (m *Manager) Pool() *SourcePool {
	return m.pool
}

// Group returns the manager's group, or nil before Initialize.
func (m *Manager) Group() *Group {
	return m.group
}

// Shutdown stops and destroys every active and pooled slot. A later
// Initialize (explicit or through Play) starts from scratch.
func (m *Manager) Shutdown() {
	if !m.initialized {
		return
	}

	for _, slot := range m.active {
		slot.Deinitialize()
		slot.Destroy()
	}
	m.active = nil
	m.pool.Drain()

	m.pool = nil
	m.group = nil
	m.mixerGroup = domain.InvalidMixerGroup
	m.muted = false
	m.paused = false
	m.initialized = false

	m.logger.Info("playback manager shut down")
}

// ambient returns the global state new slots must honour.
func (m *Manager) ambient() Ambient {
	return Ambient{Muted: m.muted, Paused: m.paused}
}

func (m *Manager) allocSlot() (*Slot, error) {
	channel, err := m.device.NewChannel()
	if err != nil {
		return nil, err
	}
	m.nextID++
	return newSlot(m.logger, m.nextID, channel, m.mixerGroup, m.rng), nil
}

func (m *Manager) removeAt(i int) {
	copy(m.active[i:], m.active[i+1:])
	m.active[len(m.active)-1] = nil
	m.active = m.active[:len(m.active)-1]
}

func (m *Manager) publish(event domain.Event) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(event)
}

// ClampMasterVolume clamps volume into [MinMasterVolume, 1].
func ClampMasterVolume(volume float64) float64 {
	if math.IsNaN(volume) {
		return MinMasterVolume
	}
	return math.Max(MinMasterVolume, math.Min(1, math.Max(0, volume)))
}

// VolumeToDecibel converts a linear volume into decibels (20*log10(v)).
func VolumeToDecibel(volume float64) float64 {
	return 20 * math.Log10(volume)
}
