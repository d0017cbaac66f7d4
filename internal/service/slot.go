package service

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/tejashwikalptaru/soundstage/internal/domain"
	"github.com/tejashwikalptaru/soundstage/internal/ports"
)

// defaultSlotName is the name of a slot that is not playing anything.
const defaultSlotName = "[AudioSource]"

// Ambient carries the manager's global policy into a slot when it starts playing.
type Ambient struct {
	Muted  bool
	Paused bool
}

// Slot wraps one output channel and the playback state of the clip it plays.
// A slot is either inert (pooled or fresh) or initialized with settings; every
// configuration method requires the initialized state.
//
// Slots are not thread-safe. They are driven by the Manager's tick thread.
type Slot struct {
	// Dependencies
	logger  *slog.Logger
	channel ports.OutputChannel
	rng     *rand.Rand

	// Identity
	id      domain.SlotID
	name    string
	group   *Group
	enabled bool

	// Spatial state
	position domain.Vector3
	target   ports.Target

	// Playback state
	initialized bool
	hasStarted  bool
	isPaused    bool
	destroyed   bool

	// suspended is set while the group hierarchy is disabled; the channel is
	// held paused independently of isPaused
	suspended bool

	// Fade state
	defaultVolume float64
	startFade     time.Duration
	endFade       time.Duration
}

// newSlot wraps channel into an inert, enabled slot routed to mixerGroup.
func newSlot(logger *slog.Logger, id domain.SlotID, channel ports.OutputChannel, mixerGroup domain.MixerGroup, rng *rand.Rand) *Slot {
	channel.SetOutputGroup(mixerGroup)
	return &Slot{
		logger:  logger.With(slog.Uint64("slot_id", uint64(id))),
		channel: channel,
		rng:     rng,
		id:      id,
		name:    defaultSlotName,
		enabled: true,
	}
}

// ID returns the slot's stable identifier.
func (s *Slot) ID() domain.SlotID {
	return s.id
}

// Name returns the display name, which includes the clip name while playing.
func (s *Slot) Name() string {
	return s.name
}

// Group returns the group the slot is attached to.
func (s *Slot) Group() *Group {
	return s.group
}

// Enabled reports whether the slot and its group hierarchy are enabled.
func (s *Slot) Enabled() bool {
	if !s.enabled {
		return false
	}
	return s.group == nil || s.group.Enabled()
}

// Position returns the slot's world position.
func (s *Slot) Position() domain.Vector3 {
	return s.position
}

// IsInitialized reports whether the slot holds playback settings.
// Check this before using a cached slot: the manager recycles finished slots.
func (s *Slot) IsInitialized() bool {
	return s.initialized
}

// IsPaused reports whether the slot was paused through SetPause.
func (s *Slot) IsPaused() bool {
	return s.isPaused
}

// IsFinished reports whether a started slot stopped on its own.
// A paused or suspended slot is never finished.
func (s *Slot) IsFinished() bool {
	return s.hasStarted && !s.channel.IsPlaying() && !s.isPaused && !s.suspended
}

// IsSuspended reports whether the slot is held because its group hierarchy is disabled.
func (s *Slot) IsSuspended() bool {
	return s.suspended
}

// Alive reports whether the slot and its channel still exist.
func (s *Slot) Alive() bool {
	return !s.destroyed && !s.channel.Closed()
}

// State classifies the slot's lifecycle.
func (s *Slot) State() domain.SlotState {
	switch {
	case !s.Alive():
		return domain.StateDestroyed
	case !s.initialized:
		return domain.StateInert
	case !s.hasStarted:
		return domain.StateInitializing
	case s.isPaused || s.suspended:
		return domain.StatePaused
	case s.IsFinished():
		return domain.StateFinished
	default:
		return domain.StatePlaying
	}
}

// Volume returns the channel volume currently applied, including fades.
func (s *Slot) Volume() float64 {
	return s.channel.Volume()
}

// Elapsed returns the playback position within the clip.
func (s *Slot) Elapsed() time.Duration {
	return s.channel.Elapsed()
}

// Initialize applies settings, moves the slot to position and starts playback
// honouring the ambient mute and pause state.
//
// Returns an error if the slot is not inert or the channel fails to start.
func (s *Slot) Initialize(settings domain.PlaybackSettings, position domain.Vector3, ambient Ambient) error {
	if !s.Alive() {
		return domain.ErrChannelClosed
	}
	if s.initialized {
		return domain.ErrAlreadyInitialized
	}

	s.setPosition(position)
	settings.ResolveOutputConfig(s.channel, s.rng)
	s.initialized = true

	return s.play(ambient)
}

// play starts the channel and then applies the ambient global state.
func (s *Slot) play(ambient Ambient) error {
	s.hasStarted = true
	if err := s.channel.Play(); err != nil {
		return fmt.Errorf("start channel: %w", err)
	}

	s.SetMute(ambient.Muted)
	s.SetPause(ambient.Paused)
	return nil
}

// Deinitialize stops playback and clears clip, fades, target and flags.
// Calling it on an inert slot does nothing.
func (s *Slot) Deinitialize() {
	if !s.initialized {
		return
	}

	s.Stop()
	s.initialized = false
	s.hasStarted = false
	s.isPaused = false
	s.suspended = false
	s.target = nil
	s.defaultVolume = 0
	s.startFade = 0
	s.endFade = 0
	s.channel.SetLoop(false)
	s.channel.SetClip(nil)
}

// Stop halts the channel. The manager retires the slot on its next tick.
func (s *Slot) Stop() {
	if !s.validate("stop") {
		return
	}
	if err := s.channel.Stop(); err != nil {
		s.logger.Warn("failed to stop channel", slog.Any("error", err))
	}
}

// Destroy releases the slot's channel. A destroyed slot is dropped from tracking
// by the manager without being deinitialized.
func (s *Slot) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.initialized = false
	if s.group != nil {
		s.group.detach(s)
		s.group = nil
	}
	if err := s.channel.Close(); err != nil {
		s.logger.Warn("failed to close channel", slog.Any("error", err))
	}
}

// Tick follows the target and advances the volume fades. Called once per cycle.
func (s *Slot) Tick() {
	s.followTarget()
	s.applyFade()
}

// SetMute mutes or unmutes the channel.
func (s *Slot) SetMute(mute bool) *Slot {
	if !s.validate("set_mute") {
		return s
	}
	s.channel.SetMute(mute)
	return s
}

// SetPause pauses or resumes the channel. Paused slots are never finished.
func (s *Slot) SetPause(pause bool) *Slot {
	if !s.validate("set_pause") {
		return s
	}
	s.isPaused = pause
	if s.suspended {
		// the channel stays held until the hierarchy is enabled again
		return s
	}

	var err error
	if pause {
		err = s.channel.Pause()
	} else {
		err = s.channel.Unpause()
	}
	if err != nil {
		s.logger.Warn("failed to change pause state", slog.Bool("pause", pause), slog.Any("error", err))
	}
	return s
}

// SetLoop makes the clip restart when it ends.
func (s *Slot) SetLoop(loop bool) *Slot {
	if !s.validate("set_loop") {
		return s
	}
	s.channel.SetLoop(loop)
	return s
}

// SetTarget makes the slot follow target every tick. A nil target stops following.
func (s *Slot) SetTarget(target ports.Target) *Slot {
	if !s.validate("set_target") {
		return s
	}
	s.target = target
	return s
}

// SetFade configures the fade-in and fade-out windows. Fades are relative to
// the channel volume at the time of the call.
func (s *Slot) SetFade(start, end time.Duration) *Slot {
	if !s.validate("set_fade") {
		return s
	}
	s.defaultVolume = s.channel.Volume()
	s.startFade = start
	s.endFade = end
	return s
}

// syncEnabled holds the channel while the slot's hierarchy is disabled and
// releases it once enabled again. It reports whether the slot is enabled.
func (s *Slot) syncEnabled() bool {
	enabled := s.Enabled()
	if enabled == !s.suspended || !s.initialized {
		return enabled
	}

	s.suspended = !enabled
	if s.isPaused {
		// the channel is already paused and stays so
		return enabled
	}

	var err error
	if s.suspended {
		err = s.channel.Pause()
	} else {
		err = s.channel.Unpause()
	}
	if err != nil {
		s.logger.Warn("failed to change suspend state", slog.Bool("suspended", s.suspended), slog.Any("error", err))
	}
	return enabled
}

func (s *Slot) followTarget() {
	if s.target == nil || !s.target.Exists() {
		return
	}
	s.setPosition(s.target.Position())
}

// applyFade evaluates the start window before the end window; on clips shorter
// than both windows the end fade wins.
func (s *Slot) applyFade() {
	t := s.channel.Elapsed().Seconds()

	if s.startFade > 0 {
		start := s.startFade.Seconds()
		if t < start {
			s.channel.SetVolume(t / start * s.defaultVolume)
		}
		if t >= start && s.channel.Volume() != s.defaultVolume {
			s.channel.SetVolume(s.defaultVolume)
		}
	}

	if s.endFade > 0 {
		end := s.endFade.Seconds()
		length := s.channel.ClipLength().Seconds()
		if t > length-end {
			s.channel.SetVolume((length - t) / end * s.defaultVolume)
		}
		if t >= length && s.channel.Volume() != 0 {
			s.channel.SetVolume(0)
		}
	}
}

func (s *Slot) setPosition(position domain.Vector3) {
	s.position = position
	s.channel.SetPosition(position)
}

func (s *Slot) setName(name string) {
	s.name = name
}

func (s *Slot) setEnabled(enabled bool) {
	s.enabled = enabled
}

// attach moves the slot under group.
func (s *Slot) attach(group *Group) {
	if s.group == group {
		return
	}
	if s.group != nil {
		s.group.detach(s)
	}
	s.group = group
	if group != nil {
		group.attach(s)
	}
}

// validate logs a usage error when the slot is used before Initialize.
func (s *Slot) validate(op string) bool {
	if !s.initialized {
		s.logger.Error("tried accessing functionality on an uninitialized audio slot; check IsInitialized before using a cached slot",
			slog.String("op", op))
	}
	return s.initialized
}
