// Package mock provides an in-memory implementation of the OutputDevice port.
// It is used for testing the playback core without opening an audio device.
package mock

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/soundstage/internal/domain"
	"github.com/tejashwikalptaru/soundstage/internal/ports"
)

// Mixer group and parameter exposed by every mock device.
const (
	MasterGroup     = "Master"
	MasterParameter = "MasterVolume"
)

// Device is a mock output device. Channels advance only when the test calls
// SimulateProgress or SetElapsed.
//
// Thread-safety: This implementation is thread-safe.
type Device struct {
	// Dependencies
	logger *slog.Logger

	// Channel state
	channels []*Channel
	closed   bool
	listener domain.Vector3
	mixer    *Mixer
	mu       sync.RWMutex

	// Behavior configuration (for testing error scenarios)
	failNewChannel bool
	failPlay       bool
}

// NewDevice creates a mock device whose mixer exposes the Master group and
// the MasterVolume parameter.
func NewDevice() *Device {
	d := &Device{
		mixer: &Mixer{
			groups: map[string]domain.MixerGroup{MasterGroup: domain.MixerGroup(MasterGroup)},
			params: map[string]float64{MasterParameter: 0},
		},
	}
	return d
}

// SetLogger sets the logger for this device.
func (d *Device) SetLogger(logger *slog.Logger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger = logger
}

// SetFailNewChannel configures the device to refuse channel allocation (for testing).
func (d *Device) SetFailNewChannel(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failNewChannel = fail
}

// SetFailPlay configures every channel to fail Play (for testing).
func (d *Device) SetFailPlay(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failPlay = fail
}

// NewChannel allocates a stopped channel.
func (d *Device) NewChannel() (ports.OutputChannel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, domain.ErrDeviceClosed
	}
	if d.failNewChannel {
		return nil, domain.NewAudioEngineError("new_channel", "", "mock channel allocation failed", nil)
	}

	ch := &Channel{device: d, volume: 1, pitch: 1}
	d.channels = append(d.channels, ch)
	if d.logger != nil {
		d.logger.Debug("mock channel allocated", slog.Int("channels", len(d.channels)))
	}
	return ch, nil
}

// Mixer returns the device mixer.
func (d *Device) Mixer() ports.Mixer {
	return d.mixer
}

// MockMixer returns the concrete mixer for assertions.
func (d *Device) MockMixer() *Mixer {
	return d.mixer
}

// SetListener records the listener position.
func (d *Device) SetListener(position domain.Vector3) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listener = position
}

// Listener returns the last listener position.
func (d *Device) Listener() domain.Vector3 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.listener
}

// Close closes every channel and the device.
func (d *Device) Close() error {
	d.mu.Lock()
	channels := d.channels
	d.channels = nil
	d.closed = true
	d.mu.Unlock()

	for _, ch := range channels {
		ch.markClosed()
	}
	return nil
}

// OpenChannels returns the number of channels not yet closed (for testing).
func (d *Device) OpenChannels() int {
	d.mu.RLock()
	channels := append([]*Channel(nil), d.channels...)
	d.mu.RUnlock()

	n := 0
	for _, ch := range channels {
		if !ch.Closed() {
			n++
		}
	}
	return n
}

// Channels returns every channel allocated so far (for testing).
func (d *Device) Channels() []*Channel {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]*Channel(nil), d.channels...)
}

// SimulateProgress advances every playing channel by delta.
func (d *Device) SimulateProgress(delta time.Duration) {
	for _, ch := range d.Channels() {
		ch.SimulateProgress(delta)
	}
}

func (d *Device) shouldFailPlay() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.failPlay
}

// Mixer is a mock mixer that records parameter values.
type Mixer struct {
	mu     sync.RWMutex
	groups map[string]domain.MixerGroup
	params map[string]float64
}

// FindGroup resolves a mixer group by name.
func (m *Mixer) FindGroup(name string) (domain.MixerGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.groups[name]
	if !ok {
		return domain.InvalidMixerGroup, fmt.Errorf("%w: %s", domain.ErrGroupNotFound, name)
	}
	return g, nil
}

// SetParameter records a parameter value in decibels.
func (m *Mixer) SetParameter(name string, valueDB float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.params[name]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownParameter, name)
	}
	m.params[name] = valueDB
	return nil
}

// Parameter returns the last value set for name (for testing).
func (m *Mixer) Parameter(name string) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.params[name]
	return v, ok
}

// RemoveGroup deletes a group so FindGroup fails (for testing).
func (m *Mixer) RemoveGroup(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.groups, name)
}

// Channel is a mock output channel.
type Channel struct {
	device *Device

	mu          sync.RWMutex
	clip        *domain.Clip
	volume      float64
	pitch       float64
	blend       float64
	minDistance float64
	maxDistance float64
	autoPlay    bool
	position    domain.Vector3
	group       domain.MixerGroup
	loop        bool
	muted       bool
	playing     bool
	paused      bool
	elapsed     time.Duration
	plays       int
	closed      bool
}

// SetClip assigns a clip. nil clears it.
func (c *Channel) SetClip(clip *domain.Clip) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clip = clip
}

// Clip returns the assigned clip.
func (c *Channel) Clip() *domain.Clip {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clip
}

// SetVolume sets the channel volume, clamped to [0, 1].
func (c *Channel) SetVolume(volume float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volume = min(1, max(0, volume))
}

// Volume returns the channel volume.
func (c *Channel) Volume() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.volume
}

// SetPitch sets the playback pitch.
func (c *Channel) SetPitch(pitch float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pitch = pitch
}

// Pitch returns the playback pitch (for testing).
func (c *Channel) Pitch() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pitch
}

// SetSpatialBlend sets the 2D/3D blend.
func (c *Channel) SetSpatialBlend(blend float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blend = blend
}

// SpatialBlend returns the 2D/3D blend (for testing).
func (c *Channel) SpatialBlend() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blend
}

// SetDistances sets the attenuation distances.
func (c *Channel) SetDistances(minDistance, maxDistance float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.minDistance = minDistance
	c.maxDistance = maxDistance
}

// Distances returns the attenuation distances (for testing).
func (c *Channel) Distances() (float64, float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.minDistance, c.maxDistance
}

// SetAutoPlay records the auto-play flag.
func (c *Channel) SetAutoPlay(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoPlay = enabled
}

// AutoPlay returns the auto-play flag (for testing).
func (c *Channel) AutoPlay() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.autoPlay
}

// SetPosition moves the emitter.
func (c *Channel) SetPosition(position domain.Vector3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = position
}

// Position returns the emitter position (for testing).
func (c *Channel) Position() domain.Vector3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.position
}

// SetOutputGroup routes the channel.
func (c *Channel) SetOutputGroup(group domain.MixerGroup) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.group = group
}

// OutputGroup returns the routing group (for testing).
func (c *Channel) OutputGroup() domain.MixerGroup {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.group
}

// Play starts the clip from the beginning.
func (c *Channel) Play() error {
	if c.device.shouldFailPlay() {
		return domain.NewAudioEngineError("play", "", "mock playback failed", nil)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrChannelClosed
	}
	if c.clip == nil {
		return domain.ErrNoClip
	}

	c.playing = true
	c.paused = false
	c.elapsed = 0
	c.plays++
	return nil
}

// Plays returns how many times Play succeeded (for testing).
func (c *Channel) Plays() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.plays
}

// Stop halts and rewinds.
func (c *Channel) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrChannelClosed
	}
	c.playing = false
	c.paused = false
	c.elapsed = 0
	return nil
}

// Pause suspends a playing channel.
func (c *Channel) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrChannelClosed
	}
	if c.playing {
		c.playing = false
		c.paused = true
	}
	return nil
}

// Unpause resumes a paused channel.
func (c *Channel) Unpause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrChannelClosed
	}
	if c.paused {
		c.paused = false
		c.playing = true
	}
	return nil
}

// SetLoop enables looping.
func (c *Channel) SetLoop(loop bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loop = loop
}

// Loop returns the loop flag (for testing).
func (c *Channel) Loop() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loop
}

// SetMute mutes the channel.
func (c *Channel) SetMute(mute bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted = mute
}

// Muted returns the mute flag (for testing).
func (c *Channel) Muted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.muted
}

// IsPlaying reports whether the channel is audible.
func (c *Channel) IsPlaying() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playing && !c.closed
}

// IsPausedState reports whether the channel is paused (for testing).
func (c *Channel) IsPausedState() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.paused
}

// Elapsed returns the playback position.
func (c *Channel) Elapsed() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.elapsed
}

// ClipLength returns the clip length.
func (c *Channel) ClipLength() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.clip == nil {
		return 0
	}
	return c.clip.Length
}

// Close releases the channel.
func (c *Channel) Close() error {
	c.markClosed()
	return nil
}

// Closed reports whether the channel was closed.
func (c *Channel) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Channel) markClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.playing = false
	c.paused = false
}

// SimulateProgress advances a playing channel by delta. At the end of the clip
// a looping channel wraps around and any other channel stops.
func (c *Channel) SimulateProgress(delta time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.playing || c.clip == nil {
		return
	}

	c.elapsed += delta
	length := c.clip.Length
	if c.elapsed < length {
		return
	}

	if c.loop && length > 0 {
		c.elapsed %= length
		c.plays++
		return
	}
	c.elapsed = length
	c.playing = false
}

// SetElapsed moves the playback position without ending the clip (for testing fades).
func (c *Channel) SetElapsed(elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elapsed = elapsed
}

// Finish ends playback as if the clip reached its end.
func (c *Channel) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clip != nil {
		c.elapsed = c.clip.Length
	}
	c.playing = false
	c.paused = false
}

var (
	_ ports.OutputDevice  = (*Device)(nil)
	_ ports.OutputChannel = (*Channel)(nil)
	_ ports.Mixer         = (*Mixer)(nil)
)
