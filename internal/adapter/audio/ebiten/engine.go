// Package ebiten provides an OutputDevice backed by the Ebitengine audio context.
package ebiten

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/tejashwikalptaru/soundstage/internal/domain"
	"github.com/tejashwikalptaru/soundstage/internal/ports"
)

// Mixer routing exposed by the device.
const (
	MasterGroup     = "Master"
	MasterParameter = "MasterVolume"
)

// streamPlayer is the part of *audio.Player a channel drives.
type streamPlayer interface {
	Play()
	Pause()
	IsPlaying() bool
	Rewind() error
	Position() time.Duration
	SetVolume(volume float64)
	Close() error
}

// Device mixes channels through a process-wide audio.Context.
// Master volume and listener position are applied to every open channel.
//
// Thread-safety: This implementation is thread-safe.
type Device struct {
	logger     *slog.Logger
	ctx        *audio.Context
	sampleRate int
	newPlayer  func(src io.Reader) (streamPlayer, error)

	mu         sync.RWMutex
	channels   map[*Channel]struct{}
	listener   domain.Vector3
	masterGain float64
	closed     bool
}

// NewDevice opens the audio context at sampleRate. Ebitengine allows one
// context per process, so an existing context is reused whatever its rate.
func NewDevice(logger *slog.Logger, sampleRate int) (*Device, error) {
	ctx := audio.CurrentContext()
	if ctx == nil {
		ctx = audio.NewContext(sampleRate)
	} else if ctx.SampleRate() != sampleRate {
		logger.Warn("reusing audio context with a different sample rate",
			slog.Int("requested", sampleRate),
			slog.Int("actual", ctx.SampleRate()))
	}

	if err := ctx.Err(); err != nil {
		return nil, domain.NewAudioEngineError("open", "", "audio context failed", err)
	}

	logger.Info("audio device opened", slog.Int("sample_rate", ctx.SampleRate()))

	return &Device{
		logger:     logger,
		ctx:        ctx,
		sampleRate: ctx.SampleRate(),
		channels:   make(map[*Channel]struct{}),
		masterGain: 1,
	}, nil
}

// NewChannel allocates a stopped channel. Its player is created on Play.
func (d *Device) NewChannel() (ports.OutputChannel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, domain.ErrDeviceClosed
	}

	ch := &Channel{device: d, volume: 1, pitch: 1, blend: 1,
		minDistance: domain.DefaultMinDistance, maxDistance: domain.DefaultMaxDistance}
	d.channels[ch] = struct{}{}
	return ch, nil
}

// Mixer returns the device mixer.
func (d *Device) Mixer() ports.Mixer {
	return mixer{d}
}

// SetListener moves the listener and re-evaluates every channel's gain.
func (d *Device) SetListener(position domain.Vector3) {
	d.mu.Lock()
	d.listener = position
	channels := d.snapshot()
	d.mu.Unlock()

	for _, ch := range channels {
		ch.applyGain()
	}
}

// Close closes every channel. The audio context stays alive for the process.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	channels := d.snapshot()
	d.channels = make(map[*Channel]struct{})
	d.mu.Unlock()

	for _, ch := range channels {
		if err := ch.Close(); err != nil {
			d.logger.Warn("failed to close channel", slog.Any("error", err))
		}
	}
	d.logger.Info("audio device closed", slog.Int("channels", len(channels)))
	return nil
}

// SampleRate returns the output sample rate.
func (d *Device) SampleRate() int {
	return d.sampleRate
}

func (d *Device) openPlayer(src io.Reader) (streamPlayer, error) {
	if d.newPlayer != nil {
		return d.newPlayer(src)
	}
	player, err := d.ctx.NewPlayer(src)
	if err != nil {
		return nil, err
	}
	return player, nil
}

func (d *Device) snapshot() []*Channel {
	channels := make([]*Channel, 0, len(d.channels))
	for ch := range d.channels {
		channels = append(channels, ch)
	}
	return channels
}

func (d *Device) forget(ch *Channel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.channels, ch)
}

func (d *Device) gainState() (domain.Vector3, float64) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.listener, d.masterGain
}

// mixer exposes the single Master group and its MasterVolume parameter.
type mixer struct {
	d *Device
}

func (m mixer) FindGroup(name string) (domain.MixerGroup, error) {
	if name != MasterGroup {
		return domain.InvalidMixerGroup, fmt.Errorf("%w: %s", domain.ErrGroupNotFound, name)
	}
	return domain.MixerGroup(name), nil
}

func (m mixer) SetParameter(name string, valueDB float64) error {
	if name != MasterParameter {
		return fmt.Errorf("%w: %s", domain.ErrUnknownParameter, name)
	}

	m.d.mu.Lock()
	m.d.masterGain = decibelToGain(valueDB)
	channels := m.d.snapshot()
	m.d.mu.Unlock()

	for _, ch := range channels {
		ch.applyGain()
	}
	return nil
}

// Channel plays one clip through an audio.Player. Pitch is applied by
// resampling the clip, so each Play builds a new player.
type Channel struct {
	device *Device

	mu          sync.Mutex
	player      streamPlayer
	clip        *domain.Clip
	volume      float64
	pitch       float64
	blend       float64
	minDistance float64
	maxDistance float64
	position    domain.Vector3
	group       domain.MixerGroup
	loop        bool
	muted       bool
	paused      bool
	closed      bool
}

func (c *Channel) SetClip(clip *domain.Clip) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clip = clip
	c.discardPlayer()
}

func (c *Channel) Clip() *domain.Clip {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clip
}

func (c *Channel) SetVolume(volume float64) {
	c.mu.Lock()
	c.volume = min(1, max(0, volume))
	c.mu.Unlock()
	c.applyGain()
}

func (c *Channel) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// SetPitch takes effect on the next Play.
func (c *Channel) SetPitch(pitch float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pitch = pitch
}

func (c *Channel) SetSpatialBlend(blend float64) {
	c.mu.Lock()
	c.blend = blend
	c.mu.Unlock()
	c.applyGain()
}

func (c *Channel) SetDistances(minDistance, maxDistance float64) {
	c.mu.Lock()
	c.minDistance = minDistance
	c.maxDistance = maxDistance
	c.mu.Unlock()
	c.applyGain()
}

// SetAutoPlay is accepted for interface compatibility; players never start on their own.
func (c *Channel) SetAutoPlay(bool) {}

func (c *Channel) SetPosition(position domain.Vector3) {
	c.mu.Lock()
	c.position = position
	c.mu.Unlock()
	c.applyGain()
}

func (c *Channel) SetOutputGroup(group domain.MixerGroup) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.group = group
}

// Play restarts the clip from the beginning.
func (c *Channel) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrChannelClosed
	}
	if c.clip == nil {
		return domain.ErrNoClip
	}

	c.discardPlayer()

	from := int(float64(c.clip.SampleRate) * playbackRate(c.pitch))
	src := audio.Resample(bytes.NewReader(c.clip.PCM), int64(len(c.clip.PCM)), from, c.device.SampleRate())

	player, err := c.device.openPlayer(src)
	if err != nil {
		return domain.NewAudioEngineError("play", c.clip.Path, "create player", err)
	}

	c.player = player
	c.paused = false
	c.player.SetVolume(c.gainLocked())
	c.player.Play()
	return nil
}

func (c *Channel) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrChannelClosed
	}
	c.paused = false
	if c.player == nil {
		return nil
	}
	c.player.Pause()
	return c.player.Rewind()
}

func (c *Channel) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrChannelClosed
	}
	if c.player != nil && c.player.IsPlaying() {
		c.player.Pause()
		c.paused = true
	}
	return nil
}

func (c *Channel) Unpause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrChannelClosed
	}
	if c.paused && c.player != nil {
		c.paused = false
		c.player.Play()
	}
	return nil
}

func (c *Channel) SetLoop(loop bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loop = loop
}

func (c *Channel) SetMute(mute bool) {
	c.mu.Lock()
	c.muted = mute
	c.mu.Unlock()
	c.applyGain()
}

// IsPlaying reports whether the player is audible. A looping channel that
// reached the end is rewound here, so it never reads as stopped.
func (c *Channel) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.player == nil || c.paused {
		return false
	}
	if c.player.IsPlaying() {
		return true
	}
	if c.loop && c.player.Position() > 0 {
		if err := c.player.Rewind(); err != nil {
			return false
		}
		c.player.Play()
		return true
	}
	return false
}

// Elapsed returns the position within the clip, compensating for pitch.
func (c *Channel) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.player == nil {
		return 0
	}
	return time.Duration(float64(c.player.Position()) * playbackRate(c.pitch))
}

func (c *Channel) ClipLength() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clip == nil {
		return 0
	}
	return c.clip.Length
}

func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	err := c.releasePlayer()
	c.mu.Unlock()

	c.device.forget(c)
	return err
}

func (c *Channel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Channel) applyGain() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.player != nil {
		c.player.SetVolume(c.gainLocked())
	}
}

func (c *Channel) gainLocked() float64 {
	listener, master := c.device.gainState()
	spatial := spatialGain(c.position, listener, c.blend, c.minDistance, c.maxDistance)
	return effectiveVolume(c.volume, spatial, master, c.muted)
}

// discardPlayer drops the current player. A close failure is logged since
// the caller is replacing or clearing the player anyway.
func (c *Channel) discardPlayer() {
	if err := c.releasePlayer(); err != nil {
		c.device.logger.Warn("failed to close player", slog.Any("error", err))
	}
}

func (c *Channel) releasePlayer() error {
	if c.player == nil {
		return nil
	}
	err := c.player.Close()
	c.player = nil
	c.paused = false
	return err
}

var (
	_ ports.OutputDevice  = (*Device)(nil)
	_ ports.OutputChannel = (*Channel)(nil)
)
