// Package ports define interfaces for dependency inversion.
// These interfaces allow the playback core to remain independent of audio backends.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/soundstage/internal/domain"
)

// OutputChannel is one physical playback channel of an output device.
// A slot drives exactly one channel; the device mixes every open channel into its output.
//
// Channels are driven from the manager's tick thread and need not be thread-safe.
type OutputChannel interface {
	// Configuration (see domain.PlaybackSettings.ResolveOutputConfig)
	domain.OutputConfigurer

	// Clip returns the currently assigned clip, or nil.
	Clip() *domain.Clip

	// Volume returns the channel volume (0.0-1.0), before mute and master attenuation.
	Volume() float64

	// SetPosition moves the channel's emitter in world space.
	SetPosition(position domain.Vector3)

	// SetOutputGroup routes the channel into a mixer group.
	SetOutputGroup(group domain.MixerGroup)

	// Playback control methods

	// Play starts the assigned clip from the beginning.
	//
	// Returns an error if no clip is assigned or the channel is closed.
	Play() error

	// Stop halts playback and rewinds.
	Stop() error

	// Pause suspends playback, keeping the position.
	Pause() error

	// Unpause resumes a paused channel. It is a no-op on a channel that is not paused.
	Unpause() error

	// SetLoop makes the clip restart when it reaches its end.
	SetLoop(loop bool)

	// SetMute silences the channel without touching its volume.
	SetMute(mute bool)

	// State query methods

	// IsPlaying returns true while the clip is audible (not paused, not stopped, not ended).
	IsPlaying() bool

	// Elapsed returns the playback position within the clip.
	Elapsed() time.Duration

	// ClipLength returns the length of the assigned clip, or 0 without a clip.
	ClipLength() time.Duration

	// Lifecycle methods

	// Close releases the channel. Closing twice is a no-op.
	Close() error

	// Closed returns true once the channel has been closed, by its owner or by the device.
	Closed() bool
}

// Mixer is the routing stage every channel is mixed into.
type Mixer interface {
	// FindGroup resolves a routing group by name.
	//
	// Returns domain.ErrGroupNotFound if the group does not exist.
	FindGroup(name string) (domain.MixerGroup, error)

	// SetParameter sets an exposed mixer parameter in decibels.
	//
	// Returns domain.ErrUnknownParameter if the parameter does not exist.
	SetParameter(name string, valueDB float64) error
}

// OutputDevice allocates output channels and exposes its mixer.
//
// Implementations must be thread-safe for NewChannel/SetListener/Close since the
// application may reconfigure the listener from the UI thread.
type OutputDevice interface {
	// NewChannel allocates a fresh, stopped channel routed to no group.
	NewChannel() (OutputChannel, error)

	// Mixer returns the device mixer.
	Mixer() Mixer

	// SetListener moves the listener used for 3D attenuation.
	SetListener(position domain.Vector3)

	// Close releases every channel and the device itself.
	Close() error
}

// Target is a spatial position provider a slot may follow.
// The slot never owns its target: once Exists returns false the slot stops following it.
type Target interface {
	// Position returns the target's current world position.
	Position() domain.Vector3

	// Exists returns false once the target has been destroyed.
	Exists() bool
}

// ClipLoader resolves sound assets into decoded clips.
type ClipLoader interface {
	// Load decodes the file at path.
	//
	// Returns domain.ErrUnsupportedFormat for unknown extensions.
	Load(path string) (*domain.Clip, error)
}
