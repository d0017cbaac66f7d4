// Package domain contains the core playback models shared by every layer.
// This package defines clips, playback settings, positions and mixer handles.
package domain

import (
	"math"
	"time"

	"golang.org/x/image/math/f64"
)

// Vector3 is a position in world space (x, y, z).
type Vector3 = f64.Vec3

// Distance returns the euclidean distance between two positions.
func Distance(a, b Vector3) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Clip is a decoded sound asset ready to be assigned to an output channel.
// Clips are treated as opaque, already-resolved handles by the playback core.
type Clip struct {
	// Name is the display name (tag title or file name)
	Name string

	// Path is the file the clip was loaded from (empty for generated clips)
	Path string

	// PCM holds interleaved signed 16-bit little-endian stereo frames
	PCM []byte

	// SampleRate is the native sample rate of PCM in Hz
	SampleRate int

	// Length is the playback duration at pitch 1.0
	Length time.Duration
}

// BytesPerFrame is the size of one PCM frame in a Clip (2 channels * 16 bit).
const BytesPerFrame = 4

// NewClip creates a clip from interleaved 16-bit stereo PCM and derives its length.
func NewClip(name string, pcm []byte, sampleRate int) *Clip {
	clip := &Clip{
		Name:       name,
		PCM:        pcm,
		SampleRate: sampleRate,
	}
	if sampleRate > 0 {
		frames := len(pcm) / BytesPerFrame
		clip.Length = time.Duration(float64(frames) / float64(sampleRate) * float64(time.Second))
	}
	return clip
}

// SpatialMode selects between flat and positional playback.
type SpatialMode int

const (
	// SpatialThreeD plays the clip positioned in world space
	SpatialThreeD SpatialMode = iota

	// SpatialTwoD plays the clip without spatialization
	SpatialTwoD
)

// String returns a human-readable representation of the spatial mode.
func (m SpatialMode) String() string {
	switch m {
	case SpatialTwoD:
		return "2d"
	case SpatialThreeD:
		return "3d"
	default:
		return "unknown"
	}
}

// Blend returns the spatial blend factor applied to an output channel.
func (m SpatialMode) Blend() float64 {
	if m == SpatialTwoD {
		return 0
	}
	return 1
}

// ParseSpatialMode converts "2d"/"3d" into a SpatialMode.
func ParseSpatialMode(s string) (SpatialMode, bool) {
	switch s {
	case "2d", "2D", "twod":
		return SpatialTwoD, true
	case "3d", "3D", "threed", "":
		return SpatialThreeD, true
	default:
		return SpatialThreeD, false
	}
}

// MixerGroup is an opaque handle to a routing group inside the output mixer.
type MixerGroup string

const (
	// InvalidMixerGroup is the zero handle returned when a group cannot be resolved
	InvalidMixerGroup MixerGroup = ""
)

// SlotID uniquely identifies an audio slot for the lifetime of the process.
type SlotID uint64

// SlotState is the lifecycle classification of an audio slot.
type SlotState int

const (
	// StateInert is a slot with no clip, either pooled or freshly allocated
	StateInert SlotState = iota

	// StateInitializing is a slot whose settings are being applied
	StateInitializing

	// StatePlaying is a slot whose channel has been started
	StatePlaying

	// StatePaused is a playing slot whose channel is suspended
	StatePaused

	// StateFinished is a slot whose channel stopped on its own
	StateFinished

	// StateDestroyed is a slot whose channel has been released
	StateDestroyed
)

// String returns a human-readable representation of the slot state.
func (s SlotState) String() string {
	switch s {
	case StateInert:
		return "inert"
	case StateInitializing:
		return "initializing"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateFinished:
		return "finished"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}
