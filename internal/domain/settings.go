package domain

import (
	"math/rand/v2"
)

// Pitch and distance limits for PlaybackSettings.
const (
	MinPitch = -3.0
	MaxPitch = 3.0

	DefaultMinDistance = 1.0
	DefaultMaxDistance = 500.0
)

// PlaybackSettings describes how a single clip should be played.
// Settings are built once per play request and copied into the slot that plays them.
type PlaybackSettings struct {
	// Clip is the sound asset to play
	Clip *Clip

	// Volume is the channel volume in (0, 1]
	Volume float64

	// PitchMin and PitchMax bound the pitch sampled at play time, within [-3, 3]
	PitchMin float64
	PitchMax float64

	// Spatial selects 2D or 3D playback
	Spatial SpatialMode

	// MinDistance and MaxDistance are the attenuation distances for 3D playback
	MinDistance float64
	MaxDistance float64
}

// NewPlaybackSettings returns settings for clip with full volume, pitch 1 and 3D defaults.
func NewPlaybackSettings(clip *Clip) PlaybackSettings {
	return PlaybackSettings{
		Clip:        clip,
		Volume:      1,
		PitchMin:    1,
		PitchMax:    1,
		Spatial:     SpatialThreeD,
		MinDistance: DefaultMinDistance,
		MaxDistance: DefaultMaxDistance,
	}
}

// IsValid reports whether the settings can be played: a clip is set and volume is audible.
func (s PlaybackSettings) IsValid() bool {
	return s.Clip != nil && s.Volume > 0
}

// Validate checks every field range and returns a ValidationError for the first violation.
// Play only consults IsValid; Validate is used when settings come from external files.
func (s PlaybackSettings) Validate() error {
	switch {
	case s.Clip == nil:
		return NewValidationError("clip", nil, "clip is required")
	case s.Volume <= 0 || s.Volume > 1:
		return NewValidationError("volume", s.Volume, "must be in (0, 1]")
	case s.PitchMin < MinPitch || s.PitchMin > MaxPitch:
		return NewValidationError("pitch_min", s.PitchMin, "must be in [-3, 3]")
	case s.PitchMax < MinPitch || s.PitchMax > MaxPitch:
		return NewValidationError("pitch_max", s.PitchMax, "must be in [-3, 3]")
	case s.PitchMin > s.PitchMax:
		return NewValidationError("pitch_min", s.PitchMin, "must not exceed pitch_max")
	case s.MinDistance < 0:
		return NewValidationError("min_distance", s.MinDistance, "must not be negative")
	case s.MaxDistance < 0:
		return NewValidationError("max_distance", s.MaxDistance, "must not be negative")
	}
	return nil
}

// OutputConfigurer is the part of an output channel that settings are resolved onto.
type OutputConfigurer interface {
	SetClip(clip *Clip)
	SetVolume(volume float64)
	SetPitch(pitch float64)
	SetSpatialBlend(blend float64)
	SetDistances(min, max float64)
	SetAutoPlay(enabled bool)
}

// ResolveOutputConfig applies the settings to ch.
// The pitch is sampled once from [PitchMin, PitchMax] using rng (the global source when nil);
// equal bounds skip sampling.
func (s PlaybackSettings) ResolveOutputConfig(ch OutputConfigurer, rng *rand.Rand) {
	ch.SetClip(s.Clip)
	ch.SetVolume(s.Volume)
	ch.SetPitch(s.samplePitch(rng))
	ch.SetSpatialBlend(s.Spatial.Blend())
	ch.SetDistances(s.MinDistance, s.MaxDistance)
	ch.SetAutoPlay(false)
}

func (s PlaybackSettings) samplePitch(rng *rand.Rand) float64 {
	if s.PitchMin == s.PitchMax {
		return s.PitchMin
	}
	var r float64
	if rng != nil {
		r = rng.Float64()
	} else {
		r = rand.Float64()
	}
	return s.PitchMin + r*(s.PitchMax-s.PitchMin)
}
