package ebiten

import (
	"math"

	"github.com/tejashwikalptaru/soundstage/internal/domain"
)

// minPlaybackRate keeps resampling well-defined for pitches near zero.
const minPlaybackRate = 0.01

// attenuation returns the inverse-distance rolloff for an emitter at distance d.
// Inside minDistance the gain is 1; beyond maxDistance it stays at its floor.
func attenuation(d, minDistance, maxDistance float64) float64 {
	if minDistance <= 0 {
		return 1
	}
	if maxDistance < minDistance {
		maxDistance = minDistance
	}
	d = math.Max(minDistance, math.Min(maxDistance, d))
	return minDistance / d
}

// spatialGain blends between flat (blend 0) and attenuated (blend 1) playback.
func spatialGain(emitter, listener domain.Vector3, blend, minDistance, maxDistance float64) float64 {
	if blend <= 0 {
		return 1
	}
	g := attenuation(domain.Distance(emitter, listener), minDistance, maxDistance)
	return 1 + math.Min(blend, 1)*(g-1)
}

// decibelToGain converts a mixer attenuation in dB into a linear factor.
func decibelToGain(db float64) float64 {
	return math.Pow(10, db/20)
}

// playbackRate maps a pitch onto a resampling factor. Reverse playback is not
// supported by the stream backend, so negative pitches play forward at |pitch|.
func playbackRate(pitch float64) float64 {
	return math.Max(minPlaybackRate, math.Abs(pitch))
}

// effectiveVolume combines every gain stage applied to a player.
func effectiveVolume(volume, spatial, master float64, muted bool) float64 {
	if muted {
		return 0
	}
	return math.Max(0, math.Min(1, volume*spatial*master))
}
