package clip

import (
	"encoding/binary"
	"math"
)

// intToStereo16 converts interleaved integer samples of the given bit depth
// into 16-bit little-endian stereo. Mono is duplicated; extra channels are dropped.
func intToStereo16(samples []int, channels, bitDepth int) []byte {
	if channels <= 0 {
		return nil
	}
	shift := bitDepth - 16

	frames := len(samples) / channels
	out := make([]byte, frames*4)
	for f := 0; f < frames; f++ {
		l := samples[f*channels]
		r := l
		if channels > 1 {
			r = samples[f*channels+1]
		}
		binary.LittleEndian.PutUint16(out[f*4:], uint16(scaleTo16(l, shift)))
		binary.LittleEndian.PutUint16(out[f*4+2:], uint16(scaleTo16(r, shift)))
	}
	return out
}

// scaleTo16 moves a sample from its native depth into int16 range.
func scaleTo16(v, shift int) int16 {
	switch {
	case shift > 0:
		v >>= shift
	case shift < 0:
		v <<= -shift
	}
	return int16(max(math.MinInt16, min(math.MaxInt16, v)))
}

// floatToStereo16 converts interleaved [-1, 1] samples into 16-bit little-endian stereo.
func floatToStereo16(samples []float32, channels int) []byte {
	if channels <= 0 {
		return nil
	}

	frames := len(samples) / channels
	out := make([]byte, frames*4)
	for f := 0; f < frames; f++ {
		l := samples[f*channels]
		r := l
		if channels > 1 {
			r = samples[f*channels+1]
		}
		binary.LittleEndian.PutUint16(out[f*4:], uint16(floatTo16(l)))
		binary.LittleEndian.PutUint16(out[f*4+2:], uint16(floatTo16(r)))
	}
	return out
}

func floatTo16(v float32) int16 {
	v = max(-1, min(1, v))
	return int16(math.Round(float64(v) * math.MaxInt16))
}
