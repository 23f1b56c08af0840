package audio

import (
	"encoding/binary"
	"math"
)

// EncodeFrame converts one frame of float32 samples in [-1, 1] to a
// PCM16LE byte buffer. Samples are clamped first, then scaled
// asymmetrically: negative samples by 32768, non-negative by 32767. This
// preserves the full negative range (-1.0 maps to -32768) without
// overflowing at +1.0.
func EncodeFrame(samples []float32) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}

		var v int16
		if s < 0 {
			v = int16(s * 32768)
		} else {
			v = int16(s * 32767)
		}

		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	return buf
}

// DecodeFrame converts a PCM16LE byte buffer back to float32 samples.
// Odd trailing bytes are ignored. Used by tests and debugging tools; the
// live pipeline only encodes.
func DecodeFrame(data []byte) []float32 {
	samples := make([]float32, len(data)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		if v < 0 {
			samples[i] = float32(v) / 32768
		} else {
			samples[i] = float32(v) / 32767
		}
	}
	return samples
}

// RMS calculates the root mean square level of a frame of samples.
// Used for the audio level gauge; it never gates frame transmission.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}

	return math.Sqrt(sum / float64(len(samples)))
}
