package audio

import (
	"encoding/binary"
	"time"
)

// Duration returns the natural play time of a 16-bit mono PCM clip.
func Duration(pcm []byte, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := len(pcm) / 2
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

// decodeSamples converts 16-bit LE PCM to normalized float32 samples
// with volume applied.
func decodeSamples(pcm []byte, volume float64) []float32 {
	n := len(pcm) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		samples[i] = float32(float64(s) / 32768.0 * volume)
	}
	return samples
}

// resample stretches or compresses samples for a speed factor by
// nearest-sample selection. Speed 1.0 returns the input unchanged.
func resample(samples []float32, speed float64) []float32 {
	if speed == 1.0 || speed <= 0 || len(samples) == 0 {
		return samples
	}
	n := int(float64(len(samples)) / speed)
	if n == 0 {
		n = 1
	}
	out := make([]float32, n)
	for i := range out {
		src := int(float64(i) * speed)
		if src >= len(samples) {
			src = len(samples) - 1
		}
		out[i] = samples[src]
	}
	return out
}
