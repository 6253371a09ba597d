package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Step generates a signal that holds before until pos and after from pos on.
func Step(before, after float64, length, pos int) []float64 {
	out := make([]float64, length)
	for i := range out {
		if i < pos {
			out[i] = before
		} else {
			out[i] = after
		}
	}
	return out
}

// Channels returns n independent copies of signal.
func Channels(signal []float64, n int) [][]float64 {
	out := make([][]float64, n)
	for c := range out {
		out[c] = append([]float64(nil), signal...)
	}
	return out
}
