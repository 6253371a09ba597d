package core

import "math"

const defaultEpsilon = 1e-12

// MinusInfinityDB is the level reported for silence. Gains at or below it
// convert to exact zero.
const MinusInfinityDB = -100.0

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// FlushDenormals converts tiny denormal-like values to exact zero.
// This can reduce denormal-related CPU slowdowns in hot DSP loops.
func FlushDenormals(x float64) float64 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0
	}

	return x
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// GainToDecibels converts a linear gain to dB (20*log10 convention).
// Gains that are zero, negative or below MinusInfinityDB report
// MinusInfinityDB. Unity gain is exactly 0 dB with either math backend.
func GainToDecibels(gain float64) float64 {
	switch {
	case gain <= 0:
		return MinusInfinityDB
	case gain == 1:
		return 0
	}

	return math.Max(MinusInfinityDB, 20*mathLog10(gain))
}

// DecibelsToGain converts dB to a linear gain. Levels at or below
// MinusInfinityDB return 0.
func DecibelsToGain(db float64) float64 {
	if db <= MinusInfinityDB {
		return 0
	}

	return mathPower10(db / 20)
}

// LinearToDB converts linear amplitude to dB without the silence floor.
// Returns -Inf for zero and NaN for negative values.
func LinearToDB(linear float64) float64 {
	if linear < 0 {
		return math.NaN()
	}

	if linear == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}
