//go:build !fastmath

package testutil

// DecibelTolerance is the absolute error, in dB, allowed for levels that
// went through core.GainToDecibels.
const DecibelTolerance = 1e-9
