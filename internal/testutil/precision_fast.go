//go:build fastmath

package testutil

// DecibelTolerance is the absolute error, in dB, allowed for levels that
// went through core.GainToDecibels. The fastmath log is good to about
// 1e-4 dB.
const DecibelTolerance = 1e-3
