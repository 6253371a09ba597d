//go:build fastmath

package core

// algo-approx's FastLog is accurate to about 1e-4 dB after scaling.
const (
	dbTolerance   = 1e-3 // dB, absolute
	gainTolerance = 1e-4 // relative
)
