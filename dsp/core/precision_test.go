//go:build !fastmath

package core

const (
	dbTolerance   = 1e-9  // dB, absolute
	gainTolerance = 1e-12 // relative
)
