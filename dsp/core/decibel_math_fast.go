//go:build fastmath

package core

import (
	"math"

	"github.com/meko-christian/algo-approx"
)

// ln10 is the natural logarithm of 10, used for log base conversions.
const ln10 = 2.302585092994045684017991454684

// mathLog10 computes log10(x) using fast approximation.
// Uses the identity: log10(x) = ln(x) / ln(10)
func mathLog10(x float64) float64 {
	return approx.FastLog(x) / ln10
}

// mathPower10 computes 10^x using standard library.
// The gain applied to the signal stays exact; only level detection is
// approximated.
func mathPower10(x float64) float64 {
	return math.Pow(10, x)
}
