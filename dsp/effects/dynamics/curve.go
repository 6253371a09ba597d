package dynamics

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-dynamics/dsp/core"
)

const (
	// gateRatio is the fixed expansion slope used inside the gate knee.
	gateRatio = 100.0
	// gateFloorDB is the output level of a fully closed gate.
	gateFloorDB = -1000.0
)

// Type selects the static transfer curve of a dynamics processor.
type Type int

const (
	// TypeCompressor reduces the slope above threshold by 1/ratio.
	TypeCompressor Type = iota
	// TypeLimiter holds the output at threshold above the knee.
	TypeLimiter
	// TypeExpander multiplies the slope below threshold by ratio.
	TypeExpander
	// TypeGate drops the output to -1000 dB below the knee.
	TypeGate
)

var typeNames = [...]string{
	TypeCompressor: "compressor",
	TypeLimiter:    "limiter",
	TypeExpander:   "expander",
	TypeGate:       "gate",
}

func (t Type) String() string {
	if t.valid() {
		return typeNames[t]
	}

	return fmt.Sprintf("Type(%d)", int(t))
}

func (t Type) valid() bool {
	return t >= TypeCompressor && t <= TypeGate
}

// ParseType resolves a processor name such as "compressor" or "gate".
func ParseType(name string) (Type, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range typeNames {
		if n == name {
			return Type(i), nil
		}
	}

	return 0, fmt.Errorf("%w: unknown processor type: %q", ErrInvalidParams, name)
}

// Curve is the static dB-in to dB-out mapping of a dynamics processor.
// It holds no state and is safe to copy and share.
type Curve struct {
	Type        Type
	ThresholdDB float64
	Ratio       float64
	KneeDB      float64
}

// Validate checks that the curve can be evaluated.
func (c Curve) Validate() error {
	if !c.Type.valid() {
		return fmt.Errorf("%w: unknown processor type: %d", ErrInvalidParams, c.Type)
	}

	if !core.IsFinite(c.ThresholdDB) {
		return fmt.Errorf("%w: threshold must be finite: %f", ErrInvalidParams, c.ThresholdDB)
	}

	if c.Ratio <= 0 || !core.IsFinite(c.Ratio) {
		return fmt.Errorf("%w: ratio must be positive and finite: %f", ErrInvalidParams, c.Ratio)
	}

	if c.KneeDB < 0 || !core.IsFinite(c.KneeDB) {
		return fmt.Errorf("%w: knee must be non-negative and finite: %f", ErrInvalidParams, c.KneeDB)
	}

	return nil
}

// Apply maps a detected level in dB to the target output level in dB.
//
// With a zero knee the curve is piecewise linear. A positive knee blends
// the segments with a quadratic over [threshold-knee/2, threshold+knee/2].
func (c Curve) Apply(dbIn float64) float64 {
	half := c.KneeDB / 2
	inKnee := c.KneeDB > 0 && dbIn >= c.ThresholdDB-half && dbIn <= c.ThresholdDB+half

	switch c.Type {
	case TypeCompressor:
		if inKnee {
			x := dbIn - c.ThresholdDB + half
			return dbIn + (1/c.Ratio-1)*x*x/(2*c.KneeDB)
		}

		if dbIn > c.ThresholdDB+half {
			return c.ThresholdDB + (dbIn-c.ThresholdDB)/c.Ratio
		}

		return dbIn

	case TypeLimiter:
		if inKnee {
			x := dbIn - c.ThresholdDB + half
			return dbIn + x*x/(2*c.KneeDB)
		}

		if dbIn > c.ThresholdDB+half {
			return c.ThresholdDB
		}

		return dbIn

	case TypeExpander:
		if inKnee {
			x := dbIn - c.ThresholdDB - half
			return dbIn - (c.Ratio-1)*x*x/(2*c.KneeDB)
		}

		// Outside the knee this is the same as dbIn < threshold-half.
		if dbIn < c.ThresholdDB+half {
			return c.ThresholdDB + (dbIn-c.ThresholdDB)*c.Ratio
		}

		return dbIn

	case TypeGate:
		if inKnee {
			x := dbIn - c.ThresholdDB - half
			return dbIn - (gateRatio-1)*x*x/(2*c.KneeDB)
		}

		if dbIn < c.ThresholdDB-half {
			return gateFloorDB
		}

		return dbIn
	}

	unreachableType(c.Type)

	return dbIn
}

// Gain returns the linear gain that moves a signal detected at levelDB onto
// the curve.
func (c Curve) Gain(levelDB float64) float64 {
	return core.DecibelsToGain(c.Apply(levelDB) - levelDB)
}

// Slope estimates d(out)/d(in) at dbIn with a central difference of width
// 2*h dB.
func (c Curve) Slope(dbIn, h float64) float64 {
	if h <= 0 {
		h = 1e-6
	}

	return (c.Apply(dbIn+h) - c.Apply(dbIn-h)) / (2 * h)
}
