package dynamics

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dynamics/dsp/core"
)

const (
	defaultDetectorAttack  = 0.01
	defaultDetectorRelease = 0.1

	// detectorSilenceDB is reported by a log detector whose envelope is
	// exactly zero.
	detectorSilenceDB = -100.0
)

// Time constants are the natural log of the fraction of the step that is
// still outstanding after the configured time.
var (
	digitalTimeConstant = math.Log(0.01)  // settle to 1 %
	analogTimeConstant  = math.Log(0.367) // one RC time constant
)

// DetectionMode selects the rectification applied before smoothing.
type DetectionMode int

const (
	// DetectionPeak follows |x|.
	DetectionPeak DetectionMode = iota
	// DetectionMeanSquare follows x², so the envelope is in power units.
	DetectionMeanSquare
	// DetectionRMS follows sqrt(x²). The square root is taken per sample
	// before smoothing, which makes it numerically identical to
	// DetectionPeak.
	DetectionRMS
)

func (m DetectionMode) String() string {
	switch m {
	case DetectionPeak:
		return "peak"
	case DetectionMeanSquare:
		return "mean-square"
	case DetectionRMS:
		return "rms"
	default:
		return fmt.Sprintf("DetectionMode(%d)", int(m))
	}
}

func (m DetectionMode) valid() bool {
	return m >= DetectionPeak && m <= DetectionRMS
}

// EnvelopeDetector is a one-pole envelope follower with independent attack
// and release ballistics and an optional hold phase.
//
// The zero value is not usable; create detectors with NewEnvelopeDetector.
// Process never allocates and is safe to call from an audio callback, but
// the detector is not safe for concurrent use.
type EnvelopeDetector struct {
	sampleRate float64

	attack  float64 // seconds
	release float64 // seconds
	hold    float64 // seconds

	mode        DetectionMode
	analogTC    bool
	logDetector bool

	attackCoeff  float64
	releaseCoeff float64

	envelope      float64
	holdRemaining float64
}

// NewEnvelopeDetector creates a peak detector with 10 ms attack, 100 ms
// release, no hold, digital time constants and linear output.
func NewEnvelopeDetector(sampleRate float64) (*EnvelopeDetector, error) {
	d := &EnvelopeDetector{}
	if err := d.init(sampleRate); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *EnvelopeDetector) init(sampleRate float64) error {
	if err := validateSampleRate(sampleRate); err != nil {
		return err
	}

	*d = EnvelopeDetector{
		sampleRate: sampleRate,
		attack:     defaultDetectorAttack,
		release:    defaultDetectorRelease,
		mode:       DetectionPeak,
	}
	d.updateCoefficients()

	return nil
}

// SetSampleRate changes the sample rate and recomputes the ballistics.
// Call Reset afterwards; the stored envelope belongs to the old timebase.
func (d *EnvelopeDetector) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate(sampleRate); err != nil {
		return err
	}

	d.sampleRate = sampleRate
	d.updateCoefficients()

	return nil
}

// SetAttackTime sets the attack time in seconds.
func (d *EnvelopeDetector) SetAttackTime(seconds float64) error {
	if err := validateTime("attack", seconds); err != nil {
		return err
	}

	d.attack = seconds
	d.attackCoeff = d.coefficient(seconds)

	return nil
}

// SetReleaseTime sets the release time in seconds.
func (d *EnvelopeDetector) SetReleaseTime(seconds float64) error {
	if err := validateTime("release", seconds); err != nil {
		return err
	}

	d.release = seconds
	d.releaseCoeff = d.coefficient(seconds)

	return nil
}

// SetHoldTime sets how long the envelope is frozen after the last attack.
// Zero disables hold.
func (d *EnvelopeDetector) SetHoldTime(seconds float64) error {
	if seconds < 0 || !core.IsFinite(seconds) {
		return fmt.Errorf("%w: hold must be non-negative and finite: %f", ErrInvalidParams, seconds)
	}

	d.hold = seconds

	return nil
}

// SetMode selects peak, mean-square or RMS rectification.
func (d *EnvelopeDetector) SetMode(mode DetectionMode) error {
	if !mode.valid() {
		return fmt.Errorf("%w: unknown detection mode: %d", ErrInvalidParams, mode)
	}

	d.mode = mode

	return nil
}

// SetAnalogTC selects analog (one time constant) instead of digital
// (1 % settle) time constants for attack and release.
func (d *EnvelopeDetector) SetAnalogTC(analog bool) {
	if d.analogTC == analog {
		return
	}

	d.analogTC = analog
	d.updateCoefficients()
}

// SetLogDetector makes Process return dB instead of the linear envelope.
func (d *EnvelopeDetector) SetLogDetector(log bool) { d.logDetector = log }

// SetParams configures all detector settings at once. Nothing changes when
// an argument is rejected.
func (d *EnvelopeDetector) SetParams(attack, hold, release float64, analogTC bool, mode DetectionMode, logDetector bool) error {
	if err := validateTime("attack", attack); err != nil {
		return err
	}

	if err := validateTime("release", release); err != nil {
		return err
	}

	if hold < 0 || !core.IsFinite(hold) {
		return fmt.Errorf("%w: hold must be non-negative and finite: %f", ErrInvalidParams, hold)
	}

	if !mode.valid() {
		return fmt.Errorf("%w: unknown detection mode: %d", ErrInvalidParams, mode)
	}

	d.attack = attack
	d.hold = hold
	d.release = release
	d.analogTC = analogTC
	d.mode = mode
	d.logDetector = logDetector
	d.updateCoefficients()

	return nil
}

// SampleRate returns the sample rate in Hz.
func (d *EnvelopeDetector) SampleRate() float64 { return d.sampleRate }

// AttackTime returns the attack time in seconds.
func (d *EnvelopeDetector) AttackTime() float64 { return d.attack }

// ReleaseTime returns the release time in seconds.
func (d *EnvelopeDetector) ReleaseTime() float64 { return d.release }

// HoldTime returns the hold time in seconds.
func (d *EnvelopeDetector) HoldTime() float64 { return d.hold }

// Mode returns the detection mode.
func (d *EnvelopeDetector) Mode() DetectionMode { return d.mode }

// AnalogTC reports whether analog time constants are in use.
func (d *EnvelopeDetector) AnalogTC() bool { return d.analogTC }

// LogDetector reports whether Process returns dB.
func (d *EnvelopeDetector) LogDetector() bool { return d.logDetector }

// AttackCoeff returns the per-sample attack decay coefficient.
func (d *EnvelopeDetector) AttackCoeff() float64 { return d.attackCoeff }

// ReleaseCoeff returns the per-sample release decay coefficient.
func (d *EnvelopeDetector) ReleaseCoeff() float64 { return d.releaseCoeff }

// Envelope returns the current smoothed value.
func (d *EnvelopeDetector) Envelope() float64 { return d.envelope }

// Reset clears the envelope and any pending hold.
func (d *EnvelopeDetector) Reset() {
	d.envelope = 0
	d.holdRemaining = 0
}

// SnapToZero flushes a denormal-range envelope to exact zero.
func (d *EnvelopeDetector) SnapToZero() {
	d.envelope = core.FlushDenormals(d.envelope)
}

// Process rectifies input, advances the ballistics by one sample and
// returns the envelope, in dB when the log detector is enabled.
func (d *EnvelopeDetector) Process(input float64) float64 {
	switch d.mode {
	case DetectionPeak:
		input = math.Abs(input)
	case DetectionMeanSquare:
		input *= input
	case DetectionRMS:
		input = math.Sqrt(input * input)
	}

	if input > d.envelope {
		d.envelope = d.attackCoeff*(d.envelope-input) + input
		d.holdRemaining = d.hold
	} else if d.hold > 0 && d.holdRemaining > 0 {
		d.holdRemaining -= 1.0 / d.sampleRate
	} else {
		d.envelope = d.releaseCoeff*(d.envelope-input) + input
	}

	d.envelope = math.Max(0, d.envelope)

	if d.logDetector {
		if d.envelope == 0 {
			return detectorSilenceDB
		}

		return core.LinearToDB(d.envelope)
	}

	return d.envelope
}

func (d *EnvelopeDetector) updateCoefficients() {
	d.attackCoeff = d.coefficient(d.attack)
	d.releaseCoeff = d.coefficient(d.release)
}

// coefficient converts a time in seconds to a one-pole decay factor in (0,1).
func (d *EnvelopeDetector) coefficient(seconds float64) float64 {
	tc := digitalTimeConstant
	if d.analogTC {
		tc = analogTimeConstant
	}

	return math.Exp(tc / (seconds * d.sampleRate))
}

func validateTime(name string, seconds float64) error {
	if seconds <= 0 || !core.IsFinite(seconds) {
		return fmt.Errorf("%w: %s must be positive and finite: %f", ErrInvalidParams, name, seconds)
	}

	return nil
}
