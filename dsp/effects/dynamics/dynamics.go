package dynamics

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-dynamics/dsp/buffer"
	"github.com/cwbudde/algo-dynamics/dsp/core"
	"github.com/cwbudde/algo-dynamics/measure/level"
)

// ErrInvalidParams is wrapped by every configuration error of this package.
var ErrInvalidParams = errors.New("dynamics: invalid parameters")

// Metrics is a snapshot of the metering state of a Dynamics processor.
// Fields are read individually and may come from different blocks.
type Metrics struct {
	InputLevel     float64 // Input peak level in dB, with decay
	OutputLevel    float64 // Output peak level in dB, with decay
	ReductionLevel float64 // Gain-reduction meter in dB, with decay
	GainReduction  float64 // Minimum linear gain of the last block
	InputClip      bool
	OutputClip     bool
}

// Dynamics is a multi-channel compressor, limiter, expander or gate built
// from per-channel envelope detectors and a static dB transfer curve.
//
// Process runs on the audio thread and never allocates, locks or blocks.
// Setters are meant for a control thread, but Dynamics does not synchronize
// them against Process; callers must not change parameters while a block
// is being processed. The metering accessors are safe to call from any
// goroutine at any time.
type Dynamics struct {
	sampleRate float64
	channels   int
	linked     bool
	inputGain  float64
	outputGain float64

	params   Params
	curve    Curve
	mode     DetectionMode
	analogTC bool

	// One detector per channel. Linked processing still runs every channel
	// through its own detector and averages the results.
	detectors []EnvelopeDetector

	inputMeter     *level.Tracker
	outputMeter    *level.Tracker
	reductionMeter *level.Tracker
	gainReduction  atomic.Uint64 // float64 bits
}

// New creates a Dynamics processor. Without options it is a linked stereo
// compressor at 48 kHz using DefaultParams and RMS detection.
func New(opts ...Option) (*Dynamics, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if err := validateSampleRate(cfg.sampleRate); err != nil {
		return nil, err
	}

	if err := validateChannels(cfg.channels); err != nil {
		return nil, err
	}

	if err := validateParams(cfg.typ, cfg.params); err != nil {
		return nil, err
	}

	if !cfg.mode.valid() {
		return nil, fmt.Errorf("%w: unknown detection mode: %d", ErrInvalidParams, cfg.mode)
	}

	if err := validateGain("input", cfg.inputGain); err != nil {
		return nil, err
	}

	if err := validateGain("output", cfg.outputGain); err != nil {
		return nil, err
	}

	var meterOpts []level.Option
	if cfg.clock != nil {
		meterOpts = append(meterOpts, level.WithClock(cfg.clock))
	}

	d := &Dynamics{
		sampleRate:     cfg.sampleRate,
		channels:       cfg.channels,
		linked:         cfg.linked,
		inputGain:      cfg.inputGain,
		outputGain:     cfg.outputGain,
		params:         cfg.params,
		curve:          curveFrom(cfg.typ, cfg.params),
		mode:           cfg.mode,
		analogTC:       cfg.analogTC,
		detectors:      make([]EnvelopeDetector, cfg.channels),
		inputMeter:     level.NewTracker(cfg.meterDecay, meterOpts...),
		outputMeter:    level.NewTracker(cfg.meterDecay, meterOpts...),
		reductionMeter: level.NewTracker(cfg.meterDecay, meterOpts...),
	}

	d.configureDetectors()
	d.Reset()

	return d, nil
}

// SetSampleRate changes the sample rate and resets all detector state.
func (d *Dynamics) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate(sampleRate); err != nil {
		return err
	}

	d.sampleRate = sampleRate
	d.configureDetectors()
	d.Reset()

	return nil
}

// SetNumChannels changes the channel count. Detector state is reallocated
// and reset only when the count actually changes.
func (d *Dynamics) SetNumChannels(channels int) error {
	if err := validateChannels(channels); err != nil {
		return err
	}

	if channels == d.channels {
		return nil
	}

	d.channels = channels
	d.detectors = make([]EnvelopeDetector, channels)
	d.configureDetectors()
	d.Reset()

	return nil
}

// SetParams sets ballistics and curve parameters together. Nothing changes
// when any value is rejected.
func (d *Dynamics) SetParams(p Params) error {
	if err := validateParams(d.curve.Type, p); err != nil {
		return err
	}

	d.params = p
	d.curve = curveFrom(d.curve.Type, p)
	d.configureDetectors()

	return nil
}

// SetType selects the processor curve.
func (d *Dynamics) SetType(t Type) error {
	if !t.valid() {
		return fmt.Errorf("%w: unknown processor type: %d", ErrInvalidParams, t)
	}

	d.curve.Type = t

	return nil
}

// SetDetectionMode selects the detector rectification for every channel.
func (d *Dynamics) SetDetectionMode(mode DetectionMode) error {
	if !mode.valid() {
		return fmt.Errorf("%w: unknown detection mode: %d", ErrInvalidParams, mode)
	}

	d.mode = mode
	d.configureDetectors()

	return nil
}

// SetAnalogTC selects analog or digital detector time constants.
func (d *Dynamics) SetAnalogTC(analog bool) {
	d.analogTC = analog
	d.configureDetectors()
}

// SetLinked enables or disables channel linking.
func (d *Dynamics) SetLinked(linked bool) { d.linked = linked }

// SetInputGain sets the linear gain applied before detection.
func (d *Dynamics) SetInputGain(gain float64) error {
	if err := validateGain("input", gain); err != nil {
		return err
	}

	d.inputGain = gain

	return nil
}

// SetOutputGain sets the linear gain applied after the dynamic stage.
func (d *Dynamics) SetOutputGain(gain float64) error {
	if err := validateGain("output", gain); err != nil {
		return err
	}

	d.outputGain = gain

	return nil
}

// SampleRate returns the sample rate in Hz.
func (d *Dynamics) SampleRate() float64 { return d.sampleRate }

// Channels returns the channel count.
func (d *Dynamics) Channels() int { return d.channels }

// Linked reports whether channels share one gain.
func (d *Dynamics) Linked() bool { return d.linked }

// InputGain returns the linear input gain.
func (d *Dynamics) InputGain() float64 { return d.inputGain }

// OutputGain returns the linear output gain.
func (d *Dynamics) OutputGain() float64 { return d.outputGain }

// Params returns the current ballistics and curve parameters.
func (d *Dynamics) Params() Params { return d.params }

// Type returns the processor type.
func (d *Dynamics) Type() Type { return d.curve.Type }

// DetectionMode returns the detector rectification.
func (d *Dynamics) DetectionMode() DetectionMode { return d.mode }

// AnalogTC reports whether analog time constants are in use.
func (d *Dynamics) AnalogTC() bool { return d.analogTC }

// Curve returns the current static transfer curve.
func (d *Dynamics) Curve() Curve { return d.curve }

// CalcCurve maps a detected level in dB to the target output level in dB.
func (d *Dynamics) CalcCurve(dbIn float64) float64 { return d.curve.Apply(dbIn) }

// Reset clears every detector. It must not run concurrently with Process.
func (d *Dynamics) Reset() {
	for c := range d.detectors {
		d.detectors[c].Reset()
	}

	d.gainReduction.Store(math.Float64bits(1))
}

// Process applies the dynamics to buf in place.
//
// envOut, when non-nil, receives the detected linear envelope per sample:
// one channel in linked mode, one per channel otherwise. Shape mismatches
// are reported before any sample is touched.
func (d *Dynamics) Process(buf *buffer.Buffer, envOut *buffer.Buffer) error {
	if buf == nil {
		return errors.New("dynamics: nil buffer")
	}

	if buf.Channels() != d.channels {
		return fmt.Errorf("dynamics: buffer has %d channels, processor is configured for %d",
			buf.Channels(), d.channels)
	}

	n := buf.Samples()

	if envOut != nil {
		need := d.channels
		if d.linked {
			need = 1
		}

		if envOut.Channels() < need || envOut.Samples() < n {
			return fmt.Errorf("dynamics: envelope buffer is %dx%d, need at least %dx%d",
				envOut.Channels(), envOut.Samples(), need, n)
		}
	}

	buf.ApplyGain(d.inputGain)
	d.inputMeter.TrackBuffer(buf)

	blockReduction := 1.0

	for i := range n {
		reduction := 1.0

		if d.linked {
			linked := 0.0
			for c := range d.channels {
				linked += d.detectors[c].Process(buf.Channel(c)[i])
			}

			linked /= float64(d.channels)

			if envOut != nil {
				envOut.Channel(0)[i] = linked
			}

			gain := d.curve.Gain(core.GainToDecibels(linked))
			reduction = math.Min(reduction, gain)

			for c := range d.channels {
				x := buf.Channel(c)
				x[i] = gain * x[i] * d.outputGain
			}
		} else {
			for c := range d.channels {
				x := buf.Channel(c)

				env := d.detectors[c].Process(d.inputGain * x[i])
				if envOut != nil {
					envOut.Channel(c)[i] = env
				}

				gain := d.curve.Gain(core.GainToDecibels(env))
				reduction = math.Min(reduction, gain)

				x[i] = d.inputGain * gain * x[i] * d.outputGain
			}
		}

		for c := range d.detectors {
			d.detectors[c].SnapToZero()
		}

		d.reductionMeter.TrackSample(reduction)
		blockReduction = math.Min(blockReduction, reduction)
	}

	d.outputMeter.TrackBuffer(buf)
	d.gainReduction.Store(math.Float64bits(blockReduction))

	return nil
}

// InputLevel returns the input meter level in dB.
func (d *Dynamics) InputLevel() float64 { return d.inputMeter.Level() }

// OutputLevel returns the output meter level in dB.
func (d *Dynamics) OutputLevel() float64 { return d.outputMeter.Level() }

// ReductionLevel returns the gain-reduction meter level in dB.
func (d *Dynamics) ReductionLevel() float64 { return d.reductionMeter.Level() }

// GainReduction returns the smallest linear gain applied during the last
// processed block; 1 means no reduction.
func (d *Dynamics) GainReduction() float64 {
	return math.Float64frombits(d.gainReduction.Load())
}

// InputClip reports whether the gained input exceeded full scale since the
// last ClearClip.
func (d *Dynamics) InputClip() bool { return d.inputMeter.Clip() }

// OutputClip reports whether the output exceeded full scale since the last
// ClearClip.
func (d *Dynamics) OutputClip() bool { return d.outputMeter.Clip() }

// ClearClip resets the input and output clip flags.
func (d *Dynamics) ClearClip() {
	d.inputMeter.ClearClip()
	d.outputMeter.ClearClip()
}

// GetMetrics returns current metering values.
func (d *Dynamics) GetMetrics() Metrics {
	return Metrics{
		InputLevel:     d.InputLevel(),
		OutputLevel:    d.OutputLevel(),
		ReductionLevel: d.ReductionLevel(),
		GainReduction:  d.GainReduction(),
		InputClip:      d.InputClip(),
		OutputClip:     d.OutputClip(),
	}
}

// ResetMetrics clears all meters and clip flags.
func (d *Dynamics) ResetMetrics() {
	d.inputMeter.Reset()
	d.outputMeter.Reset()
	d.reductionMeter.Reset()
	d.gainReduction.Store(math.Float64bits(1))
}

// configureDetectors pushes sample rate and ballistics into every detector.
// Parameters are validated beforehand, so the detector setters cannot fail.
func (d *Dynamics) configureDetectors() {
	for c := range d.detectors {
		det := &d.detectors[c]
		if det.sampleRate != d.sampleRate {
			_ = det.init(d.sampleRate)
		}

		_ = det.SetParams(d.params.Attack, d.params.Hold, d.params.Release, d.analogTC, d.mode, false)
	}
}

func curveFrom(t Type, p Params) Curve {
	return Curve{
		Type:        t,
		ThresholdDB: p.ThresholdDB,
		Ratio:       p.Ratio,
		KneeDB:      p.KneeDB,
	}
}

func validateParams(t Type, p Params) error {
	if err := validateTime("attack", p.Attack); err != nil {
		return err
	}

	if err := validateTime("release", p.Release); err != nil {
		return err
	}

	if p.Hold < 0 || !core.IsFinite(p.Hold) {
		return fmt.Errorf("%w: hold must be non-negative and finite: %f", ErrInvalidParams, p.Hold)
	}

	return curveFrom(t, p).Validate()
}

func validateSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("%w: sample rate must be positive and finite: %f", ErrInvalidParams, sampleRate)
	}

	return nil
}

func validateChannels(channels int) error {
	if channels <= 0 {
		return fmt.Errorf("%w: channel count must be positive: %d", ErrInvalidParams, channels)
	}

	return nil
}

func validateGain(name string, gain float64) error {
	if gain < 0 || !core.IsFinite(gain) {
		return fmt.Errorf("%w: %s gain must be non-negative and finite: %f", ErrInvalidParams, name, gain)
	}

	return nil
}
