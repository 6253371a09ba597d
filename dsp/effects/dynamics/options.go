package dynamics

import (
	"time"

	"github.com/cwbudde/algo-dynamics/measure/level"
)

const (
	defaultSampleRate = 48000.0
	defaultChannels   = 2

	defaultAttack      = 0.01
	defaultHold        = 0.0
	defaultRelease     = 0.1
	defaultThresholdDB = -20.0
	defaultRatio       = 4.0
	defaultKneeDB      = 6.0
)

// Params holds the ballistics and curve parameters set together by
// Dynamics.SetParams. Times are in seconds, levels in dB.
type Params struct {
	Attack      float64
	Hold        float64
	Release     float64
	ThresholdDB float64
	Ratio       float64
	KneeDB      float64
}

// DefaultParams returns 10 ms attack, no hold, 100 ms release, -20 dB
// threshold, 4:1 ratio and a 6 dB knee.
func DefaultParams() Params {
	return Params{
		Attack:      defaultAttack,
		Hold:        defaultHold,
		Release:     defaultRelease,
		ThresholdDB: defaultThresholdDB,
		Ratio:       defaultRatio,
		KneeDB:      defaultKneeDB,
	}
}

type config struct {
	sampleRate float64
	channels   int
	typ        Type
	params     Params
	mode       DetectionMode
	analogTC   bool
	linked     bool
	inputGain  float64
	outputGain float64
	meterDecay float64
	clock      func() time.Time
}

func defaultConfig() config {
	return config{
		sampleRate: defaultSampleRate,
		channels:   defaultChannels,
		typ:        TypeCompressor,
		params:     DefaultParams(),
		mode:       DetectionRMS,
		linked:     true,
		inputGain:  1,
		outputGain: 1,
		meterDecay: level.DefaultDecay,
	}
}

// Option configures a Dynamics processor at construction time. Values are
// validated by New.
type Option func(*config)

// WithSampleRate sets the processing sample rate in Hz.
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *config) { cfg.sampleRate = sampleRate }
}

// WithChannels sets the channel count.
func WithChannels(channels int) Option {
	return func(cfg *config) { cfg.channels = channels }
}

// WithType selects the processor curve.
func WithType(t Type) Option {
	return func(cfg *config) { cfg.typ = t }
}

// WithParams sets ballistics and curve parameters.
func WithParams(p Params) Option {
	return func(cfg *config) { cfg.params = p }
}

// WithDetectionMode selects the detector rectification.
func WithDetectionMode(mode DetectionMode) Option {
	return func(cfg *config) { cfg.mode = mode }
}

// WithAnalogTC selects analog detector time constants.
func WithAnalogTC(analog bool) Option {
	return func(cfg *config) { cfg.analogTC = analog }
}

// WithLinked enables or disables channel linking.
func WithLinked(linked bool) Option {
	return func(cfg *config) { cfg.linked = linked }
}

// WithInputGain sets the linear gain applied before detection.
func WithInputGain(gain float64) Option {
	return func(cfg *config) { cfg.inputGain = gain }
}

// WithOutputGain sets the linear gain applied after the dynamic stage.
func WithOutputGain(gain float64) Option {
	return func(cfg *config) { cfg.outputGain = gain }
}

// WithMeterDecay sets the fall rate of the level meters in dB per second.
func WithMeterDecay(decayPerSecond float64) Option {
	return func(cfg *config) { cfg.meterDecay = decayPerSecond }
}

// WithClock replaces the meter time source.
func WithClock(now func() time.Time) Option {
	return func(cfg *config) { cfg.clock = now }
}
