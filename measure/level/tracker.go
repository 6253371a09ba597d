package level

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-dynamics/dsp/buffer"
	"github.com/cwbudde/algo-dynamics/dsp/core"
	"github.com/cwbudde/algo-vecmath"
)

const (
	// DefaultDecay is the meter fall rate in dB per second.
	DefaultDecay = 30.0
	// DefaultHold is how long a new peak is held before it starts to decay.
	DefaultHold = 50 * time.Millisecond
)

// Tracker follows the peak level of a signal in dB and latches a clip flag
// whenever a sample exceeds full scale.
type Tracker struct {
	decayRate atomic.Uint64 // float64 bits, dB per second
	peakLevel atomic.Uint64 // float64 bits, dB
	peakTime  atomic.Int64  // unix nanoseconds
	clip      atomic.Bool

	hold time.Duration
	now  func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithHold sets how long a peak is held before decaying.
func WithHold(d time.Duration) Option {
	return func(t *Tracker) {
		if d >= 0 {
			t.hold = d
		}
	}
}

// NewTracker returns a Tracker that falls by decayPerSecond dB per second
// once the hold time has passed. Non-positive or non-finite rates disable
// the decay.
func NewTracker(decayPerSecond float64, opts ...Option) *Tracker {
	t := &Tracker{
		hold: DefaultHold,
		now:  time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}

	t.SetDecay(decayPerSecond)
	t.Reset()

	return t
}

// SetDecay changes the fall rate in dB per second.
func (t *Tracker) SetDecay(decayPerSecond float64) {
	if !core.IsFinite(decayPerSecond) || decayPerSecond < 0 {
		decayPerSecond = 0
	}

	t.decayRate.Store(math.Float64bits(decayPerSecond))
}

// Decay returns the fall rate in dB per second.
func (t *Tracker) Decay() float64 {
	return math.Float64frombits(t.decayRate.Load())
}

// TrackSample feeds one sample into the meter.
func (t *Tracker) TrackSample(x float64) {
	peak := math.Abs(x)
	if peak > 1.0 {
		t.clip.Store(true)
	}

	now := t.now()

	db := core.GainToDecibels(peak)
	if db > t.levelAt(now) {
		t.peakLevel.Store(math.Float64bits(db))
		t.peakTime.Store(now.UnixNano())
	}
}

// TrackSlice feeds the peak of samples into the meter.
func (t *Tracker) TrackSlice(samples []float64) {
	if len(samples) == 0 {
		return
	}

	t.TrackSample(vecmath.MaxAbs(samples))
}

// TrackBuffer feeds the peak of every channel of buf into the meter.
func (t *Tracker) TrackBuffer(buf *buffer.Buffer) {
	if buf.Samples() == 0 {
		return
	}

	for c := range buf.Channels() {
		t.TrackSample(buf.Magnitude(c))
	}
}

// Level returns the current meter level in dB, never below
// core.MinusInfinityDB.
func (t *Tracker) Level() float64 {
	return t.levelAt(t.now())
}

func (t *Tracker) levelAt(now time.Time) float64 {
	peak := math.Float64frombits(t.peakLevel.Load())

	elapsed := now.Sub(time.Unix(0, t.peakTime.Load()))
	if elapsed < t.hold {
		return peak
	}

	decayed := peak - t.Decay()*(elapsed-t.hold).Seconds()

	return math.Max(core.MinusInfinityDB, decayed)
}

// Clip reports whether a sample above full scale was seen since the last
// ClearClip.
func (t *Tracker) Clip() bool { return t.clip.Load() }

// ClearClip resets the clip flag.
func (t *Tracker) ClearClip() { t.clip.Store(false) }

// Reset drops the held peak and clears the clip flag.
func (t *Tracker) Reset() {
	t.peakLevel.Store(math.Float64bits(core.MinusInfinityDB))
	t.peakTime.Store(0)
	t.clip.Store(false)
}
