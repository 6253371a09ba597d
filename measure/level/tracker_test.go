package level

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/cwbudde/algo-dynamics/dsp/buffer"
	"github.com/cwbudde/algo-dynamics/dsp/core"
	"github.com/cwbudde/algo-dynamics/internal/testutil"
)

type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	reads int
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

var halfScaleDB = 20 * math.Log10(0.5)

func requireLevel(t *testing.T, tr *Tracker, want float64, msg string) {
	t.Helper()
	if got := tr.Level(); math.Abs(got-want) > testutil.DecibelTolerance {
		t.Fatalf("%s: Level() = %v, want %v", msg, got, want)
	}
}

func TestNewTrackerStartsSilent(t *testing.T) {
	clk := newFakeClock()
	tr := NewTracker(DefaultDecay, WithClock(clk.Now))

	if tr.Level() != core.MinusInfinityDB {
		t.Fatalf("Level() = %v, want %v", tr.Level(), core.MinusInfinityDB)
	}
	if tr.Clip() {
		t.Fatal("new tracker reports clip")
	}
	if tr.Decay() != DefaultDecay {
		t.Fatalf("Decay() = %v, want %v", tr.Decay(), DefaultDecay)
	}
}

func TestTrackSampleHoldsPeak(t *testing.T) {
	clk := newFakeClock()
	tr := NewTracker(DefaultDecay, WithClock(clk.Now))

	tr.TrackSample(-0.5)
	requireLevel(t, tr, halfScaleDB, "after peak")

	clk.Advance(40 * time.Millisecond)
	tr.TrackSample(0.1)
	requireLevel(t, tr, halfScaleDB, "quieter sample during hold")
}

func TestTrackSampleReadsClockOnce(t *testing.T) {
	clk := newFakeClock()
	tr := NewTracker(DefaultDecay, WithClock(clk.Now))

	for i, x := range []float64{0.5, 0.1, 0.9} {
		before := clk.Reads()
		tr.TrackSample(x)
		if reads := clk.Reads() - before; reads != 1 {
			t.Fatalf("sample %d: TrackSample read the clock %d times, want 1", i, reads)
		}
	}
}

func TestLevelDecaysAfterHold(t *testing.T) {
	clk := newFakeClock()
	tr := NewTracker(30, WithClock(clk.Now), WithHold(50*time.Millisecond))

	tr.TrackSample(1.0)
	if tr.Level() != 0 {
		t.Fatalf("full-scale Level() = %v, want exactly 0", tr.Level())
	}

	clk.Advance(550 * time.Millisecond)
	requireLevel(t, tr, -15, "after 500 ms of decay")

	clk.Advance(10 * time.Second)
	if tr.Level() != core.MinusInfinityDB {
		t.Fatalf("Level() = %v, want floor %v", tr.Level(), core.MinusInfinityDB)
	}
}

func TestZeroDecayHoldsForever(t *testing.T) {
	clk := newFakeClock()
	tr := NewTracker(0, WithClock(clk.Now))

	tr.TrackSample(0.5)
	clk.Advance(time.Hour)

	requireLevel(t, tr, halfScaleDB, "after an hour")
}

func TestClipLatchesUntilCleared(t *testing.T) {
	tr := NewTracker(DefaultDecay)

	steps := []struct {
		name  string
		x     float64
		clear bool
		want  bool
	}{
		{"full scale is not a clip", 1.0, false, false},
		{"over full scale", -1.01, false, true},
		{"latched", 0.1, false, true},
		{"cleared", 0.1, true, false},
	}

	for _, s := range steps {
		tr.TrackSample(s.x)
		if s.clear {
			tr.ClearClip()
		}
		if tr.Clip() != s.want {
			t.Fatalf("%s: Clip() = %v, want %v", s.name, tr.Clip(), s.want)
		}
	}
}

func TestTrackBufferUsesLoudestChannel(t *testing.T) {
	clk := newFakeClock()
	tr := NewTracker(DefaultDecay, WithClock(clk.Now))

	buf, err := buffer.FromChannels([][]float64{{0.1, -0.2}, {0.05, -0.5}})
	if err != nil {
		t.Fatal(err)
	}

	tr.TrackBuffer(buf)
	requireLevel(t, tr, core.GainToDecibels(0.5), "loudest channel")
}

func TestTrackSliceEmptyIsNoOp(t *testing.T) {
	tr := NewTracker(DefaultDecay)
	tr.TrackSlice(nil)
	tr.TrackBuffer(buffer.New(2, 0))

	if tr.Level() != core.MinusInfinityDB {
		t.Fatalf("Level() = %v after empty input", tr.Level())
	}
}

func TestResetClearsState(t *testing.T) {
	clk := newFakeClock()
	tr := NewTracker(DefaultDecay, WithClock(clk.Now))

	tr.TrackSlice([]float64{0.5, 2})
	if !tr.Clip() {
		t.Fatal("expected clip from a 2.0 sample")
	}

	tr.Reset()
	if tr.Clip() || tr.Level() != core.MinusInfinityDB {
		t.Fatalf("Reset left Clip() = %v, Level() = %v", tr.Clip(), tr.Level())
	}
}

func TestInvalidDecayDisablesFalloff(t *testing.T) {
	for _, decay := range []float64{-5, math.NaN(), math.Inf(1)} {
		if got := NewTracker(decay).Decay(); got != 0 {
			t.Errorf("NewTracker(%v).Decay() = %v, want 0", decay, got)
		}
	}
}

func TestConcurrentReadersDoNotRace(t *testing.T) {
	tr := NewTracker(DefaultDecay)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := range 1000 {
			tr.TrackSample(float64(i%10) / 5)
		}
	}()

	go func() {
		defer wg.Done()
		for range 1000 {
			_ = tr.Level()
			if tr.Clip() {
				tr.ClearClip()
			}
		}
	}()

	wg.Wait()
	if tr.Level() < core.MinusInfinityDB {
		t.Fatalf("Level() = %v below floor", tr.Level())
	}
}
