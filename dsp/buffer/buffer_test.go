package buffer

import (
	"strings"
	"testing"

	"github.com/cwbudde/algo-dynamics/internal/testutil"
	"github.com/go-audio/audio"
)

func mustFromChannels(t *testing.T, channels [][]float64) *Buffer {
	t.Helper()

	b, err := FromChannels(channels)
	if err != nil {
		t.Fatalf("FromChannels() error = %v", err)
	}

	return b
}

func TestNewZeroFilled(t *testing.T) {
	b := New(2, 8)
	if b.Channels() != 2 || b.Samples() != 8 {
		t.Fatalf("New(2, 8) = %dx%d", b.Channels(), b.Samples())
	}

	for c := range b.Channels() {
		testutil.RequireSliceNearlyEqual(t, b.Channel(c), make([]float64, 8), 0)
	}
}

func TestNewNegativeCounts(t *testing.T) {
	b := New(-1, -4)
	if b.Channels() != 0 || b.Samples() != 0 {
		t.Fatalf("New(-1, -4) = %dx%d, want 0x0", b.Channels(), b.Samples())
	}
}

func TestChannelsDoNotOverlap(t *testing.T) {
	b := New(2, 4)
	if got := cap(b.Channel(0)); got != 4 {
		t.Fatalf("cap(Channel(0)) = %d, want 4", got)
	}

	_ = append(b.Channel(0), 99)
	if b.Channel(1)[0] != 0 {
		t.Fatal("appending to channel 0 spilled into channel 1")
	}
}

func TestFromChannelsSharesMemory(t *testing.T) {
	left := []float64{1, 2, 3}
	right := []float64{4, 5, 6}

	b := mustFromChannels(t, [][]float64{left, right})
	b.Channel(1)[2] = 42

	if right[2] != 42 {
		t.Fatalf("caller slice = %v, want write-through", right)
	}
}

func TestFromChannelsLengthMismatch(t *testing.T) {
	_, err := FromChannels([][]float64{{1, 2}, {1}})
	if err == nil || !strings.Contains(err.Error(), "channel 1") {
		t.Fatalf("FromChannels() error = %v, want channel 1 mismatch", err)
	}
}

func TestApplyGainAndMagnitude(t *testing.T) {
	b := mustFromChannels(t, [][]float64{{0.5, -0.25}, {-1, 0.125}})

	b.ApplyGain(2)

	testutil.RequireSliceNearlyEqual(t, b.Channel(0), []float64{1, -0.5}, 0)
	testutil.RequireSliceNearlyEqual(t, b.Channel(1), []float64{-2, 0.25}, 0)

	tests := []struct {
		channel int
		want    float64
	}{
		{0, 1},
		{1, 2},
	}
	for _, tt := range tests {
		if got := b.Magnitude(tt.channel); got != tt.want {
			t.Errorf("Magnitude(%d) = %v, want %v", tt.channel, got, tt.want)
		}
	}
}

func TestCopyFrom(t *testing.T) {
	src := mustFromChannels(t, [][]float64{{1, 2}, {3, 4}})
	dst := New(2, 2)

	if err := dst.CopyFrom(src); err != nil {
		t.Fatal(err)
	}
	testutil.RequireSliceNearlyEqual(t, dst.Channel(1), []float64{3, 4}, 0)

	if err := New(1, 2).CopyFrom(src); err == nil {
		t.Fatal("CopyFrom accepted a shape mismatch")
	}
}

func TestCopyIsDeep(t *testing.T) {
	src := mustFromChannels(t, [][]float64{{1, 2}})
	cp := src.Copy()
	cp.Channel(0)[0] = 7

	if src.Channel(0)[0] != 1 {
		t.Fatalf("source changed to %v", src.Channel(0)[0])
	}
}

func TestZero(t *testing.T) {
	b := mustFromChannels(t, [][]float64{{1, 2}, {3, 4}})
	b.Zero()

	for c := range b.Channels() {
		testutil.RequireSliceNearlyEqual(t, b.Channel(c), []float64{0, 0}, 0)
	}
}

func TestFloatBufferRoundTrip(t *testing.T) {
	fb := &audio.FloatBuffer{
		Format: &audio.Format{NumChannels: 2, SampleRate: 48000},
		Data:   []float64{0.1, -0.1, 0.2, -0.2, 0.3, -0.3, 0.4},
	}

	b, err := FromFloatBuffer(fb)
	if err != nil {
		t.Fatal(err)
	}
	if b.Samples() != 3 {
		t.Fatalf("Samples() = %d, want 3 (partial frame dropped)", b.Samples())
	}
	testutil.RequireSliceNearlyEqual(t, b.Channel(0), []float64{0.1, 0.2, 0.3}, 0)
	testutil.RequireSliceNearlyEqual(t, b.Channel(1), []float64{-0.1, -0.2, -0.3}, 0)

	out := &audio.FloatBuffer{}
	b.WriteFloatBuffer(out)
	if out.Format == nil || out.Format.NumChannels != 2 {
		t.Fatalf("WriteFloatBuffer format = %+v", out.Format)
	}
	testutil.RequireSliceNearlyEqual(t, out.Data, fb.Data[:6], 0)
}

func TestFromFloatBufferRequiresFormat(t *testing.T) {
	if _, err := FromFloatBuffer(&audio.FloatBuffer{Data: []float64{1}}); err == nil {
		t.Fatal("accepted a buffer without format")
	}

	if _, err := FromFloatBuffer(nil); err == nil {
		t.Fatal("accepted nil")
	}
}
