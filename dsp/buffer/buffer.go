package buffer

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"
	"github.com/go-audio/audio"
)

// Buffer holds one []float64 per channel, all of equal length.
// Channel slices are read/write views; mutations are visible to the caller
// that supplied them via FromChannels.
type Buffer struct {
	channels [][]float64
	samples  int
}

// New returns a zero-filled Buffer with the given channel and sample counts.
// Negative counts are treated as zero.
func New(channels, samples int) *Buffer {
	channels = max(channels, 0)
	samples = max(samples, 0)

	backing := make([]float64, channels*samples)
	ch := make([][]float64, channels)
	for c := range ch {
		ch[c] = backing[c*samples : (c+1)*samples : (c+1)*samples]
	}

	return &Buffer{channels: ch, samples: samples}
}

// FromChannels wraps existing channel slices without copying.
// All channels must have the same length.
func FromChannels(channels [][]float64) (*Buffer, error) {
	n := 0
	if len(channels) > 0 {
		n = len(channels[0])
	}

	for c, s := range channels {
		if len(s) != n {
			return nil, fmt.Errorf("buffer: channel %d has %d samples, want %d", c, len(s), n)
		}
	}

	return &Buffer{channels: channels, samples: n}, nil
}

// Channels returns the number of channels.
func (b *Buffer) Channels() int { return len(b.channels) }

// Samples returns the number of samples per channel.
func (b *Buffer) Samples() int { return b.samples }

// Channel returns the read/write sample slice for channel c.
func (b *Buffer) Channel(c int) []float64 { return b.channels[c] }

// ApplyGain multiplies every sample of every channel by gain in place.
func (b *Buffer) ApplyGain(gain float64) {
	if gain == 1 {
		return
	}

	for _, ch := range b.channels {
		vecmath.ScaleBlockInPlace(ch, gain)
	}
}

// Magnitude returns the largest absolute sample value in channel c.
func (b *Buffer) Magnitude(c int) float64 {
	return vecmath.MaxAbs(b.channels[c])
}

// Zero sets all samples to 0.
func (b *Buffer) Zero() {
	for _, ch := range b.channels {
		for i := range ch {
			ch[i] = 0
		}
	}
}

// CopyFrom copies src into b. Channel and sample counts must match.
func (b *Buffer) CopyFrom(src *Buffer) error {
	if src.Channels() != b.Channels() || src.Samples() != b.Samples() {
		return fmt.Errorf("buffer: copy shape mismatch: %dx%d into %dx%d",
			src.Channels(), src.Samples(), b.Channels(), b.Samples())
	}

	for c, ch := range b.channels {
		copy(ch, src.channels[c])
	}

	return nil
}

// Copy returns a deep copy of the buffer.
func (b *Buffer) Copy() *Buffer {
	out := New(b.Channels(), b.Samples())
	for c, ch := range b.channels {
		copy(out.channels[c], ch)
	}

	return out
}

// FromFloatBuffer deinterleaves a go-audio FloatBuffer into a new Buffer.
// Trailing samples that do not fill a whole frame are dropped.
func FromFloatBuffer(fb *audio.FloatBuffer) (*Buffer, error) {
	if fb == nil || fb.Format == nil || fb.Format.NumChannels <= 0 {
		return nil, fmt.Errorf("buffer: float buffer needs a format with at least one channel")
	}

	channels := fb.Format.NumChannels
	frames := len(fb.Data) / channels

	b := New(channels, frames)
	for i := range frames {
		frame := fb.Data[i*channels : (i+1)*channels]
		for c, v := range frame {
			b.channels[c][i] = v
		}
	}

	return b, nil
}

// WriteFloatBuffer interleaves b into fb.Data, growing it if needed.
// fb.Format is created or updated to carry b's channel count.
func (b *Buffer) WriteFloatBuffer(fb *audio.FloatBuffer) {
	if fb.Format == nil {
		fb.Format = &audio.Format{}
	}
	fb.Format.NumChannels = b.Channels()

	n := b.Channels() * b.Samples()
	if cap(fb.Data) >= n {
		fb.Data = fb.Data[:n]
	} else {
		fb.Data = make([]float64, n)
	}

	channels := b.Channels()
	for c, ch := range b.channels {
		for i, v := range ch {
			fb.Data[i*channels+c] = v
		}
	}
}
