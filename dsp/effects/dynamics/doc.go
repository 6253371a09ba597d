// Package dynamics implements a per-sample dynamics processor for
// real-time audio: an envelope follower feeding a static dB-domain gain
// curve.
//
// Components:
//   - EnvelopeDetector: one-pole follower with attack, hold and release
//     ballistics and peak, mean-square or RMS rectification. Optionally
//     reports dB instead of the linear envelope.
//   - Curve: the static transfer curve of a compressor, limiter, expander
//     or gate, with an optional quadratic soft knee.
//   - Dynamics: a multi-channel processor that owns one detector per
//     channel, optionally links channels to a shared gain, applies input
//     and output gain and feeds lock-free level and gain-reduction meters.
//
// Processing is strictly causal with no lookahead; Process never
// allocates, locks or blocks. Build with the dynamicsdebug tag to turn an
// evaluation of an unknown curve type into a panic.
package dynamics
