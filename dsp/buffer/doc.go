// Package buffer provides a planar multi-channel float64 sample buffer for
// block-based processing. Each channel is a contiguous []float64 that DSP
// code reads and writes in place; Buffer only organizes the channels and
// bridges to interleaved host buffers from github.com/go-audio/audio.
package buffer
