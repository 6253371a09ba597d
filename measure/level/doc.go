// Package level provides a peak level meter with hold and linear-in-dB
// decay, intended for UI metering of real-time audio.
//
// A Tracker is written from the audio thread and read from a UI or control
// thread. Every field is an independent atomic; readers see each field
// consistently but may observe a level and clip flag from different
// instants.
package level
