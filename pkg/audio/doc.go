// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines the canonical format, device descriptors and error kinds
// Package audio provides the types shared by every part of audioenv.
//
// This package defines:
//   - Format: sample rate and channel count of a canonical stream
//   - Device: an immutable output device descriptor
//   - Source: anything that yields canonical buffers
//   - ErrInvalidArgument, ErrNotInitialized, ErrEnvironment, ErrInvalidState
//
// A canonical buffer is a []float32 of interleaved samples. No other sample
// width or fixed-point layout is accepted anywhere in audioenv; converting to
// float32 is the producer's job.
//
// Example:
//
//	format := audio.Format{SampleRate: 48000, Channels: 2}
//	if err := audio.ValidateBuffer(samples, format.Channels); err != nil {
//	    return err
//	}
package audio
