// ABOUTME: Float32 PCM wire codec package
// ABOUTME: Converts canonical samples to and from little-endian f32le bytes
// Package pcm converts canonical float32 buffers to and from their byte form.
//
// Native callbacks, pipes and ffmpeg all move audio as f32le bytes; this is the
// single place where that byte layout is defined.
//
// Example:
//
//	buf = pcm.Encode(buf[:0], samples)
//	n := pcm.Decode(samples, buf)
package pcm
