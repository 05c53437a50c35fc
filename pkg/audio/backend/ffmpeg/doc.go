// ABOUTME: ffmpeg media backend
// ABOUTME: Locates the ffmpeg executable and streams its f32le output as canonical buffers
// Package ffmpeg configures ffmpeg as the media backend.
//
// Toolchain implements env.MediaBackend: the search path selects the directory
// holding the ffmpeg executable (empty means PATH), and SetQuiet drops ffmpeg's
// own log level to "quiet". Decoding stays inside the ffmpeg process; Decoder
// only reads its f32le stdout.
//
// Example:
//
//	tc := ffmpeg.New()
//	dec, err := tc.Decode(ctx, "song.flac", audio.Format{SampleRate: 48000, Channels: 2})
//	n, err := dec.Read(samples)
package ffmpeg
