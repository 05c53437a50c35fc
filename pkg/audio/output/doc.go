// ABOUTME: Audio output engines that push canonical buffers to a device
// ABOUTME: Blocking Send contract with PortAudio, malgo and oto variants
// Package output provides the streaming engines of audioenv.
//
// An Engine accepts interleaved float32 buffers and blocks in Send until the
// device backend has taken them. Close releases the device; a Send blocked at
// that moment returns ErrInvalidState.
//
// Engines:
//   - portaudio: blocking Pa_WriteStream through the path-loaded library
//   - malgo: miniaudio callback fed from a ring buffer
//   - oto: oto player pulling from a pipe
//   - linked: cgo PortAudio (build with -tags portaudio)
//
// Every constructor refuses to run before the device backend is initialized.
//
// Example:
//
//	eng, err := output.Open(output.KindPortAudio, environment, output.LibraryStreams(lib), dev, output.Config{})
//	defer eng.Close()
//	err = output.Pump(ctx, eng, src, 1024)
package output
