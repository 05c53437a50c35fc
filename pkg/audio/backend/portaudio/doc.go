// ABOUTME: PortAudio device backend loaded from a native library path
// ABOUTME: Enumerates devices and opens blocking float32 output streams
// Package portaudio binds the PortAudio C library at runtime.
//
// The library is located by an explicit filesystem path (for example
// "libportaudio.so.2" or "/opt/homebrew/lib/libportaudio.dylib") and loaded with
// purego, so no cgo toolchain is needed. Dynamic loading is supported on darwin
// and linux.
//
// Library implements env.DeviceBackend. Streams opened by Library satisfy
// output.Stream and use PortAudio's blocking write API.
//
// Example:
//
//	lib := portaudio.New(logger)
//	if err := lib.Open(portaudio.DefaultLibraryName()); err != nil {
//	    return err
//	}
//	stream, err := lib.OpenOutputStream(portaudio.StreamParams{Device: 0, Channels: 2, SampleRate: 48000})
package portaudio
