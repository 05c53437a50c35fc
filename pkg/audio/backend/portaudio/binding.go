// ABOUTME: Native PortAudio symbol table and C struct mirrors
// ABOUTME: Layouts follow portaudio.h on LP64 platforms
package portaudio

import (
	"unsafe"
)

// PortAudio constants from portaudio.h
const (
	paNoError           int32 = 0
	paNoDevice          int32 = -1
	paOutputUnderflowed int32 = -9980

	paFloat32 uint64 = 0x00000001
	paClipOff uint64 = 0x00000001

	paFramesPerBufferUnspecified uint64 = 0
)

// deviceInfo mirrors PaDeviceInfo
type deviceInfo struct {
	structVersion            int32
	name                     *byte
	hostAPI                  int32
	maxInputChannels         int32
	maxOutputChannels        int32
	defaultLowInputLatency   float64
	defaultLowOutputLatency  float64
	defaultHighInputLatency  float64
	defaultHighOutputLatency float64
	defaultSampleRate        float64
}

// streamParameters mirrors PaStreamParameters
type streamParameters struct {
	device                    int32
	channelCount              int32
	sampleFormat              uint64
	suggestedLatency          float64
	hostAPISpecificStreamInfo unsafe.Pointer
}

// binding holds the resolved PortAudio entry points
type binding struct {
	initialize       func() int32
	terminate        func() int32
	getErrorText     func(code int32) string
	getDeviceCount   func() int32
	getDefaultOutput func() int32
	getDeviceInfo    func(index int32) unsafe.Pointer
	openStream       func(stream *uintptr, in, out *streamParameters, sampleRate float64, framesPerBuffer, flags uint64, callback, userData uintptr) int32
	startStream      func(stream uintptr) int32
	abortStream      func(stream uintptr) int32
	closeStream      func(stream uintptr) int32
	writeStream      func(stream uintptr, buffer unsafe.Pointer, frames uint64) int32
	release          func() error
}

// symbols maps exported C names to binding fields
func (b *binding) symbols() map[string]any {
	return map[string]any{
		"Pa_Initialize":             &b.initialize,
		"Pa_Terminate":              &b.terminate,
		"Pa_GetErrorText":           &b.getErrorText,
		"Pa_GetDeviceCount":         &b.getDeviceCount,
		"Pa_GetDefaultOutputDevice": &b.getDefaultOutput,
		"Pa_GetDeviceInfo":          &b.getDeviceInfo,
		"Pa_OpenStream":             &b.openStream,
		"Pa_StartStream":            &b.startStream,
		"Pa_AbortStream":            &b.abortStream,
		"Pa_CloseStream":            &b.closeStream,
		"Pa_WriteStream":            &b.writeStream,
	}
}

// cString copies a NUL-terminated C string
func cString(p *byte) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}
