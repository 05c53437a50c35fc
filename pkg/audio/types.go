// ABOUTME: Audio type definitions
// ABOUTME: Defines the canonical float32 format, stream formats and sources
package audio

import "fmt"

// SampleFormat identifies a sample layout. Float32 is the only one accepted.
type SampleFormat int

const (
	// SampleFormatFloat32 is interleaved 32-bit IEEE float, nominal range [-1, 1].
	SampleFormatFloat32 SampleFormat = iota + 1
)

// BytesPerSample is the width of one canonical sample.
const BytesPerSample = 4

// String returns the sample format name
func (f SampleFormat) String() string {
	switch f {
	case SampleFormatFloat32:
		return "float32"
	default:
		return fmt.Sprintf("SampleFormat(%d)", int(f))
	}
}

// Format describes an audio stream in the canonical sample format
type Format struct {
	SampleRate int
	Channels   int
}

// Validate checks that the format can describe a real stream
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return NewError("format", ErrInvalidArgument, fmt.Errorf("sample rate must be positive, got %d", f.SampleRate))
	}
	if f.Channels <= 0 {
		return NewError("format", ErrInvalidArgument, fmt.Errorf("channels must be positive, got %d", f.Channels))
	}
	return nil
}

// SamplesPerFrame returns the interleaved sample count for n frames
func (f Format) SamplesPerFrame(n int) int {
	return n * f.Channels
}

// String returns a short human-readable format
func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/%s", f.SampleRate, f.Channels, SampleFormatFloat32)
}

// ValidateBuffer checks that samples holds a whole number of frames
func ValidateBuffer(samples []float32, channels int) error {
	if channels <= 0 {
		return NewError("send", ErrInvalidArgument, fmt.Errorf("channels must be positive, got %d", channels))
	}
	if len(samples)%channels != 0 {
		return NewError("send", ErrInvalidArgument,
			fmt.Errorf("buffer of %d samples is not a whole number of %d-channel frames", len(samples), channels))
	}
	return nil
}

// Source produces canonical audio buffers.
//
// Read fills samples with interleaved float32 data and returns the number of
// samples written; it returns io.EOF once the stream is exhausted.
type Source interface {
	Read(samples []float32) (int, error)
	Format() Format
	Close() error
}
