// ABOUTME: Blocking PortAudio output stream
// ABOUTME: Pa_WriteStream returns once the device has accepted the frames
package portaudio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"
)

// ErrStreamClosed is returned by Write after Close
var ErrStreamClosed = errors.New("portaudio: stream closed")

// Stream is an open PortAudio output stream
type Stream struct {
	api      *binding
	handle   uintptr
	channels int
	logger   *slog.Logger

	// Write and Abort hold mu for reading so Abort can interrupt a
	// blocked Write; Close holds it for writing and waits for both.
	mu     sync.RWMutex
	closed bool
}

// Write blocks until every frame in samples has been accepted by PortAudio.
// samples must hold a whole number of interleaved frames.
func (s *Stream) Write(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}
	if len(samples)%s.channels != 0 {
		return fmt.Errorf("buffer of %d samples is not a whole number of %d-channel frames", len(samples), s.channels)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStreamClosed
	}

	frames := uint64(len(samples) / s.channels)
	code := s.api.writeStream(s.handle, unsafe.Pointer(&samples[0]), frames)
	switch code {
	case paNoError:
		return nil
	case paOutputUnderflowed:
		s.logger.Debug("output underflowed before write")
		return nil
	default:
		return newPaError("Pa_WriteStream", s.api, code)
	}
}

// Abort stops the stream immediately, discarding pending buffers.
// A Write blocked in another goroutine returns.
func (s *Stream) Abort() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil
	}
	if code := s.api.abortStream(s.handle); code != paNoError {
		return newPaError("Pa_AbortStream", s.api, code)
	}
	return nil
}

// Close releases the native stream once no Write or Abort is running.
// Call Abort first to release a Write blocked on the device.
// It is safe to call more than once.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if code := s.api.closeStream(s.handle); code != paNoError {
		return newPaError("Pa_CloseStream", s.api, code)
	}
	return nil
}
