// ABOUTME: PortAudio library handle implementing the device backend
// ABOUTME: Device enumeration and output stream creation
package portaudio

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/Resonate-Protocol/audioenv/pkg/audio"
)

// ErrNotOpen is returned when the library is used before Open
var ErrNotOpen = errors.New("portaudio: library not open")

// Library is a loaded and initialized PortAudio module
type Library struct {
	mu     sync.Mutex
	api    *binding
	load   func(path string) (*binding, error)
	logger *slog.Logger
}

// New creates an unloaded library. A nil logger uses slog.Default.
func New(logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{
		load:   loadBinding,
		logger: logger.With("component", "portaudio"),
	}
}

// Open loads the module at path and calls Pa_Initialize
func (l *Library) Open(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.api != nil {
		return nil
	}

	api, err := l.load(path)
	if err != nil {
		return err
	}

	if code := api.initialize(); code != paNoError {
		err := newPaError("Pa_Initialize", api, code)
		if api.release != nil {
			if relErr := api.release(); relErr != nil {
				l.logger.Warn("failed to unload library", "path", path, "error", relErr)
			}
		}
		return err
	}

	l.api = api
	l.logger.Debug("portaudio loaded", "path", path)
	return nil
}

// Close calls Pa_Terminate and unloads the module
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.api == nil {
		return nil
	}

	api := l.api
	l.api = nil

	var errs []error
	if code := api.terminate(); code != paNoError {
		errs = append(errs, newPaError("Pa_Terminate", api, code))
	}
	if api.release != nil {
		if err := api.release(); err != nil {
			errs = append(errs, fmt.Errorf("unload portaudio: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (l *Library) loaded() (*binding, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.api == nil {
		return nil, ErrNotOpen
	}
	return l.api, nil
}

// DeviceCount returns the number of devices PortAudio knows about
func (l *Library) DeviceCount() (int, error) {
	api, err := l.loaded()
	if err != nil {
		return 0, err
	}

	count := api.getDeviceCount()
	if count < 0 {
		return 0, newPaError("Pa_GetDeviceCount", api, count)
	}
	return int(count), nil
}

// DefaultOutputDevice returns the index of the host's default output device
func (l *Library) DefaultOutputDevice() (int, error) {
	api, err := l.loaded()
	if err != nil {
		return 0, err
	}

	idx := api.getDefaultOutput()
	if idx == paNoDevice {
		return 0, errors.New("no default output device")
	}
	if idx < 0 {
		return 0, newPaError("Pa_GetDefaultOutputDevice", api, idx)
	}
	return int(idx), nil
}

// Device returns the descriptor for a device index
func (l *Library) Device(index int) (audio.Device, error) {
	api, err := l.loaded()
	if err != nil {
		return audio.Device{}, err
	}

	ptr := api.getDeviceInfo(int32(index))
	if ptr == nil {
		return audio.Device{}, fmt.Errorf("no device info for index %d", index)
	}
	info := (*deviceInfo)(ptr)

	return audio.Device{
		Index:                    index,
		Name:                     cString(info.name),
		MaxOutputChannels:        int(info.maxOutputChannels),
		DefaultSampleRate:        info.defaultSampleRate,
		DefaultLowOutputLatency:  seconds(info.defaultLowOutputLatency),
		DefaultHighOutputLatency: seconds(info.defaultHighOutputLatency),
	}, nil
}

// StreamParams describes a blocking output stream
type StreamParams struct {
	Device          int
	Channels        int
	SampleRate      float64
	Latency         time.Duration
	FramesPerBuffer int
}

// OpenOutputStream opens and starts a blocking float32 output stream
func (l *Library) OpenOutputStream(p StreamParams) (*Stream, error) {
	api, err := l.loaded()
	if err != nil {
		return nil, err
	}
	if p.Channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", p.Channels)
	}
	if p.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %v", p.SampleRate)
	}

	out := &streamParameters{
		device:           int32(p.Device),
		channelCount:     int32(p.Channels),
		sampleFormat:     paFloat32,
		suggestedLatency: p.Latency.Seconds(),
	}

	frames := paFramesPerBufferUnspecified
	if p.FramesPerBuffer > 0 {
		frames = uint64(p.FramesPerBuffer)
	}

	var handle uintptr
	if code := api.openStream(&handle, nil, out, p.SampleRate, frames, paClipOff, 0, 0); code != paNoError {
		return nil, newPaError("Pa_OpenStream", api, code)
	}

	if code := api.startStream(handle); code != paNoError {
		err := newPaError("Pa_StartStream", api, code)
		api.closeStream(handle)
		return nil, err
	}

	l.logger.Debug("output stream opened",
		"device", p.Device,
		"channels", p.Channels,
		"sample_rate", p.SampleRate,
		"latency", p.Latency)

	return &Stream{
		api:      api,
		handle:   handle,
		channels: p.Channels,
		logger:   l.logger,
	}, nil
}

// seconds converts a PaTime to a duration
func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// Error is a PortAudio error code returned by a native call
type Error struct {
	Call string
	Code int32
	Text string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed: %s (%d)", e.Call, e.Text, e.Code)
}

func newPaError(call string, api *binding, code int32) *Error {
	text := "unknown error"
	if api.getErrorText != nil {
		text = api.getErrorText(code)
	}
	return &Error{Call: call, Code: code, Text: text}
}
