// ABOUTME: Engine contract, configuration and the engine factory
// ABOUTME: Resolves stream format from the device descriptor and config
package output

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Resonate-Protocol/audioenv/pkg/audio"
	"github.com/Resonate-Protocol/audioenv/pkg/audio/backend/portaudio"
	"github.com/google/uuid"
)

// Engine hands canonical buffers to an output device
type Engine interface {
	// Send blocks until samples have been accepted by the device backend
	Send(samples []float32) error

	// Close releases the device. It is safe to call more than once.
	Close() error
}

// Stream is a blocking device stream driven by BlockingEngine
type Stream interface {
	Write(samples []float32) error
	// Abort discards pending output and unblocks a Write in progress
	Abort() error
	Close() error
}

// Readiness reports whether device enumeration has completed
type Readiness interface {
	IsDeviceBackendReady() bool
}

// StreamOpener opens blocking output streams for the portaudio engine
type StreamOpener interface {
	OpenOutputStream(p portaudio.StreamParams) (Stream, error)
}

// Kind names an engine variant
type Kind string

const (
	KindPortAudio Kind = "portaudio"
	KindMalgo     Kind = "malgo"
	KindOto       Kind = "oto"
	KindLinked    Kind = "linked"
)

// Kinds lists every engine variant
func Kinds() []Kind {
	return []Kind{KindPortAudio, KindMalgo, KindOto, KindLinked}
}

// ParseKind converts a name to a Kind
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", audio.NewError("parse engine", audio.ErrInvalidArgument, fmt.Errorf("unknown engine %q", s))
}

const defaultBufferDuration = 500 * time.Millisecond

// Config controls stream setup. Zero values pick device defaults.
type Config struct {
	// SampleRate in Hz; 0 uses the device default rate
	SampleRate int
	// Channels; 0 uses min(2, device max)
	Channels int
	Latency  audio.LatencyMode
	// FramesPerBuffer; 0 lets the backend choose
	FramesPerBuffer int
	// BufferDuration is the queue depth of callback and pipe engines
	BufferDuration time.Duration
	// Label tags metrics and log lines; constructors default it to the engine kind
	Label   string
	Logger  *slog.Logger
	Metrics *Metrics
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c Config) bufferDuration() time.Duration {
	if c.BufferDuration > 0 {
		return c.BufferDuration
	}
	return defaultBufferDuration
}

func (c Config) withLabel(label string) Config {
	if c.Label == "" {
		c.Label = label
	}
	return c
}

// engineLogger tags a logger with the engine label and a fresh id
func (c Config) engineLogger() *slog.Logger {
	return c.logger().With("engine", c.Label, "engine_id", uuid.NewString())
}

// Format resolves the stream format for dev
func (c Config) Format(dev audio.Device) (audio.Format, error) {
	if !dev.IsOutput() {
		return audio.Format{}, audio.NewError("open engine", audio.ErrEnvironment,
			fmt.Errorf("device %s has no output channels", dev))
	}

	channels := c.Channels
	if channels == 0 {
		channels = min(2, dev.MaxOutputChannels)
	}
	if channels > dev.MaxOutputChannels {
		return audio.Format{}, audio.NewError("open engine", audio.ErrInvalidArgument,
			fmt.Errorf("%d channels requested, device %s supports %d", channels, dev, dev.MaxOutputChannels))
	}

	rate := c.SampleRate
	if rate == 0 {
		rate = int(math.Round(dev.DefaultSampleRate))
	}

	format := audio.Format{SampleRate: rate, Channels: channels}
	if err := format.Validate(); err != nil {
		return audio.Format{}, err
	}
	return format, nil
}

// queueBytes is the ring/pipe capacity for format, rounded to whole frames
func (c Config) queueBytes(format audio.Format) int {
	frames := int(int64(c.bufferDuration()) * int64(format.SampleRate) / int64(time.Second))
	return max(frames, 1) * format.Channels * audio.BytesPerSample
}

func requireReady(ready Readiness) error {
	if ready == nil || !ready.IsDeviceBackendReady() {
		return audio.NewError("open engine", audio.ErrNotInitialized, nil)
	}
	return nil
}

// Open builds an engine of the given kind on dev. lib is used only by KindPortAudio.
// A failed open returns a nil Engine, never a typed nil.
func Open(kind Kind, ready Readiness, lib StreamOpener, dev audio.Device, cfg Config) (Engine, error) {
	switch kind {
	case KindPortAudio:
		e, err := NewPortAudio(ready, lib, dev, cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	case KindMalgo:
		e, err := NewMalgo(ready, dev, cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	case KindOto:
		e, err := NewOto(ready, dev, cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	case KindLinked:
		e, err := NewLinkedPortAudio(ready, dev, cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		if err := requireReady(ready); err != nil {
			return nil, err
		}
		return nil, audio.NewError("open engine", audio.ErrInvalidArgument, fmt.Errorf("unknown engine %q", kind))
	}
}

func errClosed(op string) error {
	return audio.NewError(op, audio.ErrInvalidState, errors.New("engine closed"))
}
