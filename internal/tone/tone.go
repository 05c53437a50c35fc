// ABOUTME: Sine tone source
// ABOUTME: Generates a float32 tone on every channel, optionally for a fixed duration
package tone

import (
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/Resonate-Protocol/audioenv/pkg/audio"
)

const (
	DefaultFrequency = 440.0 // A4
	DefaultAmplitude = 0.5
)

// Source generates a sine wave. It implements audio.Source.
type Source struct {
	format    audio.Format
	frequency float64
	amplitude float64
	total     uint64 // frames to produce; 0 means endless

	mu    sync.Mutex
	frame uint64
}

// New creates a tone of frequency Hz lasting duration (0 for endless)
func New(format audio.Format, frequency float64, duration time.Duration) (*Source, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if frequency <= 0 || frequency >= float64(format.SampleRate)/2 {
		return nil, audio.NewError("tone", audio.ErrInvalidArgument,
			fmt.Errorf("frequency %.1fHz outside (0, %dHz)", frequency, format.SampleRate/2))
	}
	if duration < 0 {
		return nil, audio.NewError("tone", audio.ErrInvalidArgument, fmt.Errorf("negative duration %s", duration))
	}

	return &Source{
		format:    format,
		frequency: frequency,
		amplitude: DefaultAmplitude,
		total:     uint64(duration) * uint64(format.SampleRate) / uint64(time.Second),
	}, nil
}

// Read fills whole frames of samples
func (s *Source) Read(samples []float32) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := s.format.Channels
	frames := uint64(len(samples) / ch)
	if s.total > 0 {
		if s.frame >= s.total {
			return 0, io.EOF
		}
		frames = min(frames, s.total-s.frame)
	}

	for i := uint64(0); i < frames; i++ {
		t := float64(s.frame+i) / float64(s.format.SampleRate)
		v := float32(s.amplitude * math.Sin(2*math.Pi*s.frequency*t))
		for c := range ch {
			samples[int(i)*ch+c] = v
		}
	}
	s.frame += frames

	return int(frames) * ch, nil
}

func (s *Source) Format() audio.Format { return s.format }
func (s *Source) Close() error         { return nil }
