//go:build portaudio

// ABOUTME: Engine on the cgo-linked PortAudio binding
// ABOUTME: Blocking writes through a fixed-size stream buffer, last chunk zero-padded
package output

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Resonate-Protocol/audioenv/pkg/audio"
	"github.com/gordonklaus/portaudio"
)

const linkedFramesPerBuffer = 512

// linkedStream adapts a gordonklaus/portaudio blocking stream to Stream
type linkedStream struct {
	stream   *portaudio.Stream
	buf      []float32
	channels int

	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewLinkedPortAudio opens dev through the PortAudio library linked at build time
func NewLinkedPortAudio(ready Readiness, dev audio.Device, cfg Config) (*BlockingEngine, error) {
	if err := requireReady(ready); err != nil {
		return nil, err
	}

	cfg = cfg.withLabel(string(KindLinked))
	format, err := cfg.Format(dev)
	if err != nil {
		return nil, err
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, audio.NewError("open engine", audio.ErrEnvironment, fmt.Errorf("failed to initialize portaudio: %w", err))
	}

	pdev, err := linkedDevice(dev.Name)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, audio.NewError("open engine", audio.ErrEnvironment, err)
	}

	var params portaudio.StreamParameters
	if cfg.Latency == audio.LatencyLow {
		params = portaudio.LowLatencyParameters(nil, pdev)
	} else {
		params = portaudio.HighLatencyParameters(nil, pdev)
	}
	params.Output.Channels = format.Channels
	params.SampleRate = float64(format.SampleRate)
	params.FramesPerBuffer = linkedFramesPerBuffer
	if cfg.FramesPerBuffer > 0 {
		params.FramesPerBuffer = cfg.FramesPerBuffer
	}

	ls := &linkedStream{
		buf:      make([]float32, params.FramesPerBuffer*format.Channels),
		channels: format.Channels,
	}
	stream, err := portaudio.OpenStream(params, ls.buf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, audio.NewError("open engine", audio.ErrEnvironment, fmt.Errorf("failed to open stream: %w", err))
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, audio.NewError("open engine", audio.ErrEnvironment, fmt.Errorf("failed to start stream: %w", err))
	}
	ls.stream = stream

	e := NewBlocking(ls, format.Channels, cfg)
	e.logger.Info("engine opened", "device", pdev.Name, "format", format.String())
	return e, nil
}

func linkedDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	for _, d := range devices {
		if d.MaxOutputChannels > 0 && matchDeviceName(d.Name, name) {
			return d, nil
		}
	}
	return portaudio.DefaultOutputDevice()
}

// Write copies samples through the stream buffer one period at a time
func (s *linkedStream) Write(samples []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(samples) > 0 {
		n := copy(s.buf, samples)
		clear(s.buf[n:])
		samples = samples[n:]

		if err := s.stream.Write(); err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
			return err
		}
	}
	return nil
}

func (s *linkedStream) Abort() error {
	return s.stream.Abort()
}

func (s *linkedStream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = errors.Join(s.stream.Close(), portaudio.Terminate())
	})
	return s.closeErr
}
