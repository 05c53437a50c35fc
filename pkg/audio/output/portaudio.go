// ABOUTME: PortAudio engine over the path-loaded library
// ABOUTME: Opens a blocking float32 stream and wraps it in BlockingEngine
package output

import (
	"errors"

	"github.com/Resonate-Protocol/audioenv/pkg/audio"
	"github.com/Resonate-Protocol/audioenv/pkg/audio/backend/portaudio"
)

type libraryStreams struct {
	lib *portaudio.Library
}

// LibraryStreams opens streams on the path-loaded PortAudio library.
// A nil lib yields a nil StreamOpener.
func LibraryStreams(lib *portaudio.Library) StreamOpener {
	if lib == nil {
		return nil
	}
	return libraryStreams{lib: lib}
}

func (l libraryStreams) OpenOutputStream(p portaudio.StreamParams) (Stream, error) {
	s, err := l.lib.OpenOutputStream(p)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewPortAudio opens a blocking stream on dev through lib
func NewPortAudio(ready Readiness, lib StreamOpener, dev audio.Device, cfg Config) (*BlockingEngine, error) {
	if err := requireReady(ready); err != nil {
		return nil, err
	}
	if lib == nil {
		return nil, audio.NewError("open engine", audio.ErrInvalidArgument, errors.New("portaudio library is required"))
	}

	cfg = cfg.withLabel(string(KindPortAudio))
	format, err := cfg.Format(dev)
	if err != nil {
		return nil, err
	}

	stream, err := lib.OpenOutputStream(portaudio.StreamParams{
		Device:          dev.Index,
		Channels:        format.Channels,
		SampleRate:      float64(format.SampleRate),
		Latency:         dev.Latency(cfg.Latency),
		FramesPerBuffer: cfg.FramesPerBuffer,
	})
	if err != nil {
		return nil, audio.NewError("open engine", audio.ErrEnvironment, err)
	}

	e := NewBlocking(stream, format.Channels, cfg)
	e.logger.Info("engine opened", "device", dev.Name, "format", format.String(), "latency", cfg.Latency.String())
	return e, nil
}
