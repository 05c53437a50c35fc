//go:build !portaudio

// ABOUTME: Stub for the linked PortAudio engine
// ABOUTME: Used when built without the portaudio tag
package output

import (
	"errors"

	"github.com/Resonate-Protocol/audioenv/pkg/audio"
)

// NewLinkedPortAudio reports that cgo PortAudio support was not compiled in
func NewLinkedPortAudio(ready Readiness, _ audio.Device, _ Config) (*BlockingEngine, error) {
	if err := requireReady(ready); err != nil {
		return nil, err
	}
	return nil, audio.NewError("open engine", audio.ErrEnvironment,
		errors.New("linked PortAudio support not enabled (build with -tags portaudio)"))
}
