//go:build !darwin && !linux

// ABOUTME: PortAudio loader stub for platforms without purego dlopen
// ABOUTME: Every Open fails with a descriptive error
package portaudio

import (
	"fmt"
	"runtime"
)

func loadBinding(path string) (*binding, error) {
	return nil, fmt.Errorf("loading %s: dynamic PortAudio loading is not supported on %s", path, runtime.GOOS)
}

// DefaultLibraryName returns the conventional PortAudio library name for this platform
func DefaultLibraryName() string {
	if runtime.GOOS == "windows" {
		return "portaudio.dll"
	}
	return "libportaudio.so.2"
}
