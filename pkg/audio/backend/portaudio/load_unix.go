//go:build darwin || linux

// ABOUTME: Runtime loader for the PortAudio shared library
// ABOUTME: Uses purego dlopen so no cgo toolchain is required
package portaudio

import (
	"fmt"
	"runtime"

	"github.com/ebitengine/purego"
)

// loadBinding opens the library at path and resolves every symbol
func loadBinding(path string) (b *binding, err error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("dlopen %s: %w", path, err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = purego.Dlclose(handle)
			b, err = nil, fmt.Errorf("bind %s: %v", path, r)
		}
	}()

	b = &binding{}
	for name, fn := range b.symbols() {
		purego.RegisterLibFunc(fn, handle, name)
	}
	b.release = func() error {
		return purego.Dlclose(handle)
	}
	return b, nil
}

// DefaultLibraryName returns the conventional PortAudio library name for this platform
func DefaultLibraryName() string {
	if runtime.GOOS == "darwin" {
		return "libportaudio.2.dylib"
	}
	return "libportaudio.so.2"
}
