// ABOUTME: ffmpeg executable resolution and argument building
// ABOUTME: Checks the configured directory first, then the system PATH
package ffmpeg

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"github.com/Resonate-Protocol/audioenv/pkg/audio"
)

const (
	logLevelDefault = "error"
	logLevelQuiet   = "quiet"
)

// Toolchain locates ffmpeg and builds decode invocations
type Toolchain struct {
	mu         sync.RWMutex
	searchPath string
	logLevel   string
	lookPath   func(file string) (string, error)
}

// New creates a toolchain that searches PATH and logs errors only
func New() *Toolchain {
	return &Toolchain{
		logLevel: logLevelDefault,
		lookPath: exec.LookPath,
	}
}

// SetSearchPath sets the directory that holds the ffmpeg executable.
// An empty dir means the system PATH.
func (t *Toolchain) SetSearchPath(dir string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.searchPath = dir
}

// SetQuiet silences ffmpeg's own log output
func (t *Toolchain) SetQuiet() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logLevel = logLevelQuiet
}

// SearchPath returns the configured directory
func (t *Toolchain) SearchPath() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.searchPath
}

// LogLevel returns the -loglevel value passed to ffmpeg
func (t *Toolchain) LogLevel() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.logLevel
}

// Binary resolves the ffmpeg executable
func (t *Toolchain) Binary() (string, error) {
	dir := t.SearchPath()
	name := binaryName()

	if dir != "" {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	path, err := t.lookPath(name)
	if err == nil {
		return path, nil
	}

	if dir != "" {
		return "", audio.NewError("resolve ffmpeg", audio.ErrEnvironment,
			fmt.Errorf("%s not found in %s or in system PATH", name, dir))
	}
	return "", audio.NewError("resolve ffmpeg", audio.ErrEnvironment,
		fmt.Errorf("%s not found in system PATH: %w", name, err))
}

// DecodeArgs returns the arguments that decode input to canonical f32le on stdout
func (t *Toolchain) DecodeArgs(input string, format audio.Format) []string {
	return []string{
		"-nostdin",
		"-loglevel", t.LogLevel(),
		"-i", input,
		"-vn",
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ar", strconv.Itoa(format.SampleRate),
		"-ac", strconv.Itoa(format.Channels),
		"-",
	}
}

func binaryName() string {
	if runtime.GOOS == "windows" {
		return "ffmpeg.exe"
	}
	return "ffmpeg"
}
