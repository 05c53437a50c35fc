package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Resonate-Protocol/audioenv/pkg/audio"
	"github.com/Resonate-Protocol/audioenv/pkg/audio/backend/portaudio"
	"github.com/Resonate-Protocol/audioenv/pkg/audio/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, portaudio.DefaultLibraryName(), cfg.PortAudioPath)
	assert.Equal(t, output.KindPortAudio, cfg.Kind())
	assert.Equal(t, DefaultDevice, cfg.Device)
	assert.Equal(t, "high", cfg.Latency)
	assert.Equal(t, 500, cfg.BufferMs)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audioenv.yaml")
	data := []byte(`portaudio_path: /opt/lib/libportaudio.so.2
ffmpeg_dir: /opt/ffmpeg/bin
engine: malgo
device: 3
sample_rate: 48000
channels: 2
latency: low
frames_per_buffer: 256
buffer_ms: 200
log_level: debug
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/lib/libportaudio.so.2", cfg.PortAudioPath)
	assert.Equal(t, "/opt/ffmpeg/bin", cfg.FFmpegDir)
	assert.Equal(t, output.KindMalgo, cfg.Kind())
	assert.Equal(t, 3, cfg.Device)

	oc := cfg.Output(nil, nil)
	assert.Equal(t, 48000, oc.SampleRate)
	assert.Equal(t, 2, oc.Channels)
	assert.Equal(t, audio.LatencyLow, oc.Latency)
	assert.Equal(t, 256, oc.FramesPerBuffer)
	assert.Equal(t, 200*time.Millisecond, oc.BufferDuration)

	level, err := ParseLogLevel(cfg.LogLevel)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("AUDIOENV_ENGINE", "oto")
	t.Setenv("AUDIOENV_BUFFER_MS", "120")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, output.KindOto, cfg.Kind())
	assert.Equal(t, 120, cfg.BufferMs)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	bad := *cfg
	bad.Engine = "alsa"
	bad.Latency = "tiny"
	bad.BufferMs = 0
	bad.Device = -2
	bad.LogLevel = "loud"

	err = bad.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, audio.ErrInvalidArgument)
	for _, want := range []string{"alsa", "tiny", "buffer_ms", "device", "loud"} {
		assert.ErrorContains(t, err, want)
	}

	empty := *cfg
	empty.PortAudioPath = ""
	assert.ErrorContains(t, empty.Validate(), "portaudio_path")
}
