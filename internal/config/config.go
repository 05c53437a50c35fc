// ABOUTME: Runtime configuration backed by viper
// ABOUTME: Merges defaults, an optional YAML file and AUDIOENV_ environment variables
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Resonate-Protocol/audioenv/pkg/audio"
	"github.com/Resonate-Protocol/audioenv/pkg/audio/backend/portaudio"
	"github.com/Resonate-Protocol/audioenv/pkg/audio/output"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable override
const EnvPrefix = "AUDIOENV"

// DefaultDevice selects the backend's default output device
const DefaultDevice = -1

// Config holds every setting the CLI understands
type Config struct {
	PortAudioPath   string `mapstructure:"portaudio_path"`
	FFmpegDir       string `mapstructure:"ffmpeg_dir"`
	Engine          string `mapstructure:"engine"`
	Device          int    `mapstructure:"device"`
	SampleRate      int    `mapstructure:"sample_rate"`
	Channels        int    `mapstructure:"channels"`
	Latency         string `mapstructure:"latency"`
	FramesPerBuffer int    `mapstructure:"frames_per_buffer"`
	BufferMs        int    `mapstructure:"buffer_ms"`
	LogLevel        string `mapstructure:"log_level"`
}

// New returns a viper instance with defaults and environment binding applied
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the default for every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("portaudio_path", portaudio.DefaultLibraryName())
	v.SetDefault("ffmpeg_dir", "")
	v.SetDefault("engine", string(output.KindPortAudio))
	v.SetDefault("device", DefaultDevice)
	v.SetDefault("sample_rate", 0)
	v.SetDefault("channels", 0)
	v.SetDefault("latency", audio.LatencyHigh.String())
	v.SetDefault("frames_per_buffer", 0)
	v.SetDefault("buffer_ms", 500)
	v.SetDefault("log_level", "info")
}

// Load reads path (when set) into v and decodes the merged settings
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field and reports all problems at once
func (c *Config) Validate() error {
	var errs []error

	if c.PortAudioPath == "" {
		errs = append(errs, errors.New("portaudio_path must not be empty"))
	}
	if _, err := output.ParseKind(c.Engine); err != nil {
		errs = append(errs, err)
	}
	if c.Device < DefaultDevice {
		errs = append(errs, fmt.Errorf("device must be %d (default) or a device index, got %d", DefaultDevice, c.Device))
	}
	if c.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("sample_rate must not be negative, got %d", c.SampleRate))
	}
	if c.Channels < 0 {
		errs = append(errs, fmt.Errorf("channels must not be negative, got %d", c.Channels))
	}
	if _, err := audio.ParseLatencyMode(c.Latency); err != nil {
		errs = append(errs, err)
	}
	if c.FramesPerBuffer < 0 {
		errs = append(errs, fmt.Errorf("frames_per_buffer must not be negative, got %d", c.FramesPerBuffer))
	}
	if c.BufferMs <= 0 {
		errs = append(errs, fmt.Errorf("buffer_ms must be positive, got %d", c.BufferMs))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return audio.NewError("config", audio.ErrInvalidArgument, errors.Join(errs...))
	}
	return nil
}

// Kind returns the selected engine kind
func (c *Config) Kind() output.Kind {
	kind, _ := output.ParseKind(c.Engine)
	return kind
}

// Output converts the stream settings to an engine config
func (c *Config) Output(logger *slog.Logger, metrics *output.Metrics) output.Config {
	latency, _ := audio.ParseLatencyMode(c.Latency)
	return output.Config{
		SampleRate:      c.SampleRate,
		Channels:        c.Channels,
		Latency:         latency,
		FramesPerBuffer: c.FramesPerBuffer,
		BufferDuration:  time.Duration(c.BufferMs) * time.Millisecond,
		Logger:          logger,
		Metrics:         metrics,
	}
}

// ParseLogLevel maps a level name to a slog level
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: %w", s, err)
	}
	return level, nil
}
