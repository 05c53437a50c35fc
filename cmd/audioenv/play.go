// ABOUTME: play command
// ABOUTME: Streams a file decoded by ffmpeg, or a sine tone, to the selected device
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/audioenv/internal/config"
	"github.com/Resonate-Protocol/audioenv/internal/tone"
	"github.com/Resonate-Protocol/audioenv/pkg/audio"
	"github.com/Resonate-Protocol/audioenv/pkg/audio/output"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const defaultPumpFrames = 1024

type playFlags struct {
	frequency float64
	duration  time.Duration
}

func newPlayCmd(a *app) *cobra.Command {
	var pf playFlags

	cmd := &cobra.Command{
		Use:   "play [file]",
		Short: "Play a media file, or a test tone when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return a.play(cmd.Context(), input, pf)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&pf.frequency, "tone", tone.DefaultFrequency, "test tone frequency in Hz")
	f.DurationVar(&pf.duration, "duration", 3*time.Second, "test tone length (0 plays until interrupted)")
	f.String("engine", "", "output engine: portaudio, malgo, oto, linked")
	f.Int("device", config.DefaultDevice, "output device index (-1 for the default device)")
	f.Int("sample-rate", 0, "sample rate in Hz (0 for the device default)")
	f.Int("channels", 0, "channel count (0 for min(2, device max))")
	f.String("latency", "", "latency mode: low or high")
	f.Int("frames-per-buffer", 0, "frames per device buffer (0 lets the backend choose)")
	f.Int("buffer-ms", 0, "queue depth for callback engines in milliseconds")
	a.bind(f, map[string]string{
		"engine":            "engine",
		"device":            "device",
		"sample_rate":       "sample-rate",
		"channels":          "channels",
		"latency":           "latency",
		"frames_per_buffer": "frames-per-buffer",
		"buffer_ms":         "buffer-ms",
	})

	return cmd
}

func (a *app) play(ctx context.Context, input string, pf playFlags) error {
	s, err := a.open()
	if err != nil {
		return err
	}
	defer s.Close()

	dev, err := a.device(s)
	if err != nil {
		return err
	}

	metrics, err := output.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		return err
	}
	ocfg := a.cfg.Output(a.logger, metrics)
	format, err := ocfg.Format(dev)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := a.source(ctx, s, input, format, pf)
	if err != nil {
		return err
	}
	defer src.Close()

	engine, err := output.Open(a.cfg.Kind(), s.env, output.LibraryStreams(s.lib), dev, ocfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	frames := defaultPumpFrames
	if a.cfg.FramesPerBuffer > 0 {
		frames = a.cfg.FramesPerBuffer
	}

	start := time.Now()
	err = output.Pump(ctx, engine, src, frames)
	if errors.Is(err, context.Canceled) {
		a.logger.Info("playback interrupted")
		err = nil
	}

	if totals, terr := metrics.Totals(string(a.cfg.Kind())); terr == nil {
		a.logger.Info("playback finished",
			"elapsed", time.Since(start).Round(time.Millisecond),
			"buffers", totals.Buffers,
			"samples", totals.Samples,
			"errors", totals.Errors)
	}
	return err
}

func (a *app) device(s *session) (audio.Device, error) {
	if a.cfg.Device == config.DefaultDevice {
		return s.env.DefaultOutputDevice()
	}
	return s.env.OutputDevice(a.cfg.Device)
}

func (a *app) source(ctx context.Context, s *session, input string, format audio.Format, pf playFlags) (audio.Source, error) {
	if input == "" {
		a.logger.Info("playing test tone", "frequency", pf.frequency, "duration", pf.duration, "format", format.String())
		return tone.New(format, pf.frequency, pf.duration)
	}

	if !s.env.IsMediaBackendReady() {
		return nil, audio.NewError("play", audio.ErrNotInitialized, fmt.Errorf("media backend is required to play %s", input))
	}
	a.logger.Info("playing file", "input", input, "format", format.String())
	return s.ffmpeg.Decode(ctx, input, format)
}
