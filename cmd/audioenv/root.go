// ABOUTME: Root command, shared flags and environment bring-up
// ABOUTME: Loads config, builds the logger and initializes both backends
package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/Resonate-Protocol/audioenv/internal/config"
	"github.com/Resonate-Protocol/audioenv/pkg/audio/backend/ffmpeg"
	"github.com/Resonate-Protocol/audioenv/pkg/audio/backend/portaudio"
	"github.com/Resonate-Protocol/audioenv/pkg/audio/env"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

// session is an initialized environment plus the backends behind it
type session struct {
	env    *env.Environment
	lib    *portaudio.Library
	ffmpeg *ffmpeg.Toolchain
}

func (s *session) Close() error {
	return s.lib.Close()
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:          "audioenv",
		Short:        "Inspect output devices and play audio through PortAudio, malgo or oto",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (YAML)")
	pf.String("portaudio-path", "", "path to the PortAudio shared library")
	pf.String("ffmpeg-dir", "", "directory holding the ffmpeg executable (default: PATH)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	a.bind(pf, map[string]string{
		"portaudio_path": "portaudio-path",
		"ffmpeg_dir":     "ffmpeg-dir",
		"log_level":      "log-level",
	})

	root.AddCommand(
		newDevicesCmd(a),
		newPlayCmd(a),
		newVersionCmd(),
	)
	return root
}

// bind maps config keys to flags; flags only win when set
func (a *app) bind(fs *pflag.FlagSet, keys map[string]string) {
	for key, flag := range keys {
		if err := a.v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func (a *app) load() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)
	return nil
}

// open brings up the media backend, then the device backend
func (a *app) open() (*session, error) {
	s := &session{
		lib:    portaudio.New(a.logger),
		ffmpeg: ffmpeg.New(),
	}
	s.env = env.New(s.ffmpeg, s.lib, env.WithLogger(a.logger))

	if err := s.env.InitializeMediaBackend(a.cfg.FFmpegDir); err != nil {
		return nil, err
	}
	if err := s.env.InitializePortAudioBackend(a.cfg.PortAudioPath); err != nil {
		return nil, errors.Join(err, s.lib.Close())
	}
	return s, nil
}
