// ABOUTME: oto engine streaming float32 through a pipe
// ABOUTME: The player pulls from the pipe, so Send blocks until it has read the data
package output

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/audioenv/pkg/audio"
	"github.com/Resonate-Protocol/audioenv/pkg/audio/pcm"
	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process
var (
	otoMu     sync.Mutex
	otoCtx    *oto.Context
	otoFormat audio.Format
	otoBuffer time.Duration
)

func sharedOtoContext(format audio.Format, buffer time.Duration, logger *slog.Logger) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if err := checkOtoReuse(otoFormat, otoBuffer, format, buffer, logger); err != nil {
			return nil, err
		}
		if err := otoCtx.Resume(); err != nil {
			return nil, audio.NewError("open engine", audio.ErrEnvironment, fmt.Errorf("failed to resume oto context: %w", err))
		}
		return otoCtx, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   buffer,
	})
	if err != nil {
		return nil, audio.NewError("open engine", audio.ErrEnvironment, fmt.Errorf("failed to create oto context: %w", err))
	}
	<-ready

	otoCtx = ctx
	otoFormat = format
	otoBuffer = buffer
	return ctx, nil
}

// checkOtoReuse rejects a running context at another format. The context's
// buffer size is fixed at creation, so a different request is only logged.
func checkOtoReuse(active audio.Format, activeBuffer time.Duration, format audio.Format, buffer time.Duration, logger *slog.Logger) error {
	if active != format {
		return audio.NewError("open engine", audio.ErrInvalidArgument,
			fmt.Errorf("oto is already running at %s, cannot switch to %s", active, format))
	}
	if activeBuffer != buffer {
		logger.Debug("reusing oto context with its original buffer size",
			"requested", buffer, "active", activeBuffer)
	}
	return nil
}

// player is the consuming end of a PipeEngine
type player interface {
	Close() error
}

// PipeEngine writes f32le bytes into a pipe drained by a player
type PipeEngine struct {
	pw       *io.PipeWriter
	player   player
	channels int
	label    string
	logger   *slog.Logger
	metrics  *Metrics

	mu        sync.Mutex
	scratch   []byte
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// newPipeEngine starts a player on the read end of a new pipe
func newPipeEngine(format audio.Format, cfg Config, start func(r io.Reader) (player, error)) (*PipeEngine, error) {
	cfg = cfg.withLabel("pipe")
	pr, pw := io.Pipe()
	p, err := start(pr)
	if err != nil {
		_ = pw.Close()
		return nil, err
	}
	return &PipeEngine{
		pw:       pw,
		player:   p,
		channels: format.Channels,
		label:    cfg.Label,
		logger:   cfg.engineLogger(),
		metrics:  cfg.Metrics,
	}, nil
}

// NewOto opens an oto player at dev's format. oto always plays on the
// system default device; dev only supplies the format.
func NewOto(ready Readiness, dev audio.Device, cfg Config) (*PipeEngine, error) {
	if err := requireReady(ready); err != nil {
		return nil, err
	}

	cfg = cfg.withLabel(string(KindOto))
	format, err := cfg.Format(dev)
	if err != nil {
		return nil, err
	}

	ctx, err := sharedOtoContext(format, dev.Latency(cfg.Latency), cfg.logger())
	if err != nil {
		return nil, err
	}

	e, err := newPipeEngine(format, cfg, func(r io.Reader) (player, error) {
		p := ctx.NewPlayer(r)
		p.SetBufferSize(cfg.queueBytes(format))
		p.Play()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("engine opened", "device", "system default", "format", format.String())
	return e, nil
}

// Send blocks until the player has read every sample
func (e *PipeEngine) Send(samples []float32) error {
	start := time.Now()
	err := e.send(samples)
	e.metrics.observe(e.label, len(samples), start, err)
	return err
}

func (e *PipeEngine) send(samples []float32) error {
	if e.closed.Load() {
		return errClosed("send")
	}
	if err := audio.ValidateBuffer(samples, e.channels); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.scratch = pcm.Encode(e.scratch[:0], samples)
	if _, err := e.pw.Write(e.scratch); err != nil {
		if e.closed.Load() || errors.Is(err, io.ErrClosedPipe) {
			return errClosed("send")
		}
		return audio.NewError("send", audio.ErrEnvironment, err)
	}
	return nil
}

// Close ends the pipe, which releases a blocked Send, then closes the player
func (e *PipeEngine) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		_ = e.pw.Close()
		e.closeErr = e.player.Close()
		e.logger.Debug("engine closed")
	})
	return e.closeErr
}
