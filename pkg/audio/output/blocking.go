// ABOUTME: Engine over a blocking device stream
// ABOUTME: Serializes writes; Close aborts the stream to release a blocked writer
package output

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/audioenv/pkg/audio"
)

// BlockingEngine forwards each Send to Stream.Write in call order
type BlockingEngine struct {
	stream   Stream
	channels int
	label    string
	logger   *slog.Logger
	metrics  *Metrics

	mu        sync.Mutex // held for the duration of a write
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
	onClose   func() error
}

// NewBlocking wraps an open stream carrying channels interleaved channels
func NewBlocking(stream Stream, channels int, cfg Config) *BlockingEngine {
	cfg = cfg.withLabel("blocking")
	return &BlockingEngine{
		stream:   stream,
		channels: channels,
		label:    cfg.Label,
		logger:   cfg.engineLogger(),
		metrics:  cfg.Metrics,
	}
}

// Send writes samples and returns when the stream has accepted them
func (e *BlockingEngine) Send(samples []float32) error {
	start := time.Now()
	err := e.send(samples)
	e.metrics.observe(e.label, len(samples), start, err)
	return err
}

func (e *BlockingEngine) send(samples []float32) error {
	if e.closed.Load() {
		return errClosed("send")
	}
	if err := audio.ValidateBuffer(samples, e.channels); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed.Load() {
		return errClosed("send")
	}
	if err := e.stream.Write(samples); err != nil {
		if e.closed.Load() {
			return errClosed("send")
		}
		return audio.NewError("send", audio.ErrEnvironment, err)
	}
	return nil
}

// Close aborts the stream, waits for any in-flight write and releases it
func (e *BlockingEngine) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)

		if err := e.stream.Abort(); err != nil {
			e.logger.Warn("stream abort failed", "error", err)
		}

		e.mu.Lock()
		defer e.mu.Unlock()

		e.closeErr = e.stream.Close()
		if e.onClose != nil {
			if err := e.onClose(); err != nil && e.closeErr == nil {
				e.closeErr = err
			}
		}
		e.logger.Debug("engine closed")
	})
	return e.closeErr
}
