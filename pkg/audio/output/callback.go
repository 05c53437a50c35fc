// ABOUTME: Engine bridging blocking sends to a pull-style device callback
// ABOUTME: Bytes queue in a ring buffer; the callback drains whole frames only
package output

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/audioenv/pkg/audio"
	"github.com/Resonate-Protocol/audioenv/pkg/audio/pcm"
	"github.com/smallnest/ringbuffer"
)

// CallbackEngine queues sends for a device that pulls audio through Fill
type CallbackEngine struct {
	ring       *ringbuffer.RingBuffer
	channels   int
	frameBytes int
	label      string
	logger     *slog.Logger
	metrics    *Metrics

	sendMu  sync.Mutex
	scratch []byte

	space     chan struct{} // signalled by Fill after draining
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
	onClose   func() error

	underruns atomic.Uint64
}

// NewCallback creates an engine whose queue holds cfg.BufferDuration of format
func NewCallback(format audio.Format, cfg Config) *CallbackEngine {
	cfg = cfg.withLabel("callback")
	return &CallbackEngine{
		ring:       ringbuffer.New(cfg.queueBytes(format)),
		channels:   format.Channels,
		frameBytes: format.Channels * audio.BytesPerSample,
		label:      cfg.Label,
		logger:     cfg.engineLogger(),
		metrics:    cfg.Metrics,
		space:      make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Send blocks until every sample is queued for the device
func (e *CallbackEngine) Send(samples []float32) error {
	start := time.Now()
	err := e.send(samples)
	e.metrics.observe(e.label, len(samples), start, err)
	return err
}

func (e *CallbackEngine) send(samples []float32) error {
	if e.closed.Load() {
		return errClosed("send")
	}
	if err := audio.ValidateBuffer(samples, e.channels); err != nil {
		return err
	}

	e.sendMu.Lock()
	defer e.sendMu.Unlock()

	e.scratch = pcm.Encode(e.scratch[:0], samples)
	data := e.scratch
	for len(data) > 0 {
		if e.closed.Load() {
			return errClosed("send")
		}

		free := e.ring.Free()
		if free == 0 {
			select {
			case <-e.space:
			case <-e.done:
				return errClosed("send")
			}
			continue
		}

		n, err := e.ring.Write(data[:min(free, len(data))])
		data = data[n:]
		if err != nil && !errors.Is(err, ringbuffer.ErrIsFull) {
			return audio.NewError("send", audio.ErrEnvironment, err)
		}
	}
	return nil
}

// Fill copies queued audio into out, the device's f32le buffer. It never
// blocks and never splits a frame; whatever it cannot fill is silence.
func (e *CallbackEngine) Fill(out []byte) {
	n := 0
	if !e.closed.Load() {
		queued := e.ring.Length()
		want := min(len(out), queued-queued%e.frameBytes)
		want -= want % e.frameBytes
		if want > 0 {
			var err error
			n, err = e.ring.TryRead(out[:want])
			if err != nil {
				n = 0
			}
		}
	}

	if n < len(out) {
		clear(out[n:])
		if !e.closed.Load() {
			e.underruns.Add(1)
		}
	}

	if n > 0 {
		select {
		case e.space <- struct{}{}:
		default:
		}
	}
}

// Queued returns the number of bytes waiting for the device
func (e *CallbackEngine) Queued() int {
	return e.ring.Length()
}

// Underruns counts callbacks that were not completely filled
func (e *CallbackEngine) Underruns() uint64 {
	return e.underruns.Load()
}

// Close wakes blocked senders and releases the device. Queued audio is dropped.
func (e *CallbackEngine) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		close(e.done)

		if e.onClose != nil {
			e.closeErr = e.onClose()
		}
		e.logger.Debug("engine closed", "underruns", e.underruns.Load())
	})
	return e.closeErr
}
