// ABOUTME: Streaming source backed by an ffmpeg child process
// ABOUTME: Reads f32le stdout and yields canonical float32 buffers
package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/Resonate-Protocol/audioenv/pkg/audio"
	"github.com/Resonate-Protocol/audioenv/pkg/audio/pcm"
)

// stderrTail bounds how much ffmpeg diagnostic output is kept for errors
const stderrTail = 2048

// Decoder streams audio decoded by ffmpeg
type Decoder struct {
	ctx    context.Context
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *tailBuffer
	reader *bufio.Reader
	format audio.Format
	buf    []byte

	waited  bool
	waitErr error

	closeOnce sync.Once
	closeErr  error
}

// Decode starts ffmpeg on input and returns a Source producing format
func (t *Toolchain) Decode(ctx context.Context, input string, format audio.Format) (*Decoder, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if input == "" {
		return nil, audio.NewError("decode", audio.ErrInvalidArgument, errors.New("input is required"))
	}

	bin, err := t.Binary()
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, bin, t.DecodeArgs(input, format)...) //nolint:gosec // bin resolved by Binary()
	stderr := &tailBuffer{limit: stderrTail}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	d := newDecoder(cmd, stdout, format)
	d.ctx = ctx
	d.stderr = stderr
	return d, nil
}

func newDecoder(cmd *exec.Cmd, stdout io.ReadCloser, format audio.Format) *Decoder {
	return &Decoder{
		ctx:    context.Background(),
		cmd:    cmd,
		stdout: stdout,
		stderr: &tailBuffer{limit: stderrTail},
		reader: bufio.NewReader(stdout),
		format: format,
	}
}

// Read fills samples with decoded audio. It returns io.EOF once ffmpeg has
// exited cleanly and an error when it exited with a failure status.
// A trailing partial frame from a truncated stream is dropped.
func (d *Decoder) Read(samples []float32) (int, error) {
	want := len(samples) - len(samples)%d.format.Channels
	if want == 0 {
		return 0, nil
	}

	need := pcm.EncodedLen(want)
	if cap(d.buf) < need {
		d.buf = make([]byte, need)
	}
	buf := d.buf[:need]

	n, err := io.ReadFull(d.reader, buf)
	frameBytes := pcm.EncodedLen(d.format.Channels)
	n -= n % frameBytes

	got := pcm.Decode(samples, buf[:n])
	switch {
	case err == nil:
		return got, nil
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		if got > 0 {
			return got, nil
		}
		if werr := d.wait(); werr != nil {
			return 0, werr
		}
		return 0, io.EOF
	default:
		return got, fmt.Errorf("ffmpeg read failed: %w", err)
	}
}

// wait reaps ffmpeg after its output has been drained
func (d *Decoder) wait() error {
	if d.waited || d.cmd == nil || d.cmd.Process == nil {
		return d.waitErr
	}
	d.waited = true

	err := d.cmd.Wait()
	switch {
	case err == nil:
	case d.ctx.Err() != nil:
		d.waitErr = fmt.Errorf("ffmpeg stopped: %w", d.ctx.Err())
	default:
		msg := d.stderr.String()
		if msg == "" {
			msg = "no diagnostic output"
		}
		d.waitErr = audio.NewError("decode", audio.ErrEnvironment, fmt.Errorf("ffmpeg failed: %w: %s", err, msg))
	}
	return d.waitErr
}

// Format returns the output format requested from ffmpeg
func (d *Decoder) Format() audio.Format {
	return d.format
}

// Close stops ffmpeg and reaps the process. Failures already reported by
// Read are not repeated.
func (d *Decoder) Close() error {
	d.closeOnce.Do(func() {
		_ = d.stdout.Close()
		if d.waited || d.cmd == nil || d.cmd.Process == nil {
			return
		}
		d.waited = true
		_ = d.cmd.Process.Kill()
		if err := d.cmd.Wait(); err != nil {
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				d.closeErr = fmt.Errorf("ffmpeg wait failed: %w", err)
			}
		}
	})
	return d.closeErr
}

// tailBuffer keeps the last limit bytes written to it
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	data  []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = append(b.data, p...)
	if over := len(b.data) - b.limit; over > 0 {
		b.data = append(b.data[:0], b.data[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(string(b.data))
}
