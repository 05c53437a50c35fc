// ABOUTME: Copies a Source into an Engine until EOF or cancellation
// ABOUTME: Cancelling the context closes the engine to release a blocked Send
package output

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/audioenv/pkg/audio"
)

// Pump reads frames frames at a time from src and sends them to engine in
// order. Reads that end inside a frame are completed by the next read; a
// partial frame left at EOF is dropped. It returns nil at io.EOF and ctx.Err() when ctx is cancelled, in
// which case engine has been closed.
func Pump(ctx context.Context, engine Engine, src audio.Source, frames int) error {
	if frames <= 0 {
		return audio.NewError("pump", audio.ErrInvalidArgument, fmt.Errorf("frames must be positive, got %d", frames))
	}
	format := src.Format()
	if err := format.Validate(); err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() {
		_ = engine.Close()
	})
	defer stop()

	// carry holds the start of a frame split across two reads
	buf := make([]float32, format.SamplesPerFrame(frames))
	carry := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := src.Read(buf[carry:])
		total := carry + n
		whole := total - total%format.Channels
		if whole > 0 {
			if err := engine.Send(buf[:whole]); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				return err
			}
		}
		carry = copy(buf, buf[whole:total])

		switch {
		case readErr == nil:
		case errors.Is(readErr, io.EOF):
			return nil
		default:
			return fmt.Errorf("source read failed: %w", readErr)
		}
	}
}
