// ABOUTME: miniaudio engine through malgo
// ABOUTME: Float32 playback device whose data callback drains a CallbackEngine
package output

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Resonate-Protocol/audioenv/pkg/audio"
	"github.com/gen2brain/malgo"
)

// MalgoEngine plays through a miniaudio device
type MalgoEngine struct {
	*CallbackEngine
	ctx    *malgo.AllocatedContext
	device *malgo.Device
}

// NewMalgo opens a miniaudio playback device matching dev by name,
// falling back to the system default
func NewMalgo(ready Readiness, dev audio.Device, cfg Config) (*MalgoEngine, error) {
	if err := requireReady(ready); err != nil {
		return nil, err
	}

	cfg = cfg.withLabel(string(KindMalgo))
	format, err := cfg.Format(dev)
	if err != nil {
		return nil, err
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, audio.NewError("open engine", audio.ErrEnvironment, fmt.Errorf("failed to initialize malgo context: %w", err))
	}

	cb := NewCallback(format, cfg)
	e := &MalgoEngine{CallbackEngine: cb, ctx: mctx}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1
	if cfg.FramesPerBuffer > 0 {
		deviceConfig.PeriodSizeInFrames = uint32(cfg.FramesPerBuffer)
	} else if lat := dev.Latency(cfg.Latency); lat > 0 {
		deviceConfig.PeriodSizeInMilliseconds = uint32(max(lat.Milliseconds(), 1))
	}

	if infos, err := mctx.Devices(malgo.Playback); err == nil {
		for _, info := range infos {
			if matchDeviceName(info.Name(), dev.Name) {
				deviceConfig.Playback.DeviceID = info.ID.Pointer()
				break
			}
		}
	} else {
		cb.logger.Warn("cannot list playback devices, using default", "error", err)
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, _ []byte, _ uint32) {
			cb.Fill(pOutput)
		},
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, callbacks)
	if err != nil {
		e.releaseContext()
		return nil, audio.NewError("open engine", audio.ErrEnvironment, fmt.Errorf("failed to initialize playback device: %w", err))
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		e.releaseContext()
		return nil, audio.NewError("open engine", audio.ErrEnvironment, fmt.Errorf("failed to start device: %w", err))
	}

	e.device = device
	cb.onClose = e.release
	cb.logger.Info("engine opened", "device", dev.Name, "format", format.String())
	return e, nil
}

func (e *MalgoEngine) release() error {
	var errs []error
	if e.device != nil {
		if err := e.device.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("device stop: %w", err))
		}
		e.device.Uninit()
		e.device = nil
	}
	if err := e.releaseContext(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (e *MalgoEngine) releaseContext() error {
	if e.ctx == nil {
		return nil
	}
	err := e.ctx.Uninit()
	e.ctx.Free()
	e.ctx = nil
	if err != nil {
		return fmt.Errorf("malgo context uninit: %w", err)
	}
	return nil
}

// matchDeviceName compares names from two backends, which may decorate
// the same device differently
func matchDeviceName(backendName, want string) bool {
	a := strings.ToLower(strings.TrimSpace(strings.TrimRight(backendName, "\x00")))
	b := strings.ToLower(strings.TrimSpace(want))
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}
