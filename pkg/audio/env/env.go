// ABOUTME: Environment state for backend readiness and the device catalog
// ABOUTME: Monotonic readiness flags, catalog published by a single atomic store
package env

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/audioenv/pkg/audio"
)

// MediaBackend configures the decoding backend used elsewhere in the pipeline
type MediaBackend interface {
	// SetSearchPath sets where the backend's native components live.
	// An empty dir means system-wide locations.
	SetSearchPath(dir string)

	// SetQuiet silences the backend's own logging
	SetQuiet()
}

// DeviceBackend enumerates output devices through a loadable native module
type DeviceBackend interface {
	// Open loads the native module at libraryPath and initializes it
	Open(libraryPath string) error

	// DeviceCount returns the total number of devices, input and output
	DeviceCount() (int, error)

	// DefaultOutputDevice returns the backend index of the default output device
	DefaultOutputDevice() (int, error)

	// Device returns the descriptor at a backend index
	Device(index int) (audio.Device, error)

	// Close undoes Open
	Close() error
}

// catalog is immutable once stored
type catalog struct {
	defaultDevice audio.Device
	devices       []audio.Device
}

// Environment tracks backend initialization and caches the device catalog
type Environment struct {
	media  MediaBackend
	device DeviceBackend
	logger *slog.Logger

	mediaMu    sync.Mutex
	mediaReady atomic.Bool

	deviceMu sync.Mutex
	catalog  atomic.Pointer[catalog]
}

// Option configures an Environment
type Option func(*Environment)

// WithLogger sets the logger used for initialization messages
func WithLogger(logger *slog.Logger) Option {
	return func(e *Environment) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an uninitialized environment over the given backends
func New(media MediaBackend, device DeviceBackend, opts ...Option) *Environment {
	e := &Environment{
		media:  media,
		device: device,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "env")
	return e
}

// InitializeMediaBackend configures the media backend's search path and quiets
// its logging. libraryDirectory may be empty to use system-wide locations.
// Returns immediately if already initialized.
func (e *Environment) InitializeMediaBackend(libraryDirectory string) error {
	if e.mediaReady.Load() {
		return nil
	}

	e.mediaMu.Lock()
	defer e.mediaMu.Unlock()

	if e.mediaReady.Load() {
		return nil
	}
	if e.media == nil {
		return audio.NewError("initialize media backend", audio.ErrInvalidArgument, errors.New("no media backend configured"))
	}

	e.media.SetSearchPath(libraryDirectory)
	e.media.SetQuiet()
	e.mediaReady.Store(true)

	e.logger.Info("media backend initialized", "search_path", libraryDirectory)
	return nil
}

// InitializePortAudioBackend loads the device backend from nativeLibraryPath,
// enumerates its devices and publishes the output catalog.
// Returns immediately if already initialized. On failure nothing is published
// and the call may be retried.
func (e *Environment) InitializePortAudioBackend(nativeLibraryPath string) error {
	if e.catalog.Load() != nil {
		return nil
	}

	e.deviceMu.Lock()
	defer e.deviceMu.Unlock()

	if e.catalog.Load() != nil {
		return nil
	}

	const op = "initialize device backend"
	if nativeLibraryPath == "" {
		return audio.NewError(op, audio.ErrInvalidArgument, errors.New("native library path is required"))
	}
	if e.device == nil {
		return audio.NewError(op, audio.ErrInvalidArgument, errors.New("no device backend configured"))
	}

	if err := e.device.Open(nativeLibraryPath); err != nil {
		return audio.NewError(op, audio.ErrEnvironment, fmt.Errorf("failed to load %s: %w", nativeLibraryPath, err))
	}

	cat, err := e.enumerate()
	if err != nil {
		if closeErr := e.device.Close(); closeErr != nil {
			e.logger.Warn("failed to close device backend after failed initialization", "error", closeErr)
		}
		return err
	}

	e.catalog.Store(cat)

	e.logger.Info("device backend initialized",
		"library", nativeLibraryPath,
		"output_devices", len(cat.devices),
		"default_device", cat.defaultDevice.Name)
	return nil
}

// enumerate builds the catalog without publishing it
func (e *Environment) enumerate() (*catalog, error) {
	const op = "initialize device backend"

	count, err := e.device.DeviceCount()
	if err != nil {
		return nil, audio.NewError(op, audio.ErrEnvironment, fmt.Errorf("failed to count devices: %w", err))
	}
	if count <= 0 {
		return nil, audio.NewError(op, audio.ErrEnvironment, errors.New("no output devices are available"))
	}

	defaultIndex, err := e.device.DefaultOutputDevice()
	if err != nil {
		return nil, audio.NewError(op, audio.ErrEnvironment, fmt.Errorf("failed to resolve default output device: %w", err))
	}
	defaultDevice, err := e.device.Device(defaultIndex)
	if err != nil {
		return nil, audio.NewError(op, audio.ErrEnvironment, fmt.Errorf("failed to query default device %d: %w", defaultIndex, err))
	}

	devices := make([]audio.Device, 0, count)
	for i := 0; i < count; i++ {
		dev, err := e.device.Device(i)
		if err != nil {
			return nil, audio.NewError(op, audio.ErrEnvironment, fmt.Errorf("failed to query device %d: %w", i, err))
		}
		if !dev.IsOutput() {
			e.logger.Debug("skipping device without output channels", "index", i, "name", dev.Name)
			continue
		}
		devices = append(devices, dev)
	}

	return &catalog{defaultDevice: defaultDevice, devices: devices}, nil
}

// IsMediaBackendReady reports whether InitializeMediaBackend has completed
func (e *Environment) IsMediaBackendReady() bool {
	return e.mediaReady.Load()
}

// IsDeviceBackendReady reports whether InitializePortAudioBackend has completed
func (e *Environment) IsDeviceBackendReady() bool {
	return e.catalog.Load() != nil
}

// DefaultOutputDevice returns the host's default output device
func (e *Environment) DefaultOutputDevice() (audio.Device, error) {
	cat := e.catalog.Load()
	if cat == nil {
		return audio.Device{}, audio.NewError("default output device", audio.ErrNotInitialized, nil)
	}
	return cat.defaultDevice, nil
}

// OutputDevices returns the output-capable devices in enumeration order.
// The returned slice is a copy.
func (e *Environment) OutputDevices() ([]audio.Device, error) {
	cat := e.catalog.Load()
	if cat == nil {
		return nil, audio.NewError("output devices", audio.ErrNotInitialized, nil)
	}
	return slices.Clone(cat.devices), nil
}

// OutputDevice returns the catalog entry with the given backend index
func (e *Environment) OutputDevice(index int) (audio.Device, error) {
	cat := e.catalog.Load()
	if cat == nil {
		return audio.Device{}, audio.NewError("output device", audio.ErrNotInitialized, nil)
	}
	i := slices.IndexFunc(cat.devices, func(d audio.Device) bool { return d.Index == index })
	if i < 0 {
		return audio.Device{}, audio.NewError("output device", audio.ErrInvalidArgument, fmt.Errorf("no output device with index %d", index))
	}
	return cat.devices[i], nil
}
