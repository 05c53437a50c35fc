// ABOUTME: Tests for the audio environment
// ABOUTME: Drives initialization against fake media and device backends
package env

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Resonate-Protocol/audioenv/pkg/audio"
)

type fakeMedia struct {
	searchPath string
	quiet      bool
	calls      int
}

func (m *fakeMedia) SetSearchPath(dir string) {
	m.searchPath = dir
	m.calls++
}

func (m *fakeMedia) SetQuiet() { m.quiet = true }

type fakeDevices struct {
	devices      []audio.Device
	defaultIndex int
	openErr      error
	deviceErr    error

	opens  atomic.Int32
	closes atomic.Int32
	path   string
}

func (f *fakeDevices) Open(path string) error {
	f.opens.Add(1)
	f.path = path
	return f.openErr
}

func (f *fakeDevices) DeviceCount() (int, error) { return len(f.devices), nil }

func (f *fakeDevices) DefaultOutputDevice() (int, error) { return f.defaultIndex, nil }

func (f *fakeDevices) Device(index int) (audio.Device, error) {
	if f.deviceErr != nil {
		return audio.Device{}, f.deviceErr
	}
	if index < 0 || index >= len(f.devices) {
		return audio.Device{}, errors.New("index out of range")
	}
	return f.devices[index], nil
}

func (f *fakeDevices) Close() error {
	f.closes.Add(1)
	return nil
}

func threeDevices() *fakeDevices {
	return &fakeDevices{
		devices: []audio.Device{
			{Index: 0, Name: "Built-in Output", MaxOutputChannels: 2, DefaultSampleRate: 48000,
				DefaultLowOutputLatency: 10 * time.Millisecond, DefaultHighOutputLatency: 40 * time.Millisecond},
			{Index: 1, Name: "Built-in Microphone", MaxOutputChannels: 0, DefaultSampleRate: 48000},
			{Index: 2, Name: "USB DAC", MaxOutputChannels: 8, DefaultSampleRate: 96000,
				DefaultLowOutputLatency: 5 * time.Millisecond, DefaultHighOutputLatency: 20 * time.Millisecond},
		},
		defaultIndex: 0,
	}
}

func TestMediaBackendInitialization(t *testing.T) {
	media := &fakeMedia{}
	environment := New(media, threeDevices())

	assert.False(t, environment.IsMediaBackendReady())

	require.NoError(t, environment.InitializeMediaBackend("/opt/ffmpeg/bin"))
	assert.True(t, environment.IsMediaBackendReady())
	assert.Equal(t, "/opt/ffmpeg/bin", media.searchPath)
	assert.True(t, media.quiet)

	// Second call is a no-op
	require.NoError(t, environment.InitializeMediaBackend("/elsewhere"))
	assert.Equal(t, "/opt/ffmpeg/bin", media.searchPath)
	assert.Equal(t, 1, media.calls)

	// Media init never touches devices
	assert.False(t, environment.IsDeviceBackendReady())
}

func TestMediaBackendEmptyDirectory(t *testing.T) {
	media := &fakeMedia{searchPath: "unset"}
	environment := New(media, nil)

	require.NoError(t, environment.InitializeMediaBackend(""))
	assert.Equal(t, "", media.searchPath)
	assert.True(t, environment.IsMediaBackendReady())
}

func TestMediaBackendMissing(t *testing.T) {
	environment := New(nil, nil)

	err := environment.InitializeMediaBackend("")
	assert.ErrorIs(t, err, audio.ErrInvalidArgument)
	assert.False(t, environment.IsMediaBackendReady())
}

func TestQueriesBeforeInitialization(t *testing.T) {
	environment := New(&fakeMedia{}, threeDevices())

	_, err := environment.DefaultOutputDevice()
	assert.ErrorIs(t, err, audio.ErrNotInitialized)

	_, err = environment.OutputDevices()
	assert.ErrorIs(t, err, audio.ErrNotInitialized)

	_, err = environment.OutputDevice(0)
	assert.ErrorIs(t, err, audio.ErrNotInitialized)

	require.NoError(t, environment.InitializePortAudioBackend("libportaudio.so.2"))

	_, err = environment.DefaultOutputDevice()
	require.NoError(t, err)
	_, err = environment.OutputDevices()
	require.NoError(t, err)
}

func TestCatalogFiltersDevicesWithoutOutput(t *testing.T) {
	backend := threeDevices()
	environment := New(nil, backend)

	require.NoError(t, environment.InitializePortAudioBackend("libportaudio.so.2"))
	assert.True(t, environment.IsDeviceBackendReady())
	assert.Equal(t, "libportaudio.so.2", backend.path)

	devices, err := environment.OutputDevices()
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, 0, devices[0].Index)
	assert.Equal(t, 2, devices[1].Index)
	for _, d := range devices {
		assert.Greater(t, d.MaxOutputChannels, 0)
	}

	def, err := environment.DefaultOutputDevice()
	require.NoError(t, err)
	assert.Equal(t, backend.devices[0], def)
	assert.Equal(t, devices[0], def)
}

func TestDeviceInitializationIsIdempotent(t *testing.T) {
	backend := threeDevices()
	environment := New(nil, backend)

	require.NoError(t, environment.InitializePortAudioBackend("libportaudio.so.2"))
	first, err := environment.OutputDevices()
	require.NoError(t, err)
	firstDefault, err := environment.DefaultOutputDevice()
	require.NoError(t, err)

	require.NoError(t, environment.InitializePortAudioBackend("some/other/path.so"))
	second, err := environment.OutputDevices()
	require.NoError(t, err)
	secondDefault, err := environment.DefaultOutputDevice()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstDefault, secondDefault)
	assert.Equal(t, int32(1), backend.opens.Load())
}

func TestDeviceInitializationRequiresPath(t *testing.T) {
	backend := threeDevices()
	environment := New(nil, backend)

	err := environment.InitializePortAudioBackend("")
	require.Error(t, err)
	assert.ErrorIs(t, err, audio.ErrInvalidArgument)
	assert.False(t, environment.IsDeviceBackendReady())
	assert.Equal(t, int32(0), backend.opens.Load())

	_, err = environment.OutputDevices()
	assert.ErrorIs(t, err, audio.ErrNotInitialized)
}

func TestDeviceInitializationWithoutDevices(t *testing.T) {
	backend := &fakeDevices{}
	environment := New(nil, backend)

	err := environment.InitializePortAudioBackend("libportaudio.so.2")
	require.Error(t, err)
	assert.ErrorIs(t, err, audio.ErrEnvironment)
	assert.Contains(t, err.Error(), "no output devices are available")
	assert.False(t, environment.IsDeviceBackendReady())
	assert.Equal(t, int32(1), backend.closes.Load())

	_, err = environment.DefaultOutputDevice()
	assert.ErrorIs(t, err, audio.ErrNotInitialized)
}

func TestDeviceInitializationLoadFailure(t *testing.T) {
	cause := errors.New("cannot open shared object file")
	backend := threeDevices()
	backend.openErr = cause
	environment := New(nil, backend)

	err := environment.InitializePortAudioBackend("/missing/libportaudio.so")
	assert.ErrorIs(t, err, audio.ErrEnvironment)
	assert.ErrorIs(t, err, cause)
	assert.False(t, environment.IsDeviceBackendReady())
}

func TestDeviceInitializationQueryFailureLeavesStateUntouched(t *testing.T) {
	backend := threeDevices()
	backend.deviceErr = errors.New("device vanished")
	environment := New(nil, backend)

	err := environment.InitializePortAudioBackend("libportaudio.so.2")
	assert.ErrorIs(t, err, audio.ErrEnvironment)
	assert.False(t, environment.IsDeviceBackendReady())
	assert.Equal(t, int32(1), backend.closes.Load())

	// A later attempt can succeed once the host recovers
	backend.deviceErr = nil
	require.NoError(t, environment.InitializePortAudioBackend("libportaudio.so.2"))
	assert.True(t, environment.IsDeviceBackendReady())
	assert.Equal(t, int32(2), backend.opens.Load())
}

func TestDefaultDeviceWithoutOutputChannelsIsKept(t *testing.T) {
	backend := threeDevices()
	backend.defaultIndex = 1
	environment := New(nil, backend)

	require.NoError(t, environment.InitializePortAudioBackend("libportaudio.so.2"))

	def, err := environment.DefaultOutputDevice()
	require.NoError(t, err)
	assert.Equal(t, "Built-in Microphone", def.Name)

	devices, err := environment.OutputDevices()
	require.NoError(t, err)
	assert.Len(t, devices, 2)
}

func TestOutputDevicesReturnsCopy(t *testing.T) {
	environment := New(nil, threeDevices())
	require.NoError(t, environment.InitializePortAudioBackend("libportaudio.so.2"))

	devices, err := environment.OutputDevices()
	require.NoError(t, err)
	devices[0].Name = "tampered"
	devices[0].MaxOutputChannels = 0

	again, err := environment.OutputDevices()
	require.NoError(t, err)
	assert.Equal(t, "Built-in Output", again[0].Name)
	assert.Equal(t, 2, again[0].MaxOutputChannels)
}

func TestOutputDeviceLookup(t *testing.T) {
	environment := New(nil, threeDevices())
	require.NoError(t, environment.InitializePortAudioBackend("libportaudio.so.2"))

	dev, err := environment.OutputDevice(2)
	require.NoError(t, err)
	assert.Equal(t, "USB DAC", dev.Name)

	_, err = environment.OutputDevice(1)
	assert.ErrorIs(t, err, audio.ErrInvalidArgument)
}

func TestConcurrentFirstInitialization(t *testing.T) {
	backend := threeDevices()
	environment := New(&fakeMedia{}, backend)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, environment.InitializePortAudioBackend("libportaudio.so.2"))
			assert.NoError(t, environment.InitializeMediaBackend(""))

			devices, err := environment.OutputDevices()
			assert.NoError(t, err)
			assert.Len(t, devices, 2)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), backend.opens.Load())
}
