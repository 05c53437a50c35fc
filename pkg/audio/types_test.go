// ABOUTME: Tests for audio types
// ABOUTME: Tests formats, buffer validation, devices and error kinds
package audio

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValidate(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		wantErr bool
	}{
		{"stereo 48k", Format{SampleRate: 48000, Channels: 2}, false},
		{"mono 16k", Format{SampleRate: 16000, Channels: 1}, false},
		{"zero rate", Format{SampleRate: 0, Channels: 2}, true},
		{"zero channels", Format{SampleRate: 44100, Channels: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.format.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestFormatString(t *testing.T) {
	assert.Equal(t, "48000Hz/2ch/float32", Format{SampleRate: 48000, Channels: 2}.String())
	assert.Equal(t, 960, Format{SampleRate: 48000, Channels: 2}.SamplesPerFrame(480))
}

func TestValidateBuffer(t *testing.T) {
	require.NoError(t, ValidateBuffer(nil, 2))
	require.NoError(t, ValidateBuffer(make([]float32, 6), 2))
	require.NoError(t, ValidateBuffer(make([]float32, 6), 3))

	err := ValidateBuffer(make([]float32, 5), 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	err = ValidateBuffer(make([]float32, 4), 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSampleFormatString(t *testing.T) {
	assert.Equal(t, "float32", SampleFormatFloat32.String())
	assert.Equal(t, "SampleFormat(7)", SampleFormat(7).String())
}

func TestDeviceLatency(t *testing.T) {
	dev := Device{
		Index:                    3,
		Name:                     "Speakers",
		MaxOutputChannels:        2,
		DefaultSampleRate:        44100,
		DefaultLowOutputLatency:  10 * time.Millisecond,
		DefaultHighOutputLatency: 80 * time.Millisecond,
	}

	assert.True(t, dev.IsOutput())
	assert.Equal(t, 10*time.Millisecond, dev.Latency(LatencyLow))
	assert.Equal(t, 80*time.Millisecond, dev.Latency(LatencyHigh))
	assert.Equal(t, `#3 "Speakers" (2ch, 44100Hz)`, dev.String())

	assert.False(t, Device{Name: "Mic"}.IsOutput())
}

func TestParseLatencyMode(t *testing.T) {
	mode, err := ParseLatencyMode("low")
	require.NoError(t, err)
	assert.Equal(t, LatencyLow, mode)

	mode, err = ParseLatencyMode("")
	require.NoError(t, err)
	assert.Equal(t, LatencyHigh, mode)

	_, err = ParseLatencyMode("tiny")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestErrorKinds(t *testing.T) {
	cause := fmt.Errorf("dlopen failed")
	err := NewError("initialize portaudio", ErrEnvironment, cause)

	assert.ErrorIs(t, err, ErrEnvironment)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "initialize portaudio: environment error: dlopen failed", err.Error())

	bare := NewError("send", ErrInvalidState, nil)
	assert.Equal(t, "send: invalid state", bare.Error())

	var typed *Error
	wrapped := fmt.Errorf("play: %w", bare)
	require.True(t, errors.As(wrapped, &typed))
	assert.Equal(t, "send", typed.Op)
}
