package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Resonate-Protocol/audioenv/internal/version"
	"github.com/Resonate-Protocol/audioenv/pkg/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), version.Product)
	assert.Contains(t, out.String(), version.Version)
}

func TestInvalidConfigRejected(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"version", "--log-level", "loud"})

	err := cmd.Execute()
	assert.ErrorIs(t, err, audio.ErrInvalidArgument)
}

func TestRenderDevices(t *testing.T) {
	devices := []audio.Device{
		{Index: 0, Name: "Speakers", MaxOutputChannels: 2, DefaultSampleRate: 48000,
			DefaultLowOutputLatency: 10 * time.Millisecond, DefaultHighOutputLatency: 40 * time.Millisecond},
		{Index: 2, Name: "HDMI", MaxOutputChannels: 8, DefaultSampleRate: 44100},
	}

	var out bytes.Buffer
	require.NoError(t, renderDevices(&out, devices, devices[1]))

	text := out.String()
	for _, want := range []string{"INDEX", "Speakers", "HDMI", "48000", "44100", "10ms / 40ms"} {
		assert.Contains(t, text, want)
	}

	var hdmiLine string
	for line := range strings.SplitSeq(text, "\n") {
		if strings.Contains(line, "HDMI") {
			hdmiLine = line
		}
	}
	assert.Contains(t, hdmiLine, "*")
	assert.NotContains(t, text, "no output channels")
}

func TestRenderDevicesSilentDefault(t *testing.T) {
	devices := []audio.Device{{Index: 0, Name: "Speakers", MaxOutputChannels: 2, DefaultSampleRate: 48000}}
	def := audio.Device{Index: 1, Name: "Monitor"}

	var out bytes.Buffer
	require.NoError(t, renderDevices(&out, devices, def))
	assert.Contains(t, out.String(), `default device #1 "Monitor" has no output channels`)
}
