// ABOUTME: Output device descriptor
// ABOUTME: Immutable value describing one device reported by the device backend
package audio

import (
	"fmt"
	"time"
)

// LatencyMode selects which of a device's default latencies to request
type LatencyMode int

const (
	// LatencyHigh prefers stability (larger device buffer)
	LatencyHigh LatencyMode = iota
	// LatencyLow prefers responsiveness
	LatencyLow
)

// String returns the latency mode name
func (m LatencyMode) String() string {
	switch m {
	case LatencyLow:
		return "low"
	case LatencyHigh:
		return "high"
	default:
		return fmt.Sprintf("LatencyMode(%d)", int(m))
	}
}

// ParseLatencyMode converts "low" or "high" to a LatencyMode
func ParseLatencyMode(s string) (LatencyMode, error) {
	switch s {
	case "low":
		return LatencyLow, nil
	case "high", "":
		return LatencyHigh, nil
	default:
		return LatencyHigh, NewError("parse latency", ErrInvalidArgument, fmt.Errorf("unknown latency mode %q (want low or high)", s))
	}
}

// Device describes an output device as reported by the device backend.
// Index is assigned by the backend and is not guaranteed to be contiguous.
type Device struct {
	Index                    int
	Name                     string
	MaxOutputChannels        int
	DefaultSampleRate        float64
	DefaultLowOutputLatency  time.Duration
	DefaultHighOutputLatency time.Duration
}

// IsOutput reports whether the device can play audio
func (d Device) IsOutput() bool {
	return d.MaxOutputChannels > 0
}

// Latency returns the device's default output latency for mode
func (d Device) Latency(mode LatencyMode) time.Duration {
	if mode == LatencyLow {
		return d.DefaultLowOutputLatency
	}
	return d.DefaultHighOutputLatency
}

func (d Device) String() string {
	return fmt.Sprintf("#%d %q (%dch, %.0fHz)", d.Index, d.Name, d.MaxOutputChannels, d.DefaultSampleRate)
}
