// ABOUTME: Float32 PCM encoder and decoder
// ABOUTME: Little-endian IEEE 754 layout, 4 bytes per sample
package pcm

import (
	"encoding/binary"
	"math"

	"github.com/Resonate-Protocol/audioenv/pkg/audio"
)

// EncodedLen returns the number of bytes needed for n samples
func EncodedLen(n int) int {
	return n * audio.BytesPerSample
}

// Encode appends samples to dst as f32le bytes and returns the extended slice
func Encode(dst []byte, samples []float32) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(s))
	}
	return dst
}

// Decode converts f32le bytes into dst and returns the number of samples written.
// Trailing bytes that do not form a whole sample are ignored.
func Decode(dst []float32, data []byte) int {
	n := len(data) / audio.BytesPerSample
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*audio.BytesPerSample:]))
	}
	return n
}
