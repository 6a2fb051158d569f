package iq

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEncoding(t *testing.T) {
	cases := map[string]Encoding{
		"i8":    EncodingI8,
		"u8":    EncodingU8,
		"2xi16": EncodingI16,
		"2xf16": EncodingF16,
		"2xf32": EncodingF32,
	}
	for s, want := range cases {
		got, err := ParseEncoding(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseEncoding("bogus")
	assert.Error(t, err)
}

func TestDecodeU8Bias(t *testing.T) {
	raw := []byte{127, 127, 255, 0}
	out := make([]Sample, 2)
	decodeU8(raw, out)

	assert.InDelta(t, -0.00392, out[0].I, 1e-3)
	assert.InDelta(t, -0.00392, out[0].Q, 1e-3)
	assert.InDelta(t, 1.0, out[1].I, 1e-3)
	assert.InDelta(t, -1.0, out[1].Q, 1e-3)
}

func TestDecodeI8FullScale(t *testing.T) {
	raw := []byte{127, 0x80, 0, 1}
	out := make([]Sample, 2)
	decodeI8(raw, out)

	assert.InDelta(t, 0.9921875, out[0].I, 1e-6)
	assert.InDelta(t, -1.0, out[0].Q, 1e-6)
	assert.Equal(t, float32(0), out[1].I)
}

func TestDecodeF32RoundTrip(t *testing.T) {
	raw := make([]byte, 16)
	// encode two samples: (1.5, -2.25) and (0, 3.0)
	put := func(off int, v float32) {
		bits := math.Float32bits(v)
		raw[off] = byte(bits)
		raw[off+1] = byte(bits >> 8)
		raw[off+2] = byte(bits >> 16)
		raw[off+3] = byte(bits >> 24)
	}
	put(0, 1.5)
	put(4, -2.25)
	put(8, 0)
	put(12, 3.0)

	out := make([]Sample, 2)
	decodeF32(raw, out)
	assert.Equal(t, Sample{I: 1.5, Q: -2.25}, out[0])
	assert.Equal(t, Sample{I: 0, Q: 3.0}, out[1])
}
