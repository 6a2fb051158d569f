package navmsg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		source := rapid.Uint32Range(0, 1<<24-1).Draw(t, "source")
		prevD29 := rapid.Bool().Draw(t, "prevD29")
		prevD30 := rapid.Bool().Draw(t, "prevD30")

		word := EncodeWord(source, prevD29, prevD30)
		decoded, ok := DecodeWord(word, prevD29, prevD30)

		require.True(t, ok, "a word we just encoded must pass its own parity check")
		assert.Equal(t, source, decoded)
	})
}

func TestDecodeWordRejectsCorruption(t *testing.T) {
	word := EncodeWord(0x123456, false, true)
	corrupted := word ^ (1 << 10) // flip one data bit

	_, ok := DecodeWord(corrupted, false, true)
	assert.False(t, ok, "a single bit flip must fail parity")
}

func TestDecodeWordAllZeroSource(t *testing.T) {
	word := EncodeWord(0, false, false)
	decoded, ok := DecodeWord(word, false, false)
	require.True(t, ok)
	assert.Equal(t, uint32(0), decoded)
}

func TestDecodeWordAllOnesSource(t *testing.T) {
	word := EncodeWord(0xFFFFFF, true, true)
	decoded, ok := DecodeWord(word, true, true)
	require.True(t, ok)
	assert.Equal(t, uint32(0xFFFFFF), decoded)
}

func TestLastTwoBits(t *testing.T) {
	word := EncodeWord(0xABCDEF, false, true)
	d29, d30 := LastTwoBits(word)
	assert.Equal(t, bit(word, 29), d29)
	assert.Equal(t, bit(word, 30), d30)
}
