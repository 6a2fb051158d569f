package navmsg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// wordsToBits expands a full 10-word subframe into its 300 raw 0/1
// bits, MSB first, per word.
func subframeWordsToBits(words [WordsPerSubframe]uint32) []int {
	bits := make([]int, 0, SubframeBits)
	for _, w := range words {
		for i := 1; i <= WordBits; i++ {
			bits = append(bits, int(b2i(bit(w, i))))
		}
	}
	return bits
}

// feedRawBitsAsIP drives a Decoder with one 20 ms, constant-sign
// correlator window per raw bit (b=0 -> +1.0, b=1 -> -1.0, matching
// the same convention FrameSynchronizer.AddBit uses).
func feedRawBitsAsIP(t *testing.T, d *Decoder, bits []int) {
	t.Helper()
	for _, b := range bits {
		ip := 1.0
		if b == 1 {
			ip = -1.0
		}
		for i := 0; i < BitRateMs; i++ {
			if _, err := d.Feed(ip); err != nil {
				t.Fatalf("unexpected parity error mid-stream: %v", err)
			}
		}
	}
}

func TestDecoderEndToEndLocksAndIngestsEphemeris(t *testing.T) {
	var sf1Data, sf2Data, sf3Data [8]uint32
	const iode = 42
	sf1Data[5] = uint32(iode) << 16 // word8: IODC-low = iode
	sf2Data[0] = uint32(iode) << 16 // word3: IODE = iode
	sf3Data[7] = uint32(iode) << 16 // word10: IODE = iode

	w1 := buildSubframeWords(1, 1000, sf1Data)
	w2 := buildSubframeWords(2, 1001, sf2Data)
	w3 := buildSubframeWords(3, 1002, sf3Data)

	var bits []int
	bits = append(bits, subframeWordsToBits(w1)...)
	bits = append(bits, subframeWordsToBits(w2)...)
	bits = append(bits, subframeWordsToBits(w3)...)
	// Repeat once more so frame sync has two consecutive 300-bit
	// preambles to confirm against even if the very first window
	// didn't carry enough sign transitions for bit sync confidence.
	bits = append(bits, subframeWordsToBits(w1)...)
	bits = append(bits, subframeWordsToBits(w2)...)
	bits = append(bits, subframeWordsToBits(w3)...)

	store := NewStore()
	dec := NewDecoder(11, store)

	feedRawBitsAsIP(t, dec, bits)

	assert.True(t, dec.BitSynced(), "bit sync should lock over this much periodic data")
	assert.True(t, dec.FrameSynced(), "frame sync should lock over two repeated subframe cycles")

	eph, ok := store.Get(11)
	assert.True(t, ok, "a consistent subframe 1/2/3 triple should have published an ephemeris")
	if ok {
		assert.Equal(t, uint8(iode), eph.IODE)
	}
}
