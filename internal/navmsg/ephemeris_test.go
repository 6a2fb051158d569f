package navmsg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSubframeWords encodes one full GPS subframe (TLM, HOW, and 8
// data words) into raw 30-bit transmitted words, chaining D29*/D30*
// starting from (false, false).
func buildSubframeWords(subframeID int, towCount uint32, data [8]uint32) [WordsPerSubframe]uint32 {
	tlmData := uint32(Preamble) << 16
	howData := towCount<<7 | uint32(subframeID)<<2

	var source [WordsPerSubframe]uint32
	source[0] = tlmData
	source[1] = howData
	for i := 0; i < 8; i++ {
		source[2+i] = data[i]
	}

	var words [WordsPerSubframe]uint32
	prevD29, prevD30 := false, false
	for i, d := range source {
		words[i] = EncodeWord(d, prevD29, prevD30)
		prevD29, prevD30 = LastTwoBits(words[i])
	}
	return words
}

func TestStoreIngestPublishesEphemerisOnMatchingIODEIODC(t *testing.T) {
	store := NewStore()

	const iode = 166

	// Build subframe 1 data words directly matching decodeSubframe1's
	// layout, with IODC's low 8 bits equal to iode.
	var sf1Data [8]uint32
	sf1Data[5] = uint32(iode) << 16 // word8: IODC-low (top 8 bits) = iode, toc=0

	var sf2Data [8]uint32
	sf2Data[0] = uint32(iode) << 16 // word3: IODE (top 8 bits) = iode

	var sf3Data [8]uint32
	sf3Data[7] = uint32(iode) << 16 // word10: IODE (top 8 bits) = iode

	words1 := buildSubframeWords(1, 1000, sf1Data)
	words2 := buildSubframeWords(2, 1001, sf2Data)
	words3 := buildSubframeWords(3, 1002, sf3Data)

	require.NoError(t, store.Ingest(5, words1, false, false))
	_, ok := store.Get(5)
	assert.False(t, ok, "must not publish until all three subframes agree")

	require.NoError(t, store.Ingest(5, words2, false, false))
	_, ok = store.Get(5)
	assert.False(t, ok)

	require.NoError(t, store.Ingest(5, words3, false, false))
	eph, ok := store.Get(5)
	require.True(t, ok, "subframe 1+2+3 with matching IODE/IODC must publish")
	assert.Equal(t, 5, eph.PRN)
	assert.Equal(t, uint8(iode), eph.IODE)
}

func TestStoreIngestRejectsMismatchedIODE(t *testing.T) {
	store := NewStore()

	var sf1Data [8]uint32
	sf1Data[5] = uint32(10) << 16 // word8: IODC-low = 10

	var sf2Data [8]uint32
	sf2Data[0] = uint32(20) << 16 // IODE = 20, mismatched

	var sf3Data [8]uint32
	sf3Data[7] = uint32(20) << 16

	words1 := buildSubframeWords(1, 1000, sf1Data)
	words2 := buildSubframeWords(2, 1001, sf2Data)
	words3 := buildSubframeWords(3, 1002, sf3Data)

	require.NoError(t, store.Ingest(7, words1, false, false))
	require.NoError(t, store.Ingest(7, words2, false, false))
	require.NoError(t, store.Ingest(7, words3, false, false))

	_, ok := store.Get(7)
	assert.False(t, ok, "mismatched IODE/IODC must never publish")
}

func TestStoreIngestRejectsCorruptedWord(t *testing.T) {
	store := NewStore()

	var sf1Data [8]uint32
	words1 := buildSubframeWords(1, 1000, sf1Data)
	words1[4] ^= 1 << 10 // corrupt a data bit in a subframe word

	err := store.Ingest(9, words1, false, false)
	assert.Error(t, err)
}
