package navmsg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBits24(t *testing.T) {
	// 0b1010_1100_... top byte 0xAC, rest zero.
	data := uint32(0xAC) << 16
	assert.Equal(t, uint32(0xAC), extractBits24(data, 1, 8))
	assert.Equal(t, uint32(1), extractBits24(data, 1, 1))
	assert.Equal(t, uint32(0), extractBits24(data, 9, 1))
}

func TestSubframeDataBitsSpansWordBoundary(t *testing.T) {
	var d subframeData
	d[0] = 0x0000FF // low 8 bits set: bits 17-24
	d[1] = 0xFF0000 // high 8 bits set: bits 1-8 of the next word

	// A 16-bit field straddling the two words, bits 17 (word0) through
	// bit 8 (word1), should read as all ones.
	got := d.bits(17, 16)
	assert.Equal(t, uint32(0xFFFF), got)
}

func TestSignedScaled(t *testing.T) {
	assert.Equal(t, 5.0, signedScaled(5, 8, 0))
	assert.Equal(t, -1.0, signedScaled(0xFF, 8, 0))
	assert.Equal(t, -128.0, signedScaled(0x80, 8, 0))
	assert.InDelta(t, -5*math.Pow(2, -31), signedScaled(251, 8, -31), 1e-20)
}

func TestDecodeHOW(t *testing.T) {
	// TOW count = 12345 (17 bits), alert=1, AS=0, subframe id=2 (3 bits).
	how := uint32(12345)<<7 | uint32(1)<<6 | uint32(0)<<5 | uint32(2)<<2
	got := decodeHOW(how)
	assert.Equal(t, uint32(12345), got.TOWCount)
	assert.True(t, got.Alert)
	assert.False(t, got.AntiSpoof)
	assert.Equal(t, SubframeID(2), got.SubframeID)
}

func TestDecodeSubframe1(t *testing.T) {
	const (
		week    = 513
		codeL2  = 1
		ura     = 5
		health  = 0
		iodcHi  = 2
		iodcLo  = 7
		tgdRaw  = 251 // -5 in 8-bit two's complement
		tocRaw  = 1000
		af2Raw  = 254 // -2 in 8-bit two's complement
		af1Raw  = 1234
		af0Raw  = 4181959 // -12345 in 22-bit two's complement
	)

	var d subframeData
	d[0] = uint32(week)<<14 | uint32(codeL2)<<12 | uint32(ura)<<8 | uint32(health)<<2 | uint32(iodcHi)
	d[4] = uint32(tgdRaw)
	d[5] = uint32(iodcLo)<<16 | uint32(tocRaw)
	d[6] = uint32(af2Raw)<<16 | uint32(af1Raw)
	d[7] = uint32(af0Raw) << 2

	clock := decodeSubframe1(d)

	assert.Equal(t, week, clock.WeekNumber)
	assert.Equal(t, ura, clock.URAIndex)
	assert.Equal(t, health, clock.SVHealth)
	assert.Equal(t, uint16(iodcHi<<8|iodcLo), clock.IODC)
	assert.InDelta(t, -5*math.Pow(2, -31), clock.TGD, 1e-20)
	assert.InDelta(t, float64(tocRaw)*16, clock.Toc, 1e-9)
	assert.InDelta(t, -2*math.Pow(2, -55), clock.Af2, 1e-25)
	assert.InDelta(t, float64(af1Raw)*math.Pow(2, -43), clock.Af1, 1e-20)
	assert.InDelta(t, -12345*math.Pow(2, -31), clock.Af0, 1e-15)
}

func TestDecodeSubframe2IODEAndEccentricity(t *testing.T) {
	var d subframeData
	d[0] = uint32(166) << 16 // IODE=166 in top 8 bits of word3, Crs=0
	// e split across word6 low 8 bits and word7 all 24 bits.
	const eccRaw uint32 = 0x0123ABCD
	eccHi := (eccRaw >> 24) & 0xFF
	eccLo := eccRaw & 0xFFFFFF
	d[3] = eccHi
	d[4] = eccLo

	orbit := decodeSubframe2(d)
	assert.Equal(t, uint8(166), orbit.IODE)
	assert.InDelta(t, float64(eccRaw)*math.Pow(2, -33), orbit.Ecc, 1e-12)
}

func TestDecodeSubframe3IODEAndCic(t *testing.T) {
	var d subframeData
	d[0] = uint32(0x8000) << 8 // Cic = 0x8000 (negative, sign bit set) in top 16 bits
	d[7] = uint32(77) << 16    // IODE = 77 in top 8 bits of word10

	orbit := decodeSubframe3(d)
	assert.Equal(t, uint8(77), orbit.IODE)
	assert.InDelta(t, signedScaled(0x8000, 16, -29), orbit.Cic, 1e-20)
}
