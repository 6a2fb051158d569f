package navmsg

import "math"

// SubframeID is 1, 2, or 3 (the only ones this receiver decodes, per
// spec.md §1 scope).
type SubframeID int

// HOW carries the handover word fields common to every subframe.
type HOW struct {
	TOWCount   uint32 // truncated TOW count; seconds = TOWCount*6
	Alert      bool
	AntiSpoof  bool
	SubframeID SubframeID
}

// decodeHOW extracts the fields from the HOW word's 24 recovered data
// bits, per spec.md §4.5 ("bits 50-52 of HOW" / "bits 31-47" counted
// from the start of the subframe == bits 20-22 / 1-17 of HOW itself).
func decodeHOW(howData24 uint32) HOW {
	tow := extractBits24(howData24, 1, 17)
	alert := extractBits24(howData24, 18, 1) != 0
	as := extractBits24(howData24, 19, 1) != 0
	id := extractBits24(howData24, 20, 3)
	return HOW{TOWCount: tow, Alert: alert, AntiSpoof: as, SubframeID: SubframeID(id)}
}

// extractBits24 reads a `length`-bit field starting at 1-based bit
// `start` out of a 24-bit data word (bit 1 is the MSB, bit 24 the
// LSB).
func extractBits24(data uint32, start, length int) uint32 {
	shift := 24 - (start - 1) - length
	mask := uint32(1)<<uint(length) - 1
	return (data >> uint(shift)) & mask
}

// subframeData is the 8 decoded 24-bit data words (words 3-10, the
// subframe-specific payload), concatenated conceptually into a
// 192-bit stream addressed 1-based per IS-GPS-200 figures.
type subframeData [8]uint32

func (s subframeData) bits(start, length int) uint32 {
	wordIdx := (start - 1) / 24
	bitInWord := (start-1)%24 + 1

	if bitInWord+length-1 <= 24 {
		return extractBits24(s[wordIdx], bitInWord, length)
	}

	// Field spans a word boundary: split into the high part from this
	// word and the low part from the next.
	highLen := 24 - bitInWord + 1
	lowLen := length - highLen
	high := extractBits24(s[wordIdx], bitInWord, highLen)
	low := extractBits24(s[wordIdx+1], 1, lowLen)
	return (high << uint(lowLen)) | low
}

// signedScaled interprets a `length`-bit field as two's complement
// and scales it by 2^scaleExp.
func signedScaled(raw uint32, length int, scaleExp int) float64 {
	v := int64(raw)
	if raw&(1<<uint(length-1)) != 0 {
		v -= 1 << uint(length)
	}
	return float64(v) * math.Pow(2, float64(scaleExp))
}

func unsignedScaled(raw uint32, scaleExp int) float64 {
	return float64(raw) * math.Pow(2, float64(scaleExp))
}

// Clock holds the broadcast clock correction parameters from
// subframe 1.
type Clock struct {
	WeekNumber  int
	URAIndex    int
	SVHealth    int
	IODC        uint16
	TGD         float64
	Toc         float64
	Af2, Af1    float64
	Af0         float64
}

func decodeSubframe1(d subframeData) Clock {
	week := d.bits(1, 10)
	codeL2 := d.bits(11, 2)
	_ = codeL2
	ura := d.bits(13, 4)
	health := d.bits(17, 6)
	iodcHi := d.bits(23, 2)
	iodcLo := d.bits(121, 8)
	iodc := uint16(iodcHi)<<8 | uint16(iodcLo)

	tgd := signedScaled(d.bits(113, 8), 8, -31)
	toc := unsignedScaled(d.bits(129, 16), 4)
	af2 := signedScaled(d.bits(145, 8), 8, -55)
	af1 := signedScaled(d.bits(153, 16), 16, -43)
	af0 := signedScaled(d.bits(169, 22), 22, -31)

	return Clock{
		WeekNumber: int(week),
		URAIndex:   int(ura),
		SVHealth:   int(health),
		IODC:       iodc,
		TGD:        tgd,
		Toc:        toc,
		Af2:        af2,
		Af1:        af1,
		Af0:        af0,
	}
}

// Orbit1 holds the subframe 2 broadcast orbital elements.
type Orbit1 struct {
	IODE      uint8
	Crs       float64
	DeltaN    float64
	M0        float64
	Cuc       float64
	Ecc       float64
	Cus       float64
	SqrtA     float64
	Toe       float64
	FitFlag   bool
	AODO      int
}

func decodeSubframe2(d subframeData) Orbit1 {
	iode := d.bits(1, 8)
	crs := signedScaled(d.bits(9, 16), 16, -5)
	deltaN := signedScaled(d.bits(25, 16), 16, -43) * math.Pi
	m0 := signedScaled(d.bits(41, 32), 32, -31) * math.Pi
	cuc := signedScaled(d.bits(73, 16), 16, -29)
	ecc := unsignedScaled(d.bits(89, 32), -33)
	cus := signedScaled(d.bits(121, 16), 16, -29)
	sqrtA := unsignedScaled(d.bits(137, 32), -19)
	toe := unsignedScaled(d.bits(169, 16), 4)
	fitFlag := d.bits(185, 1) != 0
	aodo := d.bits(186, 5)

	return Orbit1{
		IODE:    uint8(iode),
		Crs:     crs,
		DeltaN:  deltaN,
		M0:      m0,
		Cuc:     cuc,
		Ecc:     ecc,
		Cus:     cus,
		SqrtA:   sqrtA,
		Toe:     toe,
		FitFlag: fitFlag,
		AODO:    int(aodo),
	}
}

// Orbit2 holds the subframe 3 broadcast orbital elements.
type Orbit2 struct {
	Cic      float64
	Omega0   float64
	Cis      float64
	I0       float64
	Crc      float64
	Omega    float64
	OmegaDot float64
	IODE     uint8
	IDot     float64
}

func decodeSubframe3(d subframeData) Orbit2 {
	cic := signedScaled(d.bits(1, 16), 16, -29)
	omega0 := signedScaled(d.bits(17, 32), 32, -31) * math.Pi
	cis := signedScaled(d.bits(49, 16), 16, -29)
	i0 := signedScaled(d.bits(65, 32), 32, -31) * math.Pi
	crc := signedScaled(d.bits(97, 16), 16, -5)
	omega := signedScaled(d.bits(113, 32), 32, -31) * math.Pi
	omegaDot := signedScaled(d.bits(145, 24), 24, -43) * math.Pi
	iode := d.bits(169, 8)
	idot := signedScaled(d.bits(177, 14), 14, -43) * math.Pi

	return Orbit2{
		Cic:      cic,
		Omega0:   omega0,
		Cis:      cis,
		I0:       i0,
		Crc:      crc,
		Omega:    omega,
		OmegaDot: omegaDot,
		IODE:     uint8(iode),
		IDot:     idot,
	}
}
