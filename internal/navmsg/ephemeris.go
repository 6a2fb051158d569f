package navmsg

import (
	"sync"

	"github.com/doismellburning/gnssrecv/internal/gnsserr"
	"github.com/doismellburning/gnssrecv/internal/logging"
)

// Ephemeris is the broadcast orbit and clock model for one PRN,
// assembled from a matching subframe 1/2/3 triple (spec.md §3/§4.5).
type Ephemeris struct {
	PRN int

	WeekNumber int
	URAIndex   int
	SVHealth   int
	IODC       uint16
	TGD        float64
	Toc        float64
	Af2, Af1, Af0 float64

	IODE    uint8
	Crs     float64
	DeltaN  float64
	M0      float64
	Cuc     float64
	Ecc     float64
	Cus     float64
	SqrtA   float64
	Toe     float64
	FitFlag bool

	Cic      float64
	Omega0   float64
	Cis      float64
	I0       float64
	Crc      float64
	Omega    float64
	OmegaDot float64
	IDot     float64
}

// assembler collects subframes 1, 2, and 3 for a single PRN and emits
// an Ephemeris only once all three agree on IODE/IODC, per spec.md
// invariant 5 and invariant (c): a stale or half-updated set is never
// surfaced.
type assembler struct {
	prn int

	haveSF1, haveSF2, haveSF3 bool
	sf1                       Clock
	sf2                       Orbit1
	sf3                       Orbit2
}

func newAssembler(prn int) *assembler {
	return &assembler{prn: prn}
}

// addSubframe ingests one parity-clean subframe's HOW and 8 data
// words. It returns a completed Ephemeris once subframes 1-3 are all
// present and their IODE/IODC values cross-check.
func (a *assembler) addSubframe(how HOW, data subframeData) (Ephemeris, bool) {
	switch how.SubframeID {
	case 1:
		a.sf1 = decodeSubframe1(data)
		a.haveSF1 = true
	case 2:
		a.sf2 = decodeSubframe2(data)
		a.haveSF2 = true
	case 3:
		a.sf3 = decodeSubframe3(data)
		a.haveSF3 = true
	default:
		return Ephemeris{}, false
	}

	if !a.haveSF1 || !a.haveSF2 || !a.haveSF3 {
		return Ephemeris{}, false
	}

	iodcLow8 := uint8(a.sf1.IODC & 0xFF)
	if iodcLow8 != a.sf2.IODE || iodcLow8 != a.sf3.IODE || a.sf2.IODE != a.sf3.IODE {
		// Mismatched issue-of-data: one of the three subframes is
		// stale relative to the others. Drop subframe 1 so the next
		// complete, consistent triple is required before re-emitting
		// (spec.md invariant 5).
		logging.Warnf("navmsg: PRN %02d: %v (IODC=%#x IODE2=%#x IODE3=%#x)",
			a.prn, gnsserr.ErrSubframeMismatch, iodcLow8, a.sf2.IODE, a.sf3.IODE)
		a.haveSF1 = false
		return Ephemeris{}, false
	}

	eph := Ephemeris{
		PRN:        a.prn,
		WeekNumber: a.sf1.WeekNumber,
		URAIndex:   a.sf1.URAIndex,
		SVHealth:   a.sf1.SVHealth,
		IODC:       a.sf1.IODC,
		TGD:        a.sf1.TGD,
		Toc:        a.sf1.Toc,
		Af2:        a.sf1.Af2,
		Af1:        a.sf1.Af1,
		Af0:        a.sf1.Af0,

		IODE:    a.sf2.IODE,
		Crs:     a.sf2.Crs,
		DeltaN:  a.sf2.DeltaN,
		M0:      a.sf2.M0,
		Cuc:     a.sf2.Cuc,
		Ecc:     a.sf2.Ecc,
		Cus:     a.sf2.Cus,
		SqrtA:   a.sf2.SqrtA,
		Toe:     a.sf2.Toe,
		FitFlag: a.sf2.FitFlag,

		Cic:      a.sf3.Cic,
		Omega0:   a.sf3.Omega0,
		Cis:      a.sf3.Cis,
		I0:       a.sf3.I0,
		Crc:      a.sf3.Crc,
		Omega:    a.sf3.Omega,
		OmegaDot: a.sf3.OmegaDot,
		IDot:     a.sf3.IDot,
	}

	a.haveSF1, a.haveSF2, a.haveSF3 = false, false, false
	return eph, true
}

// Store is the single-writer, multi-reader ephemeris cache described
// in spec.md §9: one assembler and one published Ephemeris per PRN,
// with readers never seeing a partially-updated set.
type Store struct {
	mu         sync.RWMutex
	assemblers map[int]*assembler
	current    map[int]Ephemeris
}

func NewStore() *Store {
	return &Store{
		assemblers: make(map[int]*assembler),
		current:    make(map[int]Ephemeris),
	}
}

// Ingest decodes a subframe's 10 raw 30-bit words for the given PRN,
// chaining D29*/D30* parity context word-to-word starting from
// prevD29/prevD30 (as returned by FrameSynchronizer.NextSubframeWords).
// Once a consistent subframe 1/2/3 triple is available it publishes a
// new Ephemeris. Per spec.md invariant 4, a parity failure on any one
// word discards only this subframe: the assembler's other
// already-accepted subframes are left untouched. A HOW referencing a
// subframe ID outside 1-3 is ignored, since this receiver does not
// decode almanac pages.
func (s *Store) Ingest(prn int, words [WordsPerSubframe]uint32, prevD29, prevD30 bool) error {
	var data [WordsPerSubframe]uint32
	d29, d30 := prevD29, prevD30
	for i, w := range words {
		src, ok := DecodeWord(w, d29, d30)
		if !ok {
			return gnsserr.ErrParityFailure
		}
		data[i] = src
		d29, d30 = LastTwoBits(w)
	}

	how := decodeHOW(data[1])
	var sfData subframeData
	for i := 0; i < 8; i++ {
		sfData[i] = data[2+i]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assemblers[prn]
	if !ok {
		a = newAssembler(prn)
		s.assemblers[prn] = a
	}

	if eph, done := a.addSubframe(how, sfData); done {
		s.current[prn] = eph
	}
	return nil
}

// Get returns the most recently published, internally-consistent
// Ephemeris for prn.
func (s *Store) Get(prn int) (Ephemeris, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.current[prn]
	return e, ok
}
