package navmsg

// Preamble is the 8-bit TLM preamble, 0x8B, per spec.md §4.5.
const Preamble byte = 0x8B

// WordsPerSubframe / SubframeBits are the GPS subframe dimensions:
// 10 words of 30 bits each = 300 bits = 6 s at 50 bps.
const WordsPerSubframe = 10
const SubframeBits = WordsPerSubframe * WordBits

// FrameSynchronizer accumulates the +-1 bit stream coming out of the
// BitIntegrator and finds the 300-bit (6 s) TLM preamble cadence,
// confirming with TLM/HOW parity and resolving the 180 degree PLL
// phase ambiguity (spec.md §4.5), the same "pattern-detector over a
// raw bit stream, validated before acceptance" structure the
// receiver's own hdlc_rec.go uses for its flag/preamble detector.
type FrameSynchronizer struct {
	bits []int // 0/1, raw as received (pre-inversion-resolution)

	candidateOffset int
	haveCandidate   bool
	synced          bool
	inverted        bool
	frameOffset     int // bit index (within bits, modulo trimming) of a confirmed subframe start
}

func NewFrameSynchronizer() *FrameSynchronizer {
	return &FrameSynchronizer{}
}

// AddBit appends one raw nav bit (NavBit.Value, +1 or -1) to the
// internal buffer and re-runs preamble detection at the new tail.
func (f *FrameSynchronizer) AddBit(bit NavBit) {
	v := 0
	if bit.Value == -1 {
		v = 1
	}
	f.bits = append(f.bits, v)

	if !f.synced {
		f.scanForPreamble()
	}

	// Keep enough history for two subframes plus the two-bit parity
	// context before the first word; trim the rest.
	const keep = 2*SubframeBits + 64
	if len(f.bits) > keep {
		drop := len(f.bits) - keep
		f.bits = f.bits[drop:]
		if f.haveCandidate {
			f.candidateOffset -= drop
		}
		if f.synced {
			f.frameOffset -= drop
		}
	}
}

func bitsToWord(bits []int, inverted bool) uint32 {
	var w uint32
	for _, b := range bits {
		bb := b
		if inverted {
			bb = 1 - bb
		}
		w = (w << 1) | uint32(bb)
	}
	return w
}

// tryWordsAt decodes the TLM and HOW words starting at bit offset p,
// assuming p-2 and p-1 hold the previous word's D29*/D30*. Returns
// ok=false if either word fails parity.
func (f *FrameSynchronizer) tryWordsAt(p int, inverted bool) (tlm, how uint32, ok bool) {
	if p < 2 || p+2*WordBits > len(f.bits) {
		return 0, 0, false
	}

	prevD29 := f.bits[p-2] == 1
	prevD30 := f.bits[p-1] == 1
	if inverted {
		prevD29 = !prevD29
		prevD30 = !prevD30
	}

	tlmRaw := bitsToWord(f.bits[p:p+WordBits], inverted)
	_, tlmOK := DecodeWord(tlmRaw, prevD29, prevD30)
	if !tlmOK {
		return 0, 0, false
	}

	d29, d30 := LastTwoBits(tlmRaw)
	howRaw := bitsToWord(f.bits[p+WordBits:p+2*WordBits], inverted)
	_, howOK := DecodeWord(howRaw, d29, d30)
	if !howOK {
		return 0, 0, false
	}

	return tlmRaw, howRaw, true
}

func (f *FrameSynchronizer) scanForPreamble() {
	n := len(f.bits)
	if n < 2*WordBits {
		return
	}
	// Only the newest preamble start whose TLM and HOW words have both
	// fully arrived needs checking; every earlier start was checked when
	// its own HOW completed.
	p := n - 2*WordBits

	for _, inverted := range []bool{false, true} {
		candidate := byte(0)
		for i := 0; i < 8; i++ {
			b := f.bits[p+i]
			if inverted {
				b = 1 - b
			}
			candidate = (candidate << 1) | byte(b)
		}
		if candidate != Preamble {
			continue
		}

		if _, _, ok := f.tryWordsAt(p, inverted); !ok {
			continue
		}

		if f.haveCandidate && f.inverted == inverted && p-f.candidateOffset == SubframeBits {
			f.synced = true
			f.inverted = inverted
			f.frameOffset = f.candidateOffset
			return
		}

		f.haveCandidate = true
		f.inverted = inverted
		f.candidateOffset = p
	}
}

// Synced reports whether two consecutive valid preambles 300 bits
// apart have been observed.
func (f *FrameSynchronizer) Synced() bool { return f.synced }

// Inverted reports whether the incoming bit stream is 180 degrees
// out of phase and must be complemented before use.
func (f *FrameSynchronizer) Inverted() bool { return f.inverted }

// NextSubframeWords returns the 10 raw 30-bit words of the subframe
// starting at the most recently confirmed frame offset, plus the
// D29*/D30* context (the previous word's last two bits, polarity
// already resolved) a caller needs to start parity-decoding word 1.
// It advances frameOffset by one subframe, or returns ok=false if not
// enough bits have arrived yet.
func (f *FrameSynchronizer) NextSubframeWords() (words [WordsPerSubframe]uint32, prevD29, prevD30, ok bool) {
	if !f.synced || f.frameOffset < 2 || f.frameOffset+SubframeBits > len(f.bits) {
		return words, false, false, false
	}
	ctxBit := func(i int) bool {
		v := f.bits[f.frameOffset-2+i]
		if f.inverted {
			v = 1 - v
		}
		return v == 1
	}
	prevD29, prevD30 = ctxBit(0), ctxBit(1)
	for i := 0; i < WordsPerSubframe; i++ {
		start := f.frameOffset + i*WordBits
		words[i] = bitsToWord(f.bits[start:start+WordBits], f.inverted)
	}
	f.frameOffset += SubframeBits
	return words, prevD29, prevD30, true
}
