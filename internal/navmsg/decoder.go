package navmsg

import "math"

// codeLengthChips is the GPS C/A code length, used only for the
// fractional-chip term of the transmit time estimate (spec.md §4.6).
const codeLengthChips = 1023.0

// Decoder is the full per-channel navigation message pipeline: bit
// sync, bit integration, frame sync, and ephemeris assembly, wired the
// way spec.md §4.5 lays out the stage sequence. One Decoder runs per
// tracked PRN.
type Decoder struct {
	prn int

	bitSync    *BitSynchronizer
	integrator *BitIntegrator
	frameSync  *FrameSynchronizer
	store      *Store

	tick int

	haveEpoch      bool
	epochSeconds   float64
	bitsSinceEpoch int
}

func NewDecoder(prn int, store *Store) *Decoder {
	return &Decoder{
		prn:       prn,
		bitSync:   NewBitSynchronizer(),
		frameSync: NewFrameSynchronizer(),
		store:     store,
	}
}

// Feed processes one ms of prompt in-phase correlator output. It
// returns true the instant a new subframe was accepted and ingested
// into the ephemeris store (a parity failure on that subframe is
// reported via the returned error, per spec.md invariant 4 — the
// decoder keeps running either way).
func (d *Decoder) Feed(ip float64) (subframeAccepted bool, err error) {
	if !d.bitSync.Synced() {
		d.bitSync.Feed(ip)
		if d.bitSync.Synced() {
			d.integrator = NewBitIntegrator(d.bitSync.Offset())
		}
		d.tick++
		return false, nil
	}

	bit, ok := d.integrator.Feed(d.tick, ip)
	d.tick++
	if !ok {
		return false, nil
	}

	if d.haveEpoch {
		d.bitsSinceEpoch++
	}

	d.frameSync.AddBit(bit)
	if !d.frameSync.Synced() {
		return false, nil
	}

	words, prevD29, prevD30, ok := d.frameSync.NextSubframeWords()
	if !ok {
		return false, nil
	}

	// The HOW's TOW count is, by definition, the time of the leading
	// edge of the *next* subframe — which is exactly the bit stream
	// position we're at now that this subframe's 300 bits have all
	// arrived. Recovering it here (even if downstream parity on the
	// data words fails) keeps the transmit-time clock running.
	if tlmSrc, ok := DecodeWord(words[0], prevD29, prevD30); ok {
		_ = tlmSrc
		d29, d30 := LastTwoBits(words[0])
		if howSrc, ok := DecodeWord(words[1], d29, d30); ok {
			how := decodeHOW(howSrc)
			d.epochSeconds = float64(how.TOWCount) * 6.0
			d.bitsSinceEpoch = 0
			d.haveEpoch = true
		}
	}

	if ingestErr := d.store.Ingest(d.prn, words, prevD29, prevD30); ingestErr != nil {
		return false, ingestErr
	}
	return true, nil
}

// FrameSynced reports whether the decoder has locked onto the 6 s
// subframe cadence.
func (d *Decoder) FrameSynced() bool { return d.frameSync.Synced() }

// BitSynced reports whether the 20 ms data-bit boundary has been
// found.
func (d *Decoder) BitSynced() bool { return d.bitSync.Synced() }

// TransmitTime estimates t_tx (spec.md §4.6): the TOW of the last
// decoded HOW, plus whole nav bits elapsed since, plus the current
// in-bit millisecond count, plus the fractional code phase scaled to
// a 1 ms code epoch. ok is false until at least one HOW has been
// recovered.
func (d *Decoder) TransmitTime(codePhaseChips float64) (seconds float64, ok bool) {
	if !d.haveEpoch {
		return 0, false
	}
	msSinceBit := 0
	if d.integrator != nil {
		msSinceBit = d.integrator.Elapsed()
	}
	fracChips := math.Mod(codePhaseChips, codeLengthChips) / codeLengthChips
	t := d.epochSeconds + float64(d.bitsSinceEpoch)*0.020 + float64(msSinceBit)*0.001 + fracChips*0.001
	return t, true
}
