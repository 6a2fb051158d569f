package tracking

import "math"

// carrierNCO generates the local carrier replica used to wipe off
// Doppler + any intermediate frequency; its phase is radians mod 2*pi
// per spec.md invariant (b).
type carrierNCO struct {
	Phase float64 // radians
	Rate  float64 // Hz
}

func (n *carrierNCO) advance(fs float64, samples int) {
	n.Phase += 2 * math.Pi * n.Rate * float64(samples) / fs
	n.Phase = math.Mod(n.Phase, 2*math.Pi)
	if n.Phase < 0 {
		n.Phase += 2 * math.Pi
	}
}

// phaseAt returns the carrier phase at the given sample offset within
// the current 1 ms window, without mutating state.
func (n *carrierNCO) phaseAt(fs float64, sampleOffset int) float64 {
	return n.Phase + 2*math.Pi*n.Rate*float64(sampleOffset)/fs
}

// codeNCO tracks code phase in chips, mod replica.CodeLength per
// spec.md invariant (b).
type codeNCO struct {
	PhaseChips float64
	RateChips  float64 // chips/sec
}

func (n *codeNCO) advance(fs float64, samples int, codeLength float64) {
	n.PhaseChips += n.RateChips * float64(samples) / fs
	n.PhaseChips = math.Mod(n.PhaseChips, codeLength)
	if n.PhaseChips < 0 {
		n.PhaseChips += codeLength
	}
}
