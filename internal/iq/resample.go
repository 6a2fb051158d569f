package iq

import "math"

// Resampler converts an input stream at InRate to the Conditioner's
// target Fs using a windowed-sinc polyphase interpolator, the same
// windowed-sinc-kernel idiom the receiver uses to build its own
// lowpass/bandpass filter taps (gen_lowpass/gen_bandpass) — here
// evaluated at an arbitrary fractional tap offset per output sample
// rather than baked into a fixed-length FIR, since the input/output
// rate ratio need not be a small rational number.
//
// Open question per spec.md §9: the minimum supported input rate is
// left open; this implementation places no floor on it, but accuracy
// away from a near-multiple of 2.046 MHz is unverified.
type Resampler struct {
	inRate, outRate float64
	halfWidth       int // taps considered on each side of the center

	history []Sample // ring of recent input samples for interpolation
	histLen int
	inPos   float64 // fractional input-sample position of the next output sample
	filled  int
}

const defaultHalfWidth = 8

// NewResampler builds a resampler converting from inRate to outRate.
// If the rates are equal it is still safe to use (a no-op pass
// through, handled by the Conditioner without constructing one).
func NewResampler(inRate, outRate float64) *Resampler {
	hw := defaultHalfWidth
	return &Resampler{
		inRate:    inRate,
		outRate:   outRate,
		halfWidth: hw,
		history:   make([]Sample, 2*hw+4),
	}
}

// kernel evaluates a Blackman-windowed sinc at fractional tap
// offset t (in input-sample units), band-limited to the lower of the
// two rates to act as an anti-alias filter on downsampling.
func (r *Resampler) kernel(t float64) float64 {
	cutoff := 1.0
	if r.outRate < r.inRate {
		cutoff = r.outRate / r.inRate
	}

	x := t * cutoff
	var sinc float64
	if math.Abs(x) < 1e-9 {
		sinc = 1.0
	} else {
		sinc = math.Sin(math.Pi*x) / (math.Pi * x)
	}

	w := t / float64(r.halfWidth)
	if w < -1 || w > 1 {
		return 0
	}
	// Blackman window, same coefficients as gen_bandpass's BP_WINDOW_BLACKMAN.
	win := 0.42 + 0.5*math.Cos(math.Pi*w) + 0.08*math.Cos(2*math.Pi*w)
	return sinc * cutoff * win
}

// Push feeds one input sample into the history ring.
func (r *Resampler) push(s Sample) {
	copy(r.history, r.history[1:])
	r.history[len(r.history)-1] = s
	if r.filled < len(r.history) {
		r.filled++
	}
}

// interpolate produces the output sample for a fractional offset
// (0 = most recently pushed sample) back into history.
func (r *Resampler) interpolate(frac float64) Sample {
	var accI, accQ float64
	n := len(r.history)
	center := n - 1 // index of most recent sample
	for k := -r.halfWidth; k <= r.halfWidth; k++ {
		idx := center - k
		if idx < 0 || idx >= n {
			continue
		}
		tap := r.kernel(float64(k) - frac)
		accI += float64(r.history[idx].I) * tap
		accQ += float64(r.history[idx].Q) * tap
	}
	return Sample{I: float32(accI), Q: float32(accQ)}
}

// Resample consumes all of in, appending resampled output samples to
// out, and returns the extended slice. Call repeatedly across block
// boundaries; internal phase carries over.
func (r *Resampler) Resample(in []Sample, out []Sample) []Sample {
	ratio := r.inRate / r.outRate // input samples consumed per output sample

	for _, s := range in {
		r.push(s)
		r.inPos -= 1

		// inPos tracks, in input-sample units, how far past the newest
		// pushed input sample the next output sample's ideal position
		// is. Every output whose position has "arrived" (<= 0) is
		// emitted right after the input sample that reached it, while
		// its neighbourhood is still in the history ring, stepping by
		// ratio afterward.
		for r.inPos <= 0 {
			out = append(out, r.interpolate(-r.inPos))
			r.inPos += ratio
		}
	}
	return out
}
