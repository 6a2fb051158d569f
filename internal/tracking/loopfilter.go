package tracking

import "math"

// loopFilter is a standard 2nd-order PI tracking loop filter (used
// for both the 1st-order-equivalent DLL, with k=1.0, and the 2nd-
// order PLL, with k=0.25), the same noise-bandwidth-parameterized
// design used throughout the open-source software-GPS-receiver
// literature (Borre et al.). It tracks the previous discriminator
// value so it can form the PI combination each tick.
type loopFilter struct {
	tau1, tau2 float64
	prevError  float64
	integ      float64 // Hz or chips/sec worth of accumulated rate
}

// newLoopFilter builds a loop filter for noise bandwidth bwHz,
// damping zeta (0.707 is critically-damped-ish and standard here),
// and gain constant k (0.25 for a 2nd-order PLL, 1.0 for the DLL).
func newLoopFilter(bwHz, zeta, k float64) *loopFilter {
	wn := bwHz * 8 * zeta / (4*zeta*zeta + 1)
	return &loopFilter{
		tau1: k / (wn * wn),
		tau2: 2 * zeta / wn,
	}
}

// setBandwidth re-tunes an in-flight loop filter (used for the
// PULL_IN -> TRACK_LOCKED bandwidth narrowing in spec.md §4.4)
// without resetting its accumulated rate.
func (f *loopFilter) setBandwidth(bwHz, zeta, k float64) {
	wn := bwHz * 8 * zeta / (4*zeta*zeta + 1)
	f.tau1 = k / (wn * wn)
	f.tau2 = 2 * zeta / wn
}

// update feeds in the current discriminator value (sampled every
// integrationSec seconds, 1ms on the hot path) and returns the rate
// correction to add to the NCO's rate.
func (f *loopFilter) update(discriminator, integrationSec float64) float64 {
	f.integ += (f.tau2/f.tau1)*(discriminator-f.prevError) + discriminator*(integrationSec/f.tau1)
	f.prevError = discriminator
	return f.integ
}

// emaSmoother is a single-pole exponential moving average used by the
// lock detectors (spec.md §4.4 "smoothed").
type emaSmoother struct {
	alpha, value float64
	initialized  bool
}

func newEMA(alpha float64) *emaSmoother { return &emaSmoother{alpha: alpha} }

func (e *emaSmoother) update(x float64) float64 {
	if !e.initialized {
		e.value = x
		e.initialized = true
		return e.value
	}
	e.value = e.alpha*x + (1-e.alpha)*e.value
	return e.value
}

// discCodeDLL is the normalized non-coherent early-minus-late power
// discriminator from spec.md §4.4.
func discCodeDLL(ie, qe, il, ql float64) float64 {
	e := ie*ie + qe*qe
	l := il*il + ql*ql
	if e+l == 0 {
		return 0
	}
	return (e - l) / (e + l)
}

// discCarrierCostas is the four-quadrant-arctangent Costas
// discriminator from spec.md §4.4.
func discCarrierCostas(ip, qp float64) float64 {
	if ip == 0 && qp == 0 {
		return 0
	}
	return math.Atan2(qp, ip)
}

// discCarrierFLL is the decision-directed cross/dot frequency
// discriminator from spec.md §4.4's pull-in FLL assist: the
// differential phase between two successive prompt samples, scaled
// by the integration time to read out directly in Hz.
func discCarrierFLL(prevIP, prevQP, ip, qp, integrationSec float64) float64 {
	cross := prevIP*qp - ip*prevQP
	dot := prevIP*ip + prevQP*qp
	if cross == 0 && dot == 0 {
		return 0
	}
	return math.Atan2(cross, dot) / integrationSec
}
