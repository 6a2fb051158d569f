package tracking

import "math"

// lockDetectors holds the running carrier/code lock indicators from
// spec.md §4.4: carrier lock via the normalized power ratio, code
// lock via a narrowband/wideband CN0 estimate over the last 200 ms.
type lockDetectors struct {
	carrier      *emaSmoother
	cn0Window    []float64 // ring of recent narrowband/wideband power ratios
	cn0Idx       int
	cn0Filled    int
	lastCarrierOK bool
	lastCodeOK    bool
	carrierBadMs  int
	codeBadMs     int
}

const cn0WindowMs = 200
const carrierLockThreshold = 0.5
const codeLockThresholdDbHz = 35.0

func newLockDetectors() *lockDetectors {
	return &lockDetectors{
		carrier:   newEMA(0.01),
		cn0Window: make([]float64, cn0WindowMs),
	}
}

// updateCarrier feeds one ms of prompt correlator power into the
// carrier lock detector and returns whether it currently reads
// locked.
func (l *lockDetectors) updateCarrier(ip, qp float64) bool {
	num := ip*ip - qp*qp
	den := ip*ip + qp*qp
	var cl float64
	if den != 0 {
		cl = num / den
	}
	smoothed := l.carrier.update(cl)
	ok := smoothed > carrierLockThreshold
	l.lastCarrierOK = ok
	return ok
}

// updateCN0 feeds one ms of narrowband (coherent prompt power) and
// wideband (sum of E/P/L power) estimates into the 200 ms CN0
// estimator and returns the current CN0 in dB-Hz along with whether
// it's above the code-lock threshold.
func (l *lockDetectors) updateCN0(narrowband, wideband float64) (float64, bool) {
	var ratio float64
	if wideband > 0 {
		ratio = narrowband / wideband
	}
	l.cn0Window[l.cn0Idx] = ratio
	l.cn0Idx = (l.cn0Idx + 1) % len(l.cn0Window)
	if l.cn0Filled < len(l.cn0Window) {
		l.cn0Filled++
	}

	var sum float64
	for i := 0; i < l.cn0Filled; i++ {
		sum += l.cn0Window[i]
	}
	mean := sum / float64(l.cn0Filled)

	// Narrowband/wideband power ratio -> approximate CN0 in dB-Hz.
	// This is the standard NWPR CN0 estimator shape (a monotonic
	// mapping of the ratio through a log). The ratio is at most 1,
	// which reads 40 dB-Hz; a clean signal whose early and late arms
	// each carry half the prompt amplitude (ratio about 0.67) reads
	// about 38 dB-Hz.
	cn0 := 10*log10(mean*1000) + 10
	ok := cn0 > codeLockThresholdDbHz
	l.lastCodeOK = ok
	return cn0, ok
}

func log10(x float64) float64 {
	if x <= 0 {
		return -300
	}
	return math.Log10(x)
}
