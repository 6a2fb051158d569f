package replica

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Entry is one PRN's precomputed replica: its code upsampled to N
// samples at Fs (nearest-chip sampling, complex ±1+0j) and that
// sequence's forward DFT, cached so acquisition never recomputes it.
type Entry struct {
	PRN    int
	Fs     float64
	N      int
	Time   []complex128 // length N, time-domain replica
	Freq   []complex128 // length N, FFT(Time) — consumed pre-conjugated by users
	fftLen int
}

// Bank is the read-only, shared table of replicas for every requested
// PRN, built once at startup (spec.md §4.2) and safe for concurrent
// read access from every acquisition worker and channel afterward.
type Bank struct {
	fft     *fourier.CmplxFFT
	entries map[int]*Entry
	fs      float64
	n       int
}

// NewBank builds replicas for the given PRNs (1..32) at sample rate
// fs, sharing a single FFT plan across all of them per spec.md §9
// "FFT plan caching".
func NewBank(prns []int, fs float64) *Bank {
	n := int(fs/1000 + 0.5)
	b := &Bank{
		fft:     fourier.NewCmplxFFT(n),
		entries: make(map[int]*Entry, len(prns)),
		fs:      fs,
		n:       n,
	}
	for _, prn := range prns {
		b.entries[prn] = b.build(prn)
	}
	return b
}

func (b *Bank) build(prn int) *Entry {
	chips := Chips(prn)
	samplesPerChip := float64(b.n) / float64(CodeLength)

	td := make([]complex128, b.n)
	for i := 0; i < b.n; i++ {
		chipIdx := int(float64(i) / samplesPerChip)
		if chipIdx >= CodeLength {
			chipIdx = CodeLength - 1
		}
		td[i] = complex(float64(chips[chipIdx]), 0)
	}

	fd := make([]complex128, b.n)
	copy(fd, td)
	b.fft.Coefficients(fd, fd)

	return &Entry{PRN: prn, Fs: b.fs, N: b.n, Time: td, Freq: fd, fftLen: b.n}
}

// Get returns the replica for prn, building it on demand (and caching
// it) if it wasn't in the initial PRN set.
func (b *Bank) Get(prn int) *Entry {
	if e, ok := b.entries[prn]; ok {
		return e
	}
	e := b.build(prn)
	b.entries[prn] = e
	return e
}

// N is the block length (samples per 1 ms) this bank was built for.
func (b *Bank) N() int { return b.n }

// Fs is the sample rate this bank was built for.
func (b *Bank) Fs() float64 { return b.fs }

// FFT exposes the shared plan so callers (acquisition) can transform
// their own received blocks with the same length/normalization.
func (b *Bank) FFT() *fourier.CmplxFFT { return b.fft }

// Correlate performs circular cross-correlation via FFT: IFFT(FFT(x) *
// conj(FFT(replica))), returning the complex correlation sequence
// whose magnitude-squared is the acquisition correlation surface for
// one Doppler bin.
func (b *Bank) Correlate(mixedFreq []complex128, e *Entry) []complex128 {
	n := len(mixedFreq)
	prod := make([]complex128, n)
	for i := 0; i < n; i++ {
		prod[i] = mixedFreq[i] * cmplx.Conj(e.Freq[i])
	}
	out := make([]complex128, n)
	b.fft.Sequence(out, prod)
	// gonum's inverse transform is unnormalized; scale by 1/n.
	scale := complex(1.0/float64(n), 0)
	for i := range out {
		out[i] *= scale
	}
	return out
}
