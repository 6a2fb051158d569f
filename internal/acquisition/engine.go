// Package acquisition implements the 2-D parallel code-phase search
// (spec.md §4.3): for each candidate PRN, search code delay x Doppler
// using FFT-based circular cross-correlation, non-coherently combined
// across several coherent integration windows to beat the 20 ms nav-
// bit sign ambiguity.
package acquisition

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/doismellburning/gnssrecv/internal/gnsserr"
	"github.com/doismellburning/gnssrecv/internal/iq"
	"github.com/doismellburning/gnssrecv/internal/replica"
)

// Result is one detection: a refined code phase (chips), Doppler (Hz),
// and quality metrics, ready to seed a tracking Channel.
type Result struct {
	PRN       int
	CodePhase float64 // chips, [0, replica.CodeLength)
	Doppler   float64 // Hz
	Peak      float64
	SNR       float64 // linear peak/noise-floor ratio
}

// Config tunes the search per spec.md §4.3. Zero values select the
// spec's defaults.
type Config struct {
	K               int     // coherent integrations per non-coherent sum, default 1
	M               int     // non-coherent sums, default 4
	DopplerMaxHz    float64 // search span is +/- this, default 10000
	DopplerStepHz   float64 // default ~500/K
	DetectThreshold float64 // peak/noise-floor, default 2.5
	GuardChips      int     // default 2
	GuardBins       int     // default 2
}

func (c Config) withDefaults() Config {
	if c.K <= 0 {
		c.K = 1
	}
	if c.M <= 0 {
		c.M = 4
	}
	if c.DopplerMaxHz <= 0 {
		c.DopplerMaxHz = 10000
	}
	if c.DopplerStepHz <= 0 {
		c.DopplerStepHz = 500.0 / float64(c.K)
	}
	if c.DetectThreshold <= 0 {
		c.DetectThreshold = 2.5
	}
	if c.GuardChips <= 0 {
		c.GuardChips = 2
	}
	if c.GuardBins <= 0 {
		c.GuardBins = 2
	}
	return c
}

// Engine is stateless across calls (spec.md §4.3 "Contract"): all of
// its working state lives on the stack of each Search call, so the
// same Engine can be shared and invoked concurrently for different
// PRNs without synchronization.
type Engine struct {
	bank *replica.Bank
	cfg  Config
}

func NewEngine(bank *replica.Bank, cfg Config) *Engine {
	return &Engine{bank: bank, cfg: cfg.withDefaults()}
}

// dopplerBins returns the uniform grid of Doppler hypotheses to try.
func (c Config) dopplerBins() []float64 {
	var bins []float64
	for f := -c.DopplerMaxHz; f <= c.DopplerMaxHz+1e-9; f += c.DopplerStepHz {
		bins = append(bins, f)
	}
	return bins
}

// Search runs the full 2-D search for one PRN over a stream segment
// of at least K*M consecutive 1 ms blocks. Returns (Result{}, false)
// on no detection — per spec.md, that is not an error.
func (e *Engine) Search(prn int, blocks []iq.Block) (Result, bool) {
	needed := e.cfg.K * e.cfg.M
	if len(blocks) < needed {
		return Result{}, false
	}

	entry := e.bank.Get(prn)
	n := entry.N
	fs := entry.Fs
	bins := e.cfg.dopplerBins()

	// surface[binIdx][sampleIdx] accumulates non-coherent power.
	surface := make([][]float64, len(bins))
	for i := range surface {
		surface[i] = make([]float64, n)
	}

	for m := 0; m < e.cfg.M; m++ {
		group := blocks[m*e.cfg.K : (m+1)*e.cfg.K]
		for bi, fd := range bins {
			coherent := e.coherentCorrelate(entry, group, fd, fs)
			for s, v := range coherent {
				mag := real(v)*real(v) + imag(v)*imag(v)
				surface[bi][s] += mag
			}
		}
	}

	peakBin, peakSample, peakVal := argmax2D(surface)
	noiseFloor := meanExcludingGuard(surface, peakBin, peakSample, e.cfg.GuardBins, e.cfg.GuardChips, n)

	if noiseFloor <= 0 || peakVal/noiseFloor < e.cfg.DetectThreshold {
		return Result{}, false
	}

	samplesPerChip := float64(n) / float64(replica.CodeLength)
	refinedSample := quadraticRefine1D(surface[peakBin], peakSample, n)
	refinedBin := quadraticRefineBin(surface, peakBin, peakSample, bins)

	return Result{
		PRN:       prn,
		CodePhase: math.Mod(refinedSample/samplesPerChip+float64(replica.CodeLength), float64(replica.CodeLength)),
		Doppler:   refinedBin,
		Peak:      peakVal,
		SNR:       peakVal / noiseFloor,
	}, true
}

// coherentCorrelate mixes K consecutive 1 ms blocks by a single
// Doppler hypothesis with phase continuous across the whole group,
// then FFT-correlates each 1 ms segment against the replica and
// complex-sums the K results (coherent integration).
func (e *Engine) coherentCorrelate(entry *replica.Entry, group []iq.Block, fd, fs float64) []complex128 {
	n := entry.N
	sum := make([]complex128, n)

	sampleIndex := 0
	for _, blk := range group {
		mixed := make([]complex128, n)
		for i, s := range blk.Samples {
			theta := -2 * math.Pi * fd * float64(sampleIndex) / fs
			osc := complex(math.Cos(theta), math.Sin(theta))
			mixed[i] = complex(float64(s.I), float64(s.Q)) * osc
			sampleIndex++
		}
		mixedFreq := make([]complex128, n)
		copy(mixedFreq, mixed)
		e.bank.FFT().Coefficients(mixedFreq, mixedFreq)

		corr := e.bank.Correlate(mixedFreq, entry)
		for i := range sum {
			sum[i] += corr[i]
		}
	}
	return sum
}

func argmax2D(surface [][]float64) (bin, sample int, val float64) {
	val = -1
	for b, row := range surface {
		for s, v := range row {
			if v > val {
				val = v
				bin = b
				sample = s
			}
		}
	}
	return
}

func meanExcludingGuard(surface [][]float64, peakBin, peakSample, guardBins, guardChips, n int) float64 {
	samplesPerChip := float64(n) / float64(replica.CodeLength)
	guardSamples := int(float64(guardChips) * samplesPerChip)

	var sum float64
	var count int
	for b, row := range surface {
		for s, v := range row {
			if abs(b-peakBin) <= guardBins && circDist(s, peakSample, n) <= guardSamples {
				continue
			}
			sum += v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func circDist(a, b, n int) int {
	d := abs(a - b)
	if n-d < d {
		return n - d
	}
	return d
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// quadraticRefine1D fits a parabola through the peak sample and its
// two circular neighbors to refine the code-phase estimate.
func quadraticRefine1D(row []float64, peak, n int) float64 {
	left := row[(peak-1+n)%n]
	center := row[peak]
	right := row[(peak+1)%n]

	denom := left - 2*center + right
	if denom == 0 {
		return float64(peak)
	}
	offset := 0.5 * (left - right) / denom
	return float64(peak) + offset
}

// quadraticRefineBin fits a parabola across the three Doppler bins
// around the peak to refine the Doppler estimate.
func quadraticRefineBin(surface [][]float64, peakBin, peakSample int, bins []float64) float64 {
	if peakBin <= 0 || peakBin >= len(bins)-1 {
		return bins[peakBin]
	}
	left := surface[peakBin-1][peakSample]
	center := surface[peakBin][peakSample]
	right := surface[peakBin+1][peakSample]

	denom := left - 2*center + right
	if denom == 0 {
		return bins[peakBin]
	}
	offset := 0.5 * (left - right) / denom
	step := bins[peakBin+1] - bins[peakBin]
	return bins[peakBin] + offset*step
}

// SearchAll runs Search for every PRN in prns, fanning the work out
// across PRNs (and, within each, the Doppler bins are independent
// too, but are computed in the same goroutine per spec.md §5's
// "Acquisition fan-outs parallelize over (PRN x Doppler row)" — the
// PRN-level fan-out alone is enough concurrency for a typical core
// count, so the Doppler dimension stays sequential within a PRN to
// keep each worker's working set small).
func (e *Engine) SearchAll(ctx context.Context, prns []int, blocks []iq.Block) []Result {
	var (
		mu      sync.Mutex
		results []Result
		wg      sync.WaitGroup
	)

	for _, prn := range prns {
		prn := prn
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			default:
			}
			if res, ok := e.Search(prn, blocks); ok {
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].PRN < results[j].PRN })
	return results
}

// ErrNoDetection wraps gnsserr.ErrAcquisitionNoDetection with the PRN
// that was searched, for callers that want a logged-but-not-fatal
// informational message (spec.md §7).
func ErrNoDetection(prn int) error {
	return fmt.Errorf("PRN %d: %w", prn, gnsserr.ErrAcquisitionNoDetection)
}
