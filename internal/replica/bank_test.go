package replica

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBankBuildsRequestedPRNs(t *testing.T) {
	b := NewBank([]int{1, 5, 10}, 2_046_000.0)

	assert.Equal(t, int(b.Fs()/1000+0.5), b.N())
	for _, prn := range []int{1, 5, 10} {
		e := b.Get(prn)
		require.NotNil(t, e)
		assert.Equal(t, prn, e.PRN)
		assert.Len(t, e.Time, b.N())
		assert.Len(t, e.Freq, b.N())
	}
}

func TestBankGetBuildsOnDemand(t *testing.T) {
	b := NewBank([]int{1}, 2_046_000.0)
	e := b.Get(7)
	require.NotNil(t, e)
	assert.Equal(t, 7, e.PRN)
}

func TestBankSelfCorrelationPeaksAtZeroLag(t *testing.T) {
	b := NewBank([]int{1}, 2_046_000.0)
	e := b.Get(1)

	corr := b.Correlate(e.Freq, e)

	peakIdx := 0
	peakMag := 0.0
	for i, v := range corr {
		m := math.Hypot(real(v), imag(v))
		if m > peakMag {
			peakMag = m
			peakIdx = i
		}
	}
	assert.Equal(t, 0, peakIdx)
}
