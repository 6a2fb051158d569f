package tracking

import (
	"math"
	"testing"

	"github.com/doismellburning/gnssrecv/internal/acquisition"
	"github.com/doismellburning/gnssrecv/internal/iq"
	"github.com/doismellburning/gnssrecv/internal/replica"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFs = 2_046_000.0

func perfectBlock(bank *replica.Bank, prn int, epoch uint64, dopplerHz, codePhaseChips float64, sampleCounter int) iq.Block {
	entry := bank.Get(prn)
	n := entry.N
	samplesPerChip := float64(n) / float64(replica.CodeLength)
	shift := int(codePhaseChips * samplesPerChip)

	samples := make([]iq.Sample, n)
	for i := 0; i < n; i++ {
		td := entry.Time[(i+shift)%n]
		theta := 2 * math.Pi * dopplerHz * float64(sampleCounter+i) / testFs
		osc := complex(math.Cos(theta), math.Sin(theta))
		v := td * osc
		samples[i] = iq.Sample{I: float32(real(v)), Q: float32(imag(v))}
	}
	return iq.Block{Epoch: epoch, Fs: testFs, Samples: samples}
}

func TestNewChannelStartsAcquired(t *testing.T) {
	c := NewChannel(acquisition.Result{PRN: 12, CodePhase: 300, Doppler: 1200})
	assert.Equal(t, StateAcquired, c.State)
	assert.Equal(t, 12, c.PRN)
	assert.Equal(t, 300.0, c.CodePhaseChips())
}

func TestUpdatePreservesInvariants(t *testing.T) {
	bank := replica.NewBank([]int{1}, testFs)
	c := NewChannel(acquisition.Result{PRN: 1, CodePhase: 0, Doppler: 0})

	sampleCounter := 0
	for tick := 0; tick < 50; tick++ {
		blk := perfectBlock(bank, 1, uint64(tick), 0, c.CodePhaseChips(), sampleCounter)
		sample := c.Update(blk)

		assert.Equal(t, uint64(tick), sample.Epoch, "tick monotonicity, spec invariant 6")
		assert.GreaterOrEqual(t, c.CodePhaseChips(), 0.0, "code phase mod chips, invariant (b)")
		assert.Less(t, c.CodePhaseChips(), float64(replica.CodeLength))

		sampleCounter += len(blk.Samples)
	}
}

func TestAdvanceToNeverGoesBackward(t *testing.T) {
	c := NewChannel(acquisition.Result{PRN: 3, CodePhase: 0, Doppler: 0})
	c.AdvanceTo(StateFrameSync)
	assert.Equal(t, StateFrameSync, c.State)

	c.AdvanceTo(StateBitSync)
	assert.Equal(t, StateFrameSync, c.State, "advancing to an earlier state must be a no-op")
}

func TestChannelLocksOnToAStrongStaticSignal(t *testing.T) {
	bank := replica.NewBank([]int{1}, testFs)
	c := NewChannel(acquisition.Result{PRN: 1, CodePhase: 0, Doppler: 0})

	sampleCounter := 0
	for tick := 0; tick < pullInMs+1; tick++ {
		blk := perfectBlock(bank, 1, uint64(tick), 0, 0, sampleCounter)
		c.Update(blk)
		sampleCounter += len(blk.Samples)
	}

	require.NotEqual(t, StateLost, c.State, "a perfectly matched static signal should never be declared lost")
}
