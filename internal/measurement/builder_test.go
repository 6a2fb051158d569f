package measurement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiverClockInitializesOnceFromFirstTx(t *testing.T) {
	c := NewReceiverClock(2_046_000.0)
	assert.False(t, c.Initialized())

	c.Init(100.0)
	now, ok := c.Now()
	require.True(t, ok)
	assert.InDelta(t, 100.070, now, 1e-9)

	c.Init(200.0) // second call must be a no-op
	now, _ = c.Now()
	assert.InDelta(t, 100.070, now, 1e-9)
}

func TestReceiverClockAdvancesBySamples(t *testing.T) {
	c := NewReceiverClock(1000.0) // 1000 Hz, 1 ms per sample
	c.Init(0)
	c.AdvanceSamples(500)
	now, ok := c.Now()
	require.True(t, ok)
	assert.InDelta(t, nominalPropagationSeconds+0.5, now, 1e-9)
}

func TestBuilderSkipsChannelsWithoutTransmitTime(t *testing.T) {
	b := NewBuilder(2_046_000.0)
	obs := []Observation{
		{PRN: 3, HaveTx: false},
		{PRN: 7, HaveTx: true, TransmitTime: 1000.0, DopplerHz: 50, CN0: 44},
	}

	ms := b.Build(1, obs)
	require.Len(t, ms, 1)
	assert.Equal(t, 7, ms[0].PRN)
	assert.InDelta(t, speedOfLight*nominalPropagationSeconds, ms[0].PseudorangeM, 1e-3)
}

func TestBuilderReturnsNilBeforeAnyTransmitTime(t *testing.T) {
	b := NewBuilder(2_046_000.0)
	ms := b.Build(1, []Observation{{PRN: 3, HaveTx: false}})
	assert.Nil(t, ms)
}

func TestBuilderAllMeasurementsShareRunID(t *testing.T) {
	b := NewBuilder(2_046_000.0)
	obs := []Observation{
		{PRN: 1, HaveTx: true, TransmitTime: 500.0},
		{PRN: 2, HaveTx: true, TransmitTime: 500.0001},
	}
	ms := b.Build(1, obs)
	require.Len(t, ms, 2)
	assert.Equal(t, ms[0].RunID, ms[1].RunID)
}
