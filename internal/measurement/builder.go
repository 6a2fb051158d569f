package measurement

import "github.com/google/uuid"

// Observation is what the pipeline's per-channel state looks like at
// the instant a solver epoch closes: the channel's own observables
// plus whatever the navigation decoder could recover for t_tx. The
// Builder stays decoupled from the tracking/navmsg packages so it can
// be exercised with synthetic observations in tests.
type Observation struct {
	PRN            int
	CodePhaseChips float64
	DopplerHz      float64
	CN0            float64
	TransmitTime   float64
	HaveTx         bool
}

// Builder assembles the measurement set for one solver epoch (default
// 1 Hz, spec.md §4.6), maintaining the receiver clock across epochs.
type Builder struct {
	clock *ReceiverClock
	runID uuid.UUID
}

func NewBuilder(fs float64) *Builder {
	return &Builder{
		clock: NewReceiverClock(fs),
		runID: uuid.New(),
	}
}

// AdvanceSamples should be called once per conditioner block with the
// number of samples it produced, keeping the receiver clock moving
// even on epochs where no channel is ready yet.
func (b *Builder) AdvanceSamples(n int) {
	b.clock.AdvanceSamples(n)
}

// Build forms the measurement set for one epoch from the channels
// that have a transmit-time estimate. Channels without one (not yet
// EPHEMERIS_VALID, or the decoder hasn't recovered a HOW yet) are
// skipped; the epoch simply has fewer measurements, and it is the
// solver collaborator's job to decide whether that is enough (spec.md
// §4.6, §7 ErrInsufficientSatellites).
func (b *Builder) Build(epoch uint64, obs []Observation) []Measurement {
	for _, o := range obs {
		if o.HaveTx && !b.clock.Initialized() {
			b.clock.Init(o.TransmitTime)
			break
		}
	}

	rx, ok := b.clock.Now()
	if !ok {
		return nil
	}

	out := make([]Measurement, 0, len(obs))
	for _, o := range obs {
		if !o.HaveTx {
			continue
		}
		out = append(out, Measurement{
			RunID:        b.runID,
			Epoch:        epoch,
			PRN:          o.PRN,
			TransmitTime: o.TransmitTime,
			PseudorangeM: pseudorange(rx, o.TransmitTime),
			DopplerHz:    o.DopplerHz,
			CN0:          o.CN0,
		})
	}
	return out
}
