package measurement

import "github.com/google/uuid"

// speedOfLight is c in m/s, used for the pseudorange conversion.
const speedOfLight = 299_792_458.0

// Measurement is one channel's observable at a single solver epoch
// (spec.md §4.6). The emitted set is handed to the external solver
// unchanged.
type Measurement struct {
	RunID        uuid.UUID
	Epoch        uint64
	PRN          int
	TransmitTime float64 // t_tx, seconds of week
	PseudorangeM float64
	DopplerHz    float64
	CN0          float64
}

// pseudorange converts a transmit/receive time pair into a range in
// meters: rho = c * (t_rx - t_tx).
func pseudorange(rxSeconds, txSeconds float64) float64 {
	return speedOfLight * (rxSeconds - txSeconds)
}

// ReceiveTimeSeconds recovers the receiver clock reading this
// measurement was formed at, inverting the pseudorange formula. Every
// Measurement in a Build call shares the same receive time, so
// callers needing "the" epoch receive time can read it off any one of
// them.
func (m Measurement) ReceiveTimeSeconds() float64 {
	return m.TransmitTime + m.PseudorangeM/speedOfLight
}
