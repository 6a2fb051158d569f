// Package tracking implements one Channel per acquired satellite: the
// code DLL / carrier Costas PLL tracking loops (spec.md §4.4), lock
// detectors, and the ACQUIRED..EPHEMERIS_VALID/LOST state machine.
package tracking

// State is one of the Channel lifecycle states from spec.md §3/§4.4.
type State int

const (
	StateAcquired State = iota
	StatePullIn
	StateTrackLocked
	StateBitSync
	StateFrameSync
	StateEphemerisValid
	StateLost
)

func (s State) String() string {
	switch s {
	case StateAcquired:
		return "ACQUIRED"
	case StatePullIn:
		return "PULL_IN"
	case StateTrackLocked:
		return "TRACK_LOCKED"
	case StateBitSync:
		return "BIT_SYNC"
	case StateFrameSync:
		return "FRAME_SYNC"
	case StateEphemerisValid:
		return "EPHEMERIS_VALID"
	case StateLost:
		return "LOST"
	default:
		return "UNKNOWN"
	}
}

// pullInMs is how long a channel stays in ACQUIRED, with wide loop
// bandwidths, before a locked channel moves on to PULL_IN (spec.md
// §4.4: "first 100 ms, wide bandwidths").
const pullInMs = 100

// lockRequiredMs is how long the lock detectors must stay good before
// PULL_IN -> TRACK_LOCKED (spec.md §4.4: "lock detectors good 500 ms").
const lockRequiredMs = 500

// sustainedLossMs is how long a lock failure must persist before any
// state transitions to LOST (spec.md §4.4).
const sustainedLossMs = 2000
