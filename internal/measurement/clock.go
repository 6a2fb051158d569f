// Package measurement builds the per-epoch pseudorange/Doppler/C-N0
// set handed to the external solver (spec.md §4.6), and models the
// receiver's own clock.
package measurement

// nominalPropagationSeconds is the rough GPS-to-receiver propagation
// delay used to seed the receiver clock, per spec.md §4.6.
const nominalPropagationSeconds = 0.070

// ReceiverClock is the receiver's own notion of "now", seeded from the
// first valid transmit-time estimate plus nominal propagation delay
// and thereafter advanced purely by counting processed samples (it
// never re-syncs to a channel's t_tx once initialized, which is what
// leaves room for a clock bias term in the downstream solver).
type ReceiverClock struct {
	fs          float64
	initialized bool
	seconds     float64
}

func NewReceiverClock(fs float64) *ReceiverClock {
	return &ReceiverClock{fs: fs}
}

// Init seeds the clock from the first channel's first valid transmit
// time. Subsequent calls are no-ops.
func (c *ReceiverClock) Init(firstTxSeconds float64) {
	if c.initialized {
		return
	}
	c.seconds = firstTxSeconds + nominalPropagationSeconds
	c.initialized = true
}

// AdvanceSamples moves the clock forward by n samples at the
// conditioner's output rate.
func (c *ReceiverClock) AdvanceSamples(n int) {
	if !c.initialized {
		return
	}
	c.seconds += float64(n) / c.fs
}

// Now returns the receiver clock's current estimate of t_rx. ok is
// false until Init has run.
func (c *ReceiverClock) Now() (seconds float64, ok bool) {
	return c.seconds, c.initialized
}

// Initialized reports whether Init has been called yet.
func (c *ReceiverClock) Initialized() bool { return c.initialized }
