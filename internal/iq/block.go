// Package iq implements the Sample Conditioner: it turns whichever
// sample encoding the source delivers into a canonical stream of
// complex baseband IqBlocks at a known sampling rate, one block per
// millisecond of C/A code.
package iq

// Sample is a single complex baseband sample.
type Sample struct {
	I, Q float32
}

// Block is one coherent 1 ms integration window: exactly N = Fs/1000
// samples, carrying a monotonically increasing epoch index assigned
// by the Conditioner. Produced once, consumed once, then discarded.
type Block struct {
	Epoch   uint64
	Fs      float64
	Samples []Sample

	// Truncated is set on the final block of a finite source when
	// fewer than N samples remained; the block is still exactly N
	// samples long, zero-padded.
	Truncated bool
}

// N returns the number of samples a block at the given rate must
// carry: one full C/A code period.
func N(fs float64) int {
	return int(fs/1000 + 0.5)
}
