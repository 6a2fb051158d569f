// Package replica precomputes, per PRN, the 1023-chip GPS L1 C/A Gold
// code and its sampled, FFT'd replica used by both acquisition and
// tracking. Built once at startup; immutable and shared read-only by
// every goroutine afterward, the same "build the tables once, share
// everywhere" approach the receiver's own gen_tone.go uses for its
// per-tone sin/cos tables.
package replica

// CodeLength is the number of chips in one GPS L1 C/A period.
const CodeLength = 1023

// g2Taps gives the two-tap G2 shift-register selection, per PRN 1..32,
// that produces that PRN's unique Gold code (IS-GPS-200 Table 3-Ia).
// Index 0 is unused (PRNs are 1-based).
var g2Taps = [33][2]int{
	{}, // 0, unused
	{2, 6}, {3, 7}, {4, 8}, {5, 9}, {1, 9},
	{2, 10}, {1, 8}, {2, 9}, {3, 10}, {2, 3},
	{3, 4}, {5, 6}, {6, 7}, {7, 8}, {8, 9},
	{9, 10}, {1, 4}, {2, 5}, {3, 6}, {4, 7},
	{5, 8}, {6, 9}, {1, 3}, {4, 6}, {5, 7},
	{6, 8}, {7, 9}, {8, 10}, {1, 6}, {2, 7},
	{3, 8}, {4, 9},
}

// Chips returns the ±1 C/A code chip sequence for the given PRN
// (1..32), CodeLength chips long, generated from the two maximal-
// length LFSRs G1 and G2 per IS-GPS-200.
func Chips(prn int) []int8 {
	if prn < 1 || prn > 32 {
		return nil
	}

	g1 := newLFSR10(0x3FF)
	g2 := newLFSR10(0x3FF)

	taps := g2Taps[prn]
	chips := make([]int8, CodeLength)

	for i := 0; i < CodeLength; i++ {
		g1out := g1.output(9) // tap at stage 10 (index 9, 0-based)
		g2out := g2.output(taps[0]-1) ^ g2.output(taps[1]-1)

		ca := g1out ^ g2out
		if ca == 0 {
			chips[i] = 1
		} else {
			chips[i] = -1
		}

		g1.shift(g1FeedbackTaps)
		g2.shift(g2FeedbackTaps)
	}

	return chips
}

// g1FeedbackTaps / g2FeedbackTaps list the 1-based stage indices whose
// XOR feeds back into stage 1, per IS-GPS-200: G1 = taps 3,10; G2 =
// taps 2,3,6,8,9,10.
var g1FeedbackTaps = []int{3, 10}
var g2FeedbackTaps = []int{2, 3, 6, 8, 9, 10}

// lfsr10 is a 10-stage linear feedback shift register, all-ones
// initial state as specified for both G1 and G2.
type lfsr10 struct {
	stage [10]int // stage[0] is stage 1, stage[9] is stage 10
}

func newLFSR10(initMask uint16) *lfsr10 {
	l := &lfsr10{}
	for i := 0; i < 10; i++ {
		if initMask&(1<<uint(i)) != 0 {
			l.stage[i] = 1
		}
	}
	return l
}

// output returns the current bit at 0-based stage index idx.
func (l *lfsr10) output(idx int) int {
	return l.stage[idx]
}

// shift XORs together the (1-based) feedback tap stages, feeds the
// result into stage 1, and shifts everything else down by one.
func (l *lfsr10) shift(taps []int) {
	fb := 0
	for _, t := range taps {
		fb ^= l.stage[t-1]
	}
	for i := 9; i > 0; i-- {
		l.stage[i] = l.stage[i-1]
	}
	l.stage[0] = fb
}
