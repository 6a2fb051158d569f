package tracking

import (
	"math"

	"github.com/doismellburning/gnssrecv/internal/acquisition"
	"github.com/doismellburning/gnssrecv/internal/iq"
	"github.com/doismellburning/gnssrecv/internal/replica"
)

const (
	f_L1            = 1575.42e6
	chipRateNominal = 1.023e6
	earlyLateChips  = 0.5

	pullInDllBw = 2.0
	pullInPllBw = 15.0
	lockedPllBw = 5.0
	pullInFllBw = 4.0
)

// PromptSample is one millisecond's worth of prompt correlator output
// and bookkeeping, the stream the Bit Synchronizer consumes.
type PromptSample struct {
	Epoch   uint64
	IP, QP  float64
	CN0     float64
	Doppler float64 // Hz, derived from carrier NCO rate
}

// Channel is one satellite's independent tracking state (spec.md §4.4
// / §3). Its state is never shared between goroutines: one Channel is
// processed by exactly one worker for the duration of a tick.
type Channel struct {
	PRN   int
	State State

	carrier carrierNCO
	code    codeNCO

	dll *loopFilter
	pll *loopFilter
	fll *loopFilter // frequency-lock-loop assist, PULL_IN only (spec.md §4.4)

	locks *lockDetectors

	chips []int8 // this PRN's raw +-1 chip sequence, for arbitrary-phase local replica generation

	msInState  int
	lockGoodMs int
	lastPrompt PromptSample
	history    []PromptSample // recent prompt samples, for the diagnostics constellation
}

// NewChannel seeds a Channel from an acquisition detection per
// spec.md "created from AcqResult".
func NewChannel(res acquisition.Result) *Channel {
	c := &Channel{
		PRN:   res.PRN,
		State: StateAcquired,
		chips: replica.Chips(res.PRN),
	}
	c.code.PhaseChips = res.CodePhase
	c.code.RateChips = chipRateNominal * (1 + res.Doppler/f_L1)
	c.carrier.Rate = res.Doppler

	c.dll = newLoopFilter(pullInDllBw, 0.707, 1.0)
	c.pll = newLoopFilter(pullInPllBw, 0.707, 0.25)
	c.fll = newLoopFilter(pullInFllBw, 0.707, 1.0)
	c.locks = newLockDetectors()
	return c
}

// localCode returns the local replica chip (+-1) at the given
// fractional code phase (chips), nearest-chip sampled per spec.md
// §4.2.
func (c *Channel) localCode(phaseChips float64) float64 {
	n := float64(replica.CodeLength)
	p := math.Mod(phaseChips, n)
	if p < 0 {
		p += n
	}
	idx := int(p)
	if idx >= replica.CodeLength {
		idx = replica.CodeLength - 1
	}
	return float64(c.chips[idx])
}

// Update runs one 1 ms tick: carrier wipe-off, E/P/L correlation, the
// DLL/PLL discriminators and loop filters, lock detection, and the
// state machine transition for this tick. Returns the tick's prompt
// sample.
func (c *Channel) Update(blk iq.Block) PromptSample {
	fs := blk.Fs
	n := len(blk.Samples)

	var ie, qe, ip, qp, il, ql float64
	codeChipsPerSample := c.code.RateChips / fs

	for i, s := range blk.Samples {
		carrierPhase := c.carrier.phaseAt(fs, i)
		osc := complex(math.Cos(-carrierPhase), math.Sin(-carrierPhase))
		wiped := complex(float64(s.I), float64(s.Q)) * osc

		codePhase := c.code.PhaseChips + float64(i)*codeChipsPerSample

		ce := c.localCode(codePhase - earlyLateChips)
		cp := c.localCode(codePhase)
		cl := c.localCode(codePhase + earlyLateChips)

		ie += real(wiped) * ce
		qe += imag(wiped) * ce
		ip += real(wiped) * cp
		qp += imag(wiped) * cp
		il += real(wiped) * cl
		ql += imag(wiped) * cl
	}

	c.carrier.advance(fs, n)
	c.code.advance(fs, n, float64(replica.CodeLength))

	dCode := discCodeDLL(ie, qe, il, ql)
	dCarr := discCarrierCostas(ip, qp)

	c.code.RateChips = chipRateNominal*(1+c.carrier.Rate/f_L1) + c.dll.update(dCode, 0.001)
	c.carrier.Rate += c.pll.update(dCarr, 0.001)

	if c.State == StatePullIn {
		// FLL assist narrows the initial frequency error faster than
		// the Costas PLL alone can pull in (spec.md §4.4: "a
		// frequency-lock-loop assist... runs in parallel during
		// pull-in"), from the differential phase between this
		// millisecond's and the previous millisecond's prompt.
		dFreq := discCarrierFLL(c.lastPrompt.IP, c.lastPrompt.QP, ip, qp, 0.001)
		c.carrier.Rate += c.fll.update(dFreq, 0.001)
	}

	carrierLocked := c.locks.updateCarrier(ip, qp)
	narrowband := ip*ip + qp*qp
	wideband := ie*ie + qe*qe + ip*ip + qp*qp + il*il + ql*ql
	cn0, codeLocked := c.locks.updateCN0(narrowband, wideband)

	sample := PromptSample{
		Epoch:   blk.Epoch,
		IP:      ip,
		QP:      qp,
		CN0:     cn0,
		Doppler: c.carrier.Rate,
	}
	c.lastPrompt = sample
	c.history = append(c.history, sample)
	if len(c.history) > 2000 {
		c.history = c.history[len(c.history)-2000:]
	}

	c.stepStateMachine(carrierLocked, codeLocked)
	return sample
}

func (c *Channel) stepStateMachine(carrierLocked, codeLocked bool) {
	c.msInState++

	locked := carrierLocked && codeLocked
	if locked {
		c.lockGoodMs++
	} else {
		c.lockGoodMs = 0
	}
	if carrierLocked {
		c.locks.carrierBadMs = 0
	} else {
		c.locks.carrierBadMs++
	}
	if codeLocked {
		c.locks.codeBadMs = 0
	} else {
		c.locks.codeBadMs++
	}

	if !locked {
		// sustained-loss tracking is handled uniformly regardless of
		// which state we're in, per spec.md "Any state -> LOST on
		// sustained lock loss".
		if c.locks.carrierBadMs >= sustainedLossMs || c.locks.codeBadMs >= sustainedLossMs {
			c.State = StateLost
		}
		return
	}

	switch c.State {
	case StateAcquired:
		if c.msInState >= pullInMs {
			c.transitionTo(StatePullIn)
		}
	case StatePullIn:
		if c.lockGoodMs >= lockRequiredMs {
			c.dll.setBandwidth(pullInDllBw, 0.707, 1.0)
			c.pll.setBandwidth(lockedPllBw, 0.707, 0.25)
			c.transitionTo(StateTrackLocked)
		}
	case StateTrackLocked, StateBitSync, StateFrameSync, StateEphemerisValid:
		// Advancement past TRACK_LOCKED is driven externally by the
		// navigation decoder (bit sync / frame sync / ephemeris
		// completion); see AdvanceTo.
	}
}

func (c *Channel) transitionTo(s State) {
	c.State = s
	c.msInState = 0
}

// AdvanceTo lets the navigation decoder push this channel forward
// once it reaches BIT_SYNC / FRAME_SYNC / EPHEMERIS_VALID, since those
// transitions depend on accumulated bit-level state the Channel
// itself doesn't own (spec.md §4.5).
func (c *Channel) AdvanceTo(s State) {
	if s <= c.State {
		return
	}
	c.transitionTo(s)
}

// History returns the recent prompt-sample history (read-only), which
// the pipeline plots as the diagnostics IQ constellation.
func (c *Channel) History() []PromptSample { return c.history }

// CodePhaseChips is the channel's current code phase estimate.
func (c *Channel) CodePhaseChips() float64 { return c.code.PhaseChips }

// DopplerHz is the channel's current carrier Doppler estimate.
func (c *Channel) DopplerHz() float64 { return c.carrier.Rate }

// CN0 is the channel's most recent carrier-to-noise density estimate.
func (c *Channel) CN0() float64 { return c.lastPrompt.CN0 }
