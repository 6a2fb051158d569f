// Package pipeline wires every other package together into the
// control-thread data flow spec.md §5 describes: Conditioner ->
// Acquisition (bootstraps channels) -> Tracker (many) -> Nav Decoder
// -> Measurement Builder -> external solver + diagnostics. It plays
// the same top-level role as the teacher's `cmd/direwolf/main.go`
// (build every collaborator, then run one control loop until told to
// stop) and borrows its tick-queue discipline from `src/tq.go`: work
// for a tick is fanned out, then fully committed before the next tick
// starts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/doismellburning/gnssrecv/internal/acquisition"
	"github.com/doismellburning/gnssrecv/internal/config"
	"github.com/doismellburning/gnssrecv/internal/diagnostics"
	"github.com/doismellburning/gnssrecv/internal/gnsserr"
	"github.com/doismellburning/gnssrecv/internal/iq"
	"github.com/doismellburning/gnssrecv/internal/logging"
	"github.com/doismellburning/gnssrecv/internal/measurement"
	"github.com/doismellburning/gnssrecv/internal/navmsg"
	"github.com/doismellburning/gnssrecv/internal/replica"
	"github.com/doismellburning/gnssrecv/internal/solver"
	"github.com/doismellburning/gnssrecv/internal/source"
	"github.com/doismellburning/gnssrecv/internal/tracking"
)

const (
	// bootstrapMs is how many milliseconds of IQ the initial
	// acquisition sweep integrates over before any channel exists.
	bootstrapMs = 100

	// reacquireEveryMs throttles how often lost/never-acquired PRNs
	// get another acquisition attempt, so a consistently weak signal
	// doesn't dominate CPU time every tick.
	reacquireEveryMs = 1000

	// epochTicks is the solver epoch, default 1 Hz (spec.md §6).
	epochTicks = 1000
)

// track is one channel's paired tracking + navigation-decode state;
// the two always move together (one Channel, one Decoder, same PRN).
type track struct {
	ch  *tracking.Channel
	dec *navmsg.Decoder
}

// Pipeline owns every long-lived collaborator and runs the control
// loop. It is built once via New and driven via Run.
type Pipeline struct {
	cfg *config.Config

	stream      source.Stream
	conditioner *iq.Conditioner
	bank        *replica.Bank
	acq         *acquisition.Engine
	store       *navmsg.Store
	builder     *measurement.Builder
	solver      solver.Solver
	publisher   *diagnostics.Publisher
	ptyTap      *measurement.PtyTap

	tracks    map[int]*track
	buffer    []iq.Block // rolling window for (re)acquisition
	ticksSinceReacq int
}

// Option customizes a Pipeline at construction time.
type Option func(*Pipeline)

// WithSolver overrides the default solver.NullSolver (e.g. with a
// solver.Client pointed at an external PVT process).
func WithSolver(s solver.Solver) Option {
	return func(p *Pipeline) { p.solver = s }
}

// WithDiagnostics enables periodic PNG/HTML output to dir.
func WithDiagnostics(pub *diagnostics.Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// WithPtyTap enables the debug measurement tap.
func WithPtyTap(tap *measurement.PtyTap) Option {
	return func(p *Pipeline) { p.ptyTap = tap }
}

// New opens the configured input source and builds every
// collaborator it feeds. The returned Pipeline owns stream and must
// be closed by the caller via Close.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	stream, err := openSource(cfg)
	if err != nil {
		return nil, err
	}

	inRate := cfg.SampleRateHz
	if inRate == 0 {
		inRate = stream.SampleRateHz
	}
	if inRate == 0 {
		inRate = iq.DefaultFs
	}

	p := &Pipeline{
		cfg:         cfg,
		stream:      stream,
		conditioner: iq.NewConditioner(stream.Encoding, inRate, iq.DefaultFs),
		bank:        replica.NewBank(cfg.PRNs, iq.DefaultFs),
		store:       navmsg.NewStore(),
		builder:     measurement.NewBuilder(iq.DefaultFs),
		solver:      solver.NullSolver{},
		tracks:      make(map[int]*track),
	}
	p.acq = acquisition.NewEngine(p.bank, acquisition.Config{})

	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func openSource(cfg *config.Config) (source.Stream, error) {
	switch cfg.InputKind {
	case config.InputFile:
		return source.FileSource{Path: cfg.InputPath, Encoding: cfg.Encoding, SampleRateHz: cfg.SampleRateHz}.Open()
	case config.InputLocalTuner:
		return source.USBSource{SampleRateHz: iq.DefaultFs, FrequencyHz: 1_575_420_000, GainTenthDb: cfg.GainTenthDb, BiasTee: cfg.BiasTee}.Open()
	case config.InputRemoteTCP:
		return source.RTLTCPSource{Addr: cfg.RemoteAddr, SampleRateHz: iq.DefaultFs, FrequencyHz: 1_575_420_000, GainTenthDb: cfg.GainTenthDb, BiasTee: cfg.BiasTee}.Open()
	default:
		return source.Stream{}, fmt.Errorf("%w: no input source configured", gnsserr.ErrInternalInvariant)
	}
}

// Close releases the input source and any optional collaborators.
func (p *Pipeline) Close() error {
	if p.ptyTap != nil {
		p.ptyTap.Close()
	}
	return p.stream.Close()
}

// Run drives the control loop until the source is exhausted, ctx is
// canceled, or a structural error occurs. A truncated final block and
// a clean EOF both return nil; after bootstrap, a device stall
// (gnsserr.ErrDeviceStall) is logged and the next read retried;
// anything else is returned to the caller for exit-code mapping
// (internal/config.ExitCodeFor).
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.bootstrap(ctx); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		blk, err := p.conditioner.Next(p.stream.Reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, gnsserr.ErrInputTruncated) {
				p.processTick(blk)
				return nil
			}
			if errors.Is(err, gnsserr.ErrDeviceStall) {
				logging.Warnf("pipeline: %v; retrying read", err)
				continue
			}
			return err
		}

		p.processTick(blk)
	}
}

// bootstrap runs the initial wide acquisition sweep across every
// configured PRN before any tracking starts, per spec.md's data flow
// ("Acquisition bootstraps channels").
func (p *Pipeline) bootstrap(ctx context.Context) error {
	blocks := make([]iq.Block, 0, bootstrapMs)
	for i := 0; i < bootstrapMs; i++ {
		blk, err := p.conditioner.Next(p.stream.Reader)
		if err != nil {
			if errors.Is(err, gnsserr.ErrInputTruncated) {
				blocks = append(blocks, blk)
				break
			}
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		blocks = append(blocks, blk)
	}
	p.buffer = blocks

	results := p.acq.SearchAll(ctx, p.cfg.PRNs, blocks)
	for _, res := range results {
		p.addTrack(res)
	}
	return nil
}

func (p *Pipeline) addTrack(res acquisition.Result) {
	p.tracks[res.PRN] = &track{
		ch:  tracking.NewChannel(res),
		dec: navmsg.NewDecoder(res.PRN, p.store),
	}
	logging.Infof("pipeline: PRN %02d acquired (doppler=%.1f Hz, CN0 pending)", res.PRN, res.Doppler)
}

// processTick runs one millisecond of work: every active channel is
// updated concurrently (none observes another's intermediate state,
// spec.md §5), the results are committed, then (at a solver epoch
// boundary) a measurement set is built and handed to the solver.
func (p *Pipeline) processTick(blk iq.Block) {
	p.appendToBuffer(blk)
	p.builder.AdvanceSamples(len(blk.Samples))

	type outcome struct {
		prn    int
		sample tracking.PromptSample
	}
	outcomes := make([]outcome, len(p.tracks))

	var wg sync.WaitGroup
	i := 0
	prns := make([]int, 0, len(p.tracks))
	for prn := range p.tracks {
		prns = append(prns, prn)
	}
	sort.Ints(prns)
	for _, prn := range prns {
		t := p.tracks[prn]
		idx := i
		i++
		wg.Add(1)
		go func(prn int, t *track, idx int) {
			defer wg.Done()
			outcomes[idx] = outcome{prn: prn, sample: t.ch.Update(blk)}
		}(prn, t, idx)
	}
	wg.Wait()

	for _, o := range outcomes {
		p.advanceDecoder(o.prn, o.sample)
	}

	p.recycleLostChannels()
	p.maybeReacquire(blk)

	if blk.Epoch%epochTicks == 0 {
		p.closeEpoch(blk.Epoch)
	}
}

func (p *Pipeline) appendToBuffer(blk iq.Block) {
	p.buffer = append(p.buffer, blk)
	if len(p.buffer) > bootstrapMs {
		p.buffer = p.buffer[len(p.buffer)-bootstrapMs:]
	}
}

func (p *Pipeline) advanceDecoder(prn int, sample tracking.PromptSample) {
	t := p.tracks[prn]
	if t.ch.State < tracking.StateTrackLocked {
		return
	}

	accepted, err := t.dec.Feed(sample.IP)
	if err != nil && !errors.Is(err, gnsserr.ErrParityFailure) {
		logging.Warnf("pipeline: PRN %02d nav decode: %v", prn, err)
	}
	_ = accepted

	if t.dec.BitSynced() {
		t.ch.AdvanceTo(tracking.StateBitSync)
	}
	if t.dec.FrameSynced() {
		t.ch.AdvanceTo(tracking.StateFrameSync)
	}
	if _, ok := p.store.Get(prn); ok {
		t.ch.AdvanceTo(tracking.StateEphemerisValid)
	}
}

// recycleLostChannels drops any channel whose lock has been gone long
// enough to hit StateLost (spec.md ErrChannelLost: "routine, channel
// recycled") so a later reacquisition attempt gets a clean start.
func (p *Pipeline) recycleLostChannels() {
	for prn, t := range p.tracks {
		if t.ch.State == tracking.StateLost {
			logging.Infof("pipeline: PRN %02d: %v, recycling channel", prn, gnsserr.ErrChannelLost)
			delete(p.tracks, prn)
		}
	}
}

// maybeReacquire periodically retries acquisition for any configured
// PRN that isn't currently tracked, using the rolling IQ buffer.
func (p *Pipeline) maybeReacquire(blk iq.Block) {
	p.ticksSinceReacq++
	if p.ticksSinceReacq < reacquireEveryMs || len(p.buffer) < bootstrapMs {
		return
	}
	p.ticksSinceReacq = 0

	pending := make([]int, 0)
	for _, prn := range p.cfg.PRNs {
		if _, tracked := p.tracks[prn]; !tracked {
			pending = append(pending, prn)
		}
	}
	if len(pending) == 0 {
		return
	}

	results := p.acq.SearchAll(context.Background(), pending, p.buffer)
	for _, res := range results {
		p.addTrack(res)
	}
}

// closeEpoch builds the solver request from every EPHEMERIS_VALID
// channel, hands it to the solver, and publishes a diagnostic
// snapshot. Never returns an error: an insufficient-satellites
// response and a solver I/O failure are both just logged.
func (p *Pipeline) closeEpoch(epoch uint64) {
	obs := make([]measurement.Observation, 0, len(p.tracks))
	prns := make([]int, 0, len(p.tracks))
	for prn := range p.tracks {
		prns = append(prns, prn)
	}
	sort.Ints(prns)

	for _, prn := range prns {
		t := p.tracks[prn]
		if t.ch.State != tracking.StateEphemerisValid {
			continue
		}
		tx, ok := t.dec.TransmitTime(t.ch.CodePhaseChips())
		obs = append(obs, measurement.Observation{
			PRN:            prn,
			CodePhaseChips: t.ch.CodePhaseChips(),
			DopplerHz:      t.ch.DopplerHz(),
			CN0:            t.ch.CN0(),
			TransmitTime:   tx,
			HaveTx:         ok,
		})
	}

	meas := p.builder.Build(epoch, obs)
	if p.ptyTap != nil {
		p.ptyTap.Write(meas)
	}

	fixSummary := "no fix"
	if len(meas) > 0 {
		req := p.buildSolverRequest(epoch, meas)
		fix, err := p.solver.Solve(req)
		switch {
		case err == nil:
			fixSummary = fmt.Sprintf("%d sats, bias=%.3es", fix.NumSatellites, fix.ClockBiasSeconds)
			logging.Infof("pipeline: epoch %d fix: %s", epoch, fixSummary)
		case errors.Is(err, gnsserr.ErrInsufficientSatellites):
			fixSummary = fmt.Sprintf("insufficient satellites (%d measurements)", len(meas))
		default:
			logging.Warnf("pipeline: epoch %d solver error: %v", epoch, err)
			fixSummary = "solver unavailable"
		}
	}

	if p.publisher != nil {
		everyMs := uint64(p.publisher.Interval().Milliseconds())
		if everyMs == 0 || epoch%everyMs < epochTicks {
			p.publisher.Publish(p.buildSnapshot(epoch, fixSummary))
		}
	}
}

func (p *Pipeline) buildSolverRequest(epoch uint64, meas []measurement.Measurement) solver.Request {
	req := solver.Request{
		Epoch:              epoch,
		ReceiveTimeSeconds: meas[0].ReceiveTimeSeconds(),
		Satellites:         make([]solver.SatelliteObservation, 0, len(meas)),
	}
	for _, m := range meas {
		eph, ok := p.store.Get(m.PRN)
		so := solver.SatelliteObservation{
			PRN: m.PRN, PseudorangeM: m.PseudorangeM, DopplerHz: m.DopplerHz, CN0: m.CN0,
		}
		if ok {
			so.WeekNumber = eph.WeekNumber
			so.Toe = eph.Toe
			so.SqrtA = eph.SqrtA
			so.Ecc = eph.Ecc
			so.I0 = eph.I0
			so.Omega0 = eph.Omega0
			so.Omega = eph.Omega
			so.OmegaDot = eph.OmegaDot
			so.M0 = eph.M0
			so.DeltaN = eph.DeltaN
			so.IDot = eph.IDot
			so.Cuc, so.Cus = eph.Cuc, eph.Cus
			so.Crc, so.Crs = eph.Crc, eph.Crs
			so.Cic, so.Cis = eph.Cic, eph.Cis
			so.TGD, so.Af0, so.Af1, so.Af2 = eph.TGD, eph.Af0, eph.Af1, eph.Af2
		}
		req.Satellites = append(req.Satellites, so)
	}
	return req
}

func (p *Pipeline) buildSnapshot(epoch uint64, fixSummary string) diagnostics.Snapshot {
	snap := diagnostics.Snapshot{Epoch: epoch, FixSummary: fixSummary}
	prns := make([]int, 0, len(p.tracks))
	for prn := range p.tracks {
		prns = append(prns, prn)
	}
	sort.Ints(prns)

	var focus *track
	for _, prn := range prns {
		t := p.tracks[prn]
		snap.Channels = append(snap.Channels, diagnostics.ChannelSnapshot{
			PRN: prn, Locked: t.ch.State >= tracking.StateTrackLocked,
			CN0: t.ch.CN0(), DopplerHz: t.ch.DopplerHz(), CodePhaseChips: t.ch.CodePhaseChips(),
		})
		if focus == nil || t.ch.CN0() > focus.ch.CN0() {
			focus = t
		}
	}
	if focus != nil {
		for _, s := range focus.ch.History() {
			snap.Constellation = append(snap.Constellation, diagnostics.ConstellationPoint{I: s.IP, Q: s.QP})
		}
	}
	return snap
}
