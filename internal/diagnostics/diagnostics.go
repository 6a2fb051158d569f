// Package diagnostics implements the one-way diagnostic output
// spec.md §6 describes: periodic PNG plots plus a static index.html,
// optionally advertised on the LAN over mDNS. Nothing here may ever
// perturb the acquisition/tracking pipeline — every failure is
// logged and swallowed, never propagated as an error the caller must
// react to.
package diagnostics

// ChannelSnapshot is one tracked channel's state at the moment a
// diagnostic snapshot was taken.
type ChannelSnapshot struct {
	PRN            int
	Locked         bool
	CN0            float64
	DopplerHz      float64
	CodePhaseChips float64
}

// ConstellationPoint is one correlator output sample (prompt I/Q) for
// the constellation scatter plot.
type ConstellationPoint struct {
	I, Q float64
}

// DiscriminatorSample is one tick of a code or carrier discriminator
// trace.
type DiscriminatorSample struct {
	TimeSeconds float64
	Value       float64
}

// AcquisitionSurface is the 2-D code-delay/Doppler correlation
// magnitude grid produced by a single acquisition attempt.
type AcquisitionSurface struct {
	PRN          int
	DopplerBinsHz []float64
	CodeBinsChips []float64
	// Magnitude[i][j] is the correlation magnitude at
	// DopplerBinsHz[i], CodeBinsChips[j].
	Magnitude [][]float64
}

// Snapshot is everything a single diagnostic tick renders: every
// channel's summary, one channel's constellation/discriminator
// traces (the currently "focused" channel, typically the
// highest-CN0 one), and the most recent acquisition surface, if any.
type Snapshot struct {
	Epoch             uint64
	Channels          []ChannelSnapshot
	Constellation     []ConstellationPoint
	CodeDiscriminator []DiscriminatorSample
	CarrierDiscriminator []DiscriminatorSample
	Acquisition       *AcquisitionSurface
	FixSummary        string
}
