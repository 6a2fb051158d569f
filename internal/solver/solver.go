// Package solver defines the thin boundary between the measurement
// builder and the external PVT (position/velocity/time) engine.
// Least-squares positioning from pseudoranges is explicitly out of
// scope (spec.md §1 Non-goals): this package only builds the request
// the measurement builder hands off, and parses back a fix or an
// insufficient-satellites indication, the same "build a request, hand
// it to a collaborator, accept a structured response" shape the
// teacher uses for its Tier 2 server relay (src/igate.go).
package solver

import (
	"github.com/golang/geo/s2"
)

// SatelliteObservation is one satellite's contribution to a solver
// epoch: everything the PVT engine needs to form its own measurement
// equation, duplicated out of internal/measurement.Measurement so
// this package never imports the tracking/navmsg stack directly.
type SatelliteObservation struct {
	PRN          int
	PseudorangeM float64
	DopplerHz    float64
	CN0          float64

	// Ephemeris parameters, copied verbatim from navmsg.Ephemeris so
	// the solver can compute satellite position/velocity without a
	// dependency on internal/navmsg.
	WeekNumber int
	Toe        float64
	SqrtA      float64
	Ecc        float64
	I0         float64
	Omega0     float64
	Omega      float64
	OmegaDot   float64
	M0         float64
	DeltaN     float64
	IDot       float64
	Cuc, Cus   float64
	Crc, Crs   float64
	Cic, Cis   float64
	TGD, Af0   float64
	Af1, Af2   float64
}

// Request is one solver epoch's worth of work: the measurement
// builder's receive time plus every EPHEMERIS_VALID channel's
// observation (spec.md §4.6).
type Request struct {
	Epoch              uint64
	ReceiveTimeSeconds float64
	Satellites         []SatelliteObservation
}

// Fix is the position/velocity/time solution the external solver
// hands back. Velocity is in the ECEF frame; HeightM is height above
// the WGS84 ellipsoid, not above mean sea level.
type Fix struct {
	Epoch            uint64
	LatLng           s2.LatLng
	HeightM          float64
	VelocityECEFMps  [3]float64
	ClockBiasSeconds float64
	NumSatellites    int
}

// Solver is the collaborator interface: anything that can turn a
// Request into a Fix, or report that it couldn't.
type Solver interface {
	Solve(req Request) (Fix, error)
}
