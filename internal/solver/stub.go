package solver

import "github.com/doismellburning/gnssrecv/internal/gnsserr"

// minSatellitesForFix is the usual GPS-only minimum: 3 for position,
// 1 more to solve for receiver clock bias.
const minSatellitesForFix = 4

// NullSolver rejects every request below the satellite-count floor
// and otherwise reports insufficiency too: it never actually computes
// a fix. It exists so callers (tests, a `-o` run with no configured
// solver address) have something satisfying the Solver interface
// without standing up the real PVT engine, which is out of scope.
type NullSolver struct{}

func (NullSolver) Solve(req Request) (Fix, error) {
	if len(req.Satellites) < minSatellitesForFix {
		return Fix{}, gnsserr.ErrInsufficientSatellites
	}
	return Fix{}, gnsserr.ErrInsufficientSatellites
}
