package measurement

import (
	"fmt"
	"os"
	"time"

	"github.com/creack/pty"

	"github.com/doismellburning/gnssrecv/internal/logging"
)

// writeDeadline bounds how long a tap write may block: if nothing is
// reading the other end of the pseudo terminal, we drop the line
// rather than stall measurement production (the failure mode the
// teacher's own kisspt_open_pt notes it once had trouble with).
const writeDeadline = 20 * time.Millisecond

// PtyTap is an optional, best-effort debug sink: one human-readable
// line per measurement, written to a pseudo terminal. It is off by
// default and never causes the pipeline to block or fail.
type PtyTap struct {
	master *os.File
	slaveName string
}

// NewPtyTap opens a pseudo terminal pair and returns a tap writing to
// the master side; SlaveName() is the path a client should open to
// read the stream.
func NewPtyTap() (*PtyTap, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, err
	}
	name := slave.Name()
	slave.Close()
	return &PtyTap{master: master, slaveName: name}, nil
}

// SlaveName is the path to open on the other end (e.g. /dev/pts/7).
func (p *PtyTap) SlaveName() string { return p.slaveName }

// Write emits one line per measurement. Errors (including a timed-out
// write because nobody is listening) are logged and otherwise
// ignored, per spec.md's "one-way, non-fatal" diagnostic contract.
func (p *PtyTap) Write(ms []Measurement) {
	if p == nil || p.master == nil {
		return
	}
	_ = p.master.SetWriteDeadline(time.Now().Add(writeDeadline))
	for _, m := range ms {
		line := fmt.Sprintf("PRN%02d epoch=%d ttx=%.9f rho=%.3f doppler=%.2f cn0=%.1f\n",
			m.PRN, m.Epoch, m.TransmitTime, m.PseudorangeM, m.DopplerHz, m.CN0)
		if _, err := p.master.Write([]byte(line)); err != nil {
			logging.Debugf("measurement: pty tap write: %v", err)
			return
		}
	}
}

// Close releases the master side of the pseudo terminal.
func (p *PtyTap) Close() error {
	if p == nil || p.master == nil {
		return nil
	}
	return p.master.Close()
}
