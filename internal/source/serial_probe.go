package source

import (
	"fmt"

	"go.bug.st/serial/enumerator"
)

// SerialCandidate describes a serial port that looks like it could be
// a GNSS front-end exposing a control or NMEA side-channel. This is
// never on the hot IQ path, and the `-d` USB source does not call
// ProbeSerialPorts; it is a standalone enumeration helper.
type SerialCandidate struct {
	Port         string
	VID          string
	PID          string
	SerialNumber string
}

// ProbeSerialPorts enumerates attached serial devices and reports the
// ones carrying USB VID/PID metadata, the way a user would cross-check
// `lsusb` output against `/dev/ttyUSB*` by hand.
func ProbeSerialPorts() ([]SerialCandidate, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("probe serial ports: %w", err)
	}

	candidates := make([]SerialCandidate, 0, len(ports))
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		candidates = append(candidates, SerialCandidate{
			Port:         p.Name,
			VID:          p.VID,
			PID:          p.PID,
			SerialNumber: p.SerialNumber,
		})
	}
	return candidates, nil
}
