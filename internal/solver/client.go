package solver

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/doismellburning/gnssrecv/internal/gnsserr"
)

// Client talks to an external PVT solver process over a line-based
// TCP protocol: one request line per epoch, one response line back.
// The wire format intentionally mirrors the teacher's Tier 2 server
// relay (src/igate.go): plain ASCII, newline-terminated, read with a
// buffered reader rather than byte-at-a-time framing.
type Client struct {
	addr string
	conn net.Conn
	rw   *bufio.ReadWriter
}

// NewClient does not dial; the connection is established lazily on
// the first Solve call, same as the rtl_tcp source reconnecting on
// demand rather than failing construction.
func NewClient(addr string) *Client {
	return &Client{addr: addr}
}

func (c *Client) ensureConnected() error {
	if c.conn != nil {
		return nil
	}
	conn, err := net.DialTimeout("tcp", c.addr, 5*time.Second)
	if err != nil {
		return fmt.Errorf("%w: solver %s: %v", gnsserr.ErrDeviceUnavailable, c.addr, err)
	}
	c.conn = conn
	c.rw = bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))
	return nil
}

// Solve sends one request line and blocks for the matching response
// line. A read or write failure drops the connection so the next
// call redials.
func (c *Client) Solve(req Request) (Fix, error) {
	if err := c.ensureConnected(); err != nil {
		return Fix{}, err
	}

	if _, err := c.rw.WriteString(encodeRequest(req)); err != nil {
		c.reset()
		return Fix{}, fmt.Errorf("%w: solver write: %v", gnsserr.ErrDeviceStall, err)
	}
	if err := c.rw.Flush(); err != nil {
		c.reset()
		return Fix{}, fmt.Errorf("%w: solver flush: %v", gnsserr.ErrDeviceStall, err)
	}

	line, err := c.rw.ReadString('\n')
	if err != nil {
		c.reset()
		return Fix{}, fmt.Errorf("%w: solver read: %v", gnsserr.ErrDeviceStall, err)
	}

	return decodeResponse(req.Epoch, line)
}

func (c *Client) reset() {
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = nil
	c.rw = nil
}

// Close releases the underlying connection, if any.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.rw = nil
	return err
}

// encodeRequest renders a Request as a single line:
//
//	EPOCH <epoch> <receiveTimeSeconds> <nsat> (SAT <prn> <pseudorange> <doppler> <cn0> <ephemeris...>)*
func encodeRequest(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "EPOCH %d %.9f %d", req.Epoch, req.ReceiveTimeSeconds, len(req.Satellites))
	for _, s := range req.Satellites {
		fmt.Fprintf(&b, " SAT %d %.4f %.4f %.2f %d %.3f %.9f %.9f %.9f %.9f %.9f %.9f %.9f %.9f %.3f %.3f %.3f %.3f %.3f %.3f %.12f %.9f %.12f %.9f",
			s.PRN, s.PseudorangeM, s.DopplerHz, s.CN0,
			s.WeekNumber, s.Toe, s.SqrtA, s.Ecc, s.I0, s.Omega0, s.Omega, s.OmegaDot, s.M0,
			s.DeltaN, s.IDot, s.Cuc, s.Cus, s.Crc, s.Crs, s.Cic, s.Cis,
			s.TGD, s.Af0, s.Af1, s.Af2)
	}
	b.WriteByte('\n')
	return b.String()
}

// decodeResponse parses a reply of either form:
//
//	FIX <lat_deg> <lon_deg> <height_m> <vx> <vy> <vz> <clockBiasSeconds> <nsat>
//	INSUFFICIENT
func decodeResponse(epoch uint64, line string) (Fix, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Fix{}, fmt.Errorf("%w: empty solver response", gnsserr.ErrInsufficientSatellites)
	}

	switch fields[0] {
	case "INSUFFICIENT":
		return Fix{}, gnsserr.ErrInsufficientSatellites
	case "FIX":
		if len(fields) != 9 {
			return Fix{}, fmt.Errorf("%w: malformed FIX response %q", gnsserr.ErrInternalInvariant, line)
		}
		vals := make([]float64, 8)
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return Fix{}, fmt.Errorf("%w: malformed FIX field %q: %v", gnsserr.ErrInternalInvariant, f, err)
			}
			vals[i] = v
		}
		return Fix{
			Epoch: epoch,
			LatLng: s2.LatLng{
				Lat: s1.Angle(vals[0] * (3.141592653589793 / 180)),
				Lng: s1.Angle(vals[1] * (3.141592653589793 / 180)),
			},
			HeightM:          vals[2],
			VelocityECEFMps:  [3]float64{vals[3], vals[4], vals[5]},
			ClockBiasSeconds: vals[6],
			NumSatellites:    int(vals[7]),
		}, nil
	default:
		return Fix{}, fmt.Errorf("%w: unrecognized solver response %q", gnsserr.ErrInternalInvariant, line)
	}
}
