package source

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/doismellburning/gnssrecv/internal/gnsserr"
	"github.com/doismellburning/gnssrecv/internal/iq"
	"github.com/doismellburning/gnssrecv/internal/logging"
)

// rtl_tcp command IDs (librtlsdr's rtl_tcp wire protocol): one byte
// command followed by a big-endian uint32 parameter.
const (
	cmdSetFrequency  byte = 0x01
	cmdSetSampleRate byte = 0x02
	cmdSetGainMode   byte = 0x03
	cmdSetGain       byte = 0x04
	cmdSetAGCMode    byte = 0x08
	cmdSetBiasTee    byte = 0x0E
)

// RTLTCPSource connects to a remote rtl_tcp server (`-h`, spec.md §6).
// The server always streams unsigned 8-bit interleaved IQ.
type RTLTCPSource struct {
	Addr         string // host[:port]; default port 1234 if missing
	SampleRateHz float64
	FrequencyHz  uint32
	GainTenthDb  int32 // negative means AGC
	BiasTee      bool  // powers an external LNA over the antenna feed
}

// reconnectingConn wraps a TCP connection to a rtl_tcp server and
// transparently redials on a read error, the same "reattach and keep
// going" loop as the teacher's nettnc_listen_thread, but surfaced
// through a plain io.Reader instead of a background goroutine pushing
// into a channel.
type reconnectingConn struct {
	addr    string
	conn    net.Conn
	onRetry func()
}

func dialRTLTCP(addr string) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%w: rtl_tcp %s: %v", gnsserr.ErrDeviceUnavailable, addr, err)
	}
	return conn, nil
}

func (r *reconnectingConn) Read(p []byte) (int, error) {
	if r.conn == nil {
		conn, err := dialRTLTCP(r.addr)
		if err != nil {
			return 0, err
		}
		r.conn = conn
	}

	n, err := r.conn.Read(p)
	if err != nil {
		logging.Warnf("source: rtl_tcp connection to %s lost: %v", r.addr, err)
		r.conn.Close()
		r.conn = nil
		if r.onRetry != nil {
			r.onRetry()
		}
		return n, gnsserr.ErrDeviceStall
	}
	return n, nil
}

func (r *reconnectingConn) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

func sendCommand(w io.Writer, cmd byte, param uint32) error {
	buf := make([]byte, 5)
	buf[0] = cmd
	binary.BigEndian.PutUint32(buf[1:], param)
	_, err := w.Write(buf)
	return err
}

// Open dials the server, applies the configured tuner parameters, and
// returns a Stream whose Reader reports a dropped connection as
// gnsserr.ErrDeviceStall and redials on the next Read (spec.md §7
// ErrDeviceStall is recoverable).
func (s RTLTCPSource) Open() (Stream, error) {
	addr := s.Addr
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "1234")
	}

	conn, err := dialRTLTCP(addr)
	if err != nil {
		return Stream{}, err
	}

	if s.FrequencyHz != 0 {
		_ = sendCommand(conn, cmdSetFrequency, s.FrequencyHz)
	}
	if s.SampleRateHz != 0 {
		_ = sendCommand(conn, cmdSetSampleRate, uint32(s.SampleRateHz))
	}
	if s.GainTenthDb < 0 {
		_ = sendCommand(conn, cmdSetGainMode, 0)
		_ = sendCommand(conn, cmdSetAGCMode, 1)
	} else {
		_ = sendCommand(conn, cmdSetGainMode, 1)
		_ = sendCommand(conn, cmdSetAGCMode, 0)
		_ = sendCommand(conn, cmdSetGain, uint32(s.GainTenthDb))
	}
	if s.BiasTee {
		_ = sendCommand(conn, cmdSetBiasTee, 1)
	}

	rc := &reconnectingConn{addr: addr, conn: conn}
	return Stream{
		Reader:       rc,
		Closer:       rc,
		Encoding:     iq.EncodingU8,
		SampleRateHz: s.SampleRateHz,
	}, nil
}
