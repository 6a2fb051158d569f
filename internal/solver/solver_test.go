package solver

import (
	"bufio"
	"errors"
	"net"
	"testing"

	"github.com/doismellburning/gnssrecv/internal/gnsserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullSolverAlwaysReportsInsufficientSatellites(t *testing.T) {
	s := NullSolver{}

	_, err := s.Solve(Request{Satellites: make([]SatelliteObservation, 2)})
	require.ErrorIs(t, err, gnsserr.ErrInsufficientSatellites)

	_, err = s.Solve(Request{Satellites: make([]SatelliteObservation, 6)})
	require.ErrorIs(t, err, gnsserr.ErrInsufficientSatellites)
}

func TestDecodeResponseInsufficient(t *testing.T) {
	_, err := decodeResponse(1, "INSUFFICIENT\n")
	require.ErrorIs(t, err, gnsserr.ErrInsufficientSatellites)
}

func TestDecodeResponseFix(t *testing.T) {
	fix, err := decodeResponse(7, "FIX 42.662139 -71.365553 15.2 0.1 -0.2 0.05 0.000001234 5\n")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), fix.Epoch)
	assert.Equal(t, 5, fix.NumSatellites)
	assert.InDelta(t, 15.2, fix.HeightM, 1e-9)
}

func TestDecodeResponseMalformedIsInternalInvariant(t *testing.T) {
	_, err := decodeResponse(1, "FIX not enough fields\n")
	require.ErrorIs(t, err, gnsserr.ErrInternalInvariant)
}

// fakeSolverServer is a minimal stand-in for the external PVT process
// that speaks the Client's line protocol, used to exercise Client.Solve
// end-to-end without a real solver binary.
func fakeSolverServer(t *testing.T, reply string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		reader := bufio.NewReader(conn)
		_, _ = reader.ReadString('\n')
		_, _ = conn.Write([]byte(reply))
	}()
	t.Cleanup(func() { ln.Close() })
	return ln.Addr().String()
}

func TestClientSolveRoundTripsInsufficient(t *testing.T) {
	addr := fakeSolverServer(t, "INSUFFICIENT\n")
	c := NewClient(addr)
	defer c.Close()

	_, err := c.Solve(Request{Epoch: 1, Satellites: []SatelliteObservation{{PRN: 11}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, gnsserr.ErrInsufficientSatellites))
}

func TestClientSolveRoundTripsFix(t *testing.T) {
	addr := fakeSolverServer(t, "FIX 10.0 20.0 30.0 1.0 2.0 3.0 0.0001 5\n")
	c := NewClient(addr)
	defer c.Close()

	fix, err := c.Solve(Request{Epoch: 3, Satellites: []SatelliteObservation{{PRN: 11}, {PRN: 12}, {PRN: 13}, {PRN: 14}}})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), fix.Epoch)
	assert.Equal(t, 5, fix.NumSatellites)
}

func TestEncodeRequestIncludesSatelliteCount(t *testing.T) {
	line := encodeRequest(Request{Epoch: 9, ReceiveTimeSeconds: 123.456, Satellites: []SatelliteObservation{{PRN: 5}}})
	assert.Contains(t, line, "EPOCH 9 123.456000000 1")
}
