package iq

import (
	"errors"
	"io"

	"github.com/doismellburning/gnssrecv/internal/gnsserr"
)

// DefaultFs is 2x the 1.023 Mcps chipping rate, the receiver's native
// processing rate per spec.md §4.1.
const DefaultFs = 2_046_000.0

// Conditioner turns a byte stream in one recognized encoding into a
// sequence of fixed-size, canonical-rate Blocks. It treats finite
// (file) and unbounded (device) sources identically: both are just an
// io.Reader, and end-of-stream is communicated the same way (io.EOF).
type Conditioner struct {
	decode decodeFunc
	bps    int // bytes per complex sample on the wire

	inRate, fs float64
	n          int // samples per output block
	resampler  *Resampler

	epoch uint64
	done  bool
}

// NewConditioner builds a Conditioner for the given encoding, native
// input sample rate, and target Fs. If inRate differs from fs the
// Conditioner resamples via a polyphase interpolator before blocking.
func NewConditioner(enc Encoding, inRate, fs float64) *Conditioner {
	if fs <= 0 {
		fs = DefaultFs
	}
	c := &Conditioner{
		decode: decoderFor(enc),
		bps:    enc.BytesPerSample(),
		inRate: inRate,
		fs:     fs,
		n:      N(fs),
	}
	if inRate > 0 && inRate != fs {
		c.resampler = NewResampler(inRate, fs)
	}
	return c
}

// Next reads and decodes exactly enough wire bytes to produce one
// Block of N canonical-rate samples, resampling if configured.
//
// On a short read at end-of-stream, the final block is flushed
// zero-padded with Truncated set and err wraps gnsserr.ErrInputTruncated;
// no further blocks are available afterward (Next returns io.EOF).
// A dropped rtl_tcp connection surfaces as gnsserr.ErrDeviceStall via
// the Reader itself (see internal/source); the local USB reader passes
// gousb's own read error through unchanged. The Conditioner does not
// distinguish either from any other read error except io.EOF.
func (c *Conditioner) Next(r io.Reader) (Block, error) {
	if c.done {
		return Block{}, io.EOF
	}

	var produced []Sample
	rawSampleBuf := make([]byte, 4096*c.bps)
	decodeBuf := make([]Sample, 4096)

	nativeNeeded := c.n
	if c.resampler != nil {
		// Read somewhat more than n native-rate samples so the
		// resampler has enough history to emit n output samples;
		// exact amount doesn't matter since excess just carries into
		// the next call via the resampler's internal phase state.
		nativeNeeded = int(float64(c.n)*c.inRate/c.fs) + 2*defaultHalfWidth + 1
	}

	readSamples := 0
	var readErr error

	for readSamples < nativeNeeded {
		want := nativeNeeded - readSamples
		if want > len(decodeBuf) {
			want = len(decodeBuf)
		}
		raw := rawSampleBuf[:want*c.bps]
		got, err := io.ReadFull(r, raw)
		gotSamples := got / c.bps

		if gotSamples > 0 {
			buf := decodeBuf[:gotSamples]
			c.decode(raw[:gotSamples*c.bps], buf)
			if c.resampler != nil {
				produced = c.resampler.Resample(buf, produced)
			} else {
				produced = append(produced, buf...)
			}
			readSamples += gotSamples
		}

		if err != nil {
			readErr = err
			break
		}
	}

	truncated := false
	if readErr != nil {
		if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
			truncated = true
			c.done = true
		} else {
			return Block{}, readErr
		}
	}

	// Trim or zero-pad produced to exactly n samples.
	out := make([]Sample, c.n)
	copy(out, produced)
	if len(produced) < c.n {
		truncated = true
	}

	block := Block{
		Epoch:     c.epoch,
		Fs:        c.fs,
		Samples:   out,
		Truncated: truncated,
	}
	c.epoch++

	if truncated {
		return block, gnsserr.ErrInputTruncated
	}
	return block, nil
}
