// Package source implements the three IQ input drivers spec.md §6
// names: a plain file, a locally attached RTL-SDR tuner over USB, and
// a remote rtl_tcp server. Each produces a raw byte stream plus the
// metadata the Sample Conditioner (internal/iq) needs to decode it.
package source

import (
	"io"

	"github.com/doismellburning/gnssrecv/internal/iq"
)

// Stream is an opened input: a byte reader, its encoding, and the
// sample rate it was produced at (which may differ from the
// Conditioner's target Fs, in which case the Conditioner resamples).
type Stream struct {
	Reader       io.Reader
	Closer       io.Closer
	Encoding     iq.Encoding
	SampleRateHz float64
}

// Close releases the underlying device/file/socket, if any.
func (s Stream) Close() error {
	if s.Closer == nil {
		return nil
	}
	return s.Closer.Close()
}
