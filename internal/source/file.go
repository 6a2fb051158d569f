package source

import (
	"fmt"
	"os"

	"github.com/doismellburning/gnssrecv/internal/gnsserr"
	"github.com/doismellburning/gnssrecv/internal/iq"
)

// FileSource reads IQ samples from a plain file (`-f`, spec.md §6).
type FileSource struct {
	Path         string
	Encoding     iq.Encoding
	SampleRateHz float64
}

// Open opens the file for reading. A missing or unreadable file is an
// I/O error per spec.md §7 (exit code 3 at the CLI layer).
func (s FileSource) Open() (Stream, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return Stream{}, fmt.Errorf("%w: %s: %v", gnsserr.ErrInputIO, s.Path, err)
	}
	return Stream{
		Reader:       f,
		Closer:       f,
		Encoding:     s.Encoding,
		SampleRateHz: s.SampleRateHz,
	}, nil
}
