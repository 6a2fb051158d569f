package config

import (
	"errors"

	"github.com/doismellburning/gnssrecv/internal/gnsserr"
)

// errUsage wraps any command-line validation failure; the CLI layer
// maps it to ExitUsageError.
var errUsage = errors.New("usage error")

// errHelpRequested is returned (not an error condition) when -? was
// given; the CLI layer maps it to ExitSuccess after usage has already
// been printed.
var errHelpRequested = errors.New("help requested")

// ExitCodeFor maps an error from Parse, or one surfaced later from
// opening a source, to the process exit code spec.md §6 specifies.
func ExitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errHelpRequested):
		return ExitSuccess
	case errors.Is(err, errUsage):
		return ExitUsageError
	case errors.Is(err, gnsserr.ErrInputIO), errors.Is(err, gnsserr.ErrInputEncodingUnsupported),
		errors.Is(err, gnsserr.ErrInputTruncated):
		return ExitInputIO
	case errors.Is(err, gnsserr.ErrDeviceUnavailable), errors.Is(err, gnsserr.ErrDeviceStall):
		return ExitDeviceErr
	default:
		return ExitInternal
	}
}
