// Package gnsserr defines the error kinds used across the receiver
// pipeline, per the propagation policy: recoverable conditions are
// handled locally, structural ones terminate with a clear message,
// and InternalInvariant aborts after the caller dumps state.
package gnsserr

import "errors"

var (
	// ErrInputEncodingUnsupported is structural: the requested sample
	// encoding is not one the Conditioner knows how to decode.
	ErrInputEncodingUnsupported = errors.New("input sample encoding unsupported")

	// ErrInputTruncated is returned alongside the final, zero-padded
	// IqBlock when a file ends mid-block. Not fatal.
	ErrInputTruncated = errors.New("input truncated at end of stream")

	// ErrInputIO is structural: the configured file input could not be
	// opened or read at all (maps to CLI exit code 3, spec.md §6).
	ErrInputIO = errors.New("input I/O error")

	// ErrDeviceUnavailable is structural: the configured device could
	// not be opened at all.
	ErrDeviceUnavailable = errors.New("device unavailable")

	// ErrDeviceStall is recoverable: the device stopped delivering
	// samples and the caller may attempt to reconnect.
	ErrDeviceStall = errors.New("device stalled")

	// ErrAcquisitionNoDetection is informational, never logged above
	// DEBUG: the 2-D search simply found nothing above threshold.
	ErrAcquisitionNoDetection = errors.New("no detection above threshold")

	// ErrChannelLost is routine: lock was lost for longer than the
	// sustained-loss window and the channel was recycled.
	ErrChannelLost = errors.New("channel lost lock")

	// ErrParityFailure discards a single 30-bit word; it never
	// invalidates more than the word (and by extension, its subframe).
	ErrParityFailure = errors.New("word failed parity")

	// ErrSubframeMismatch means IODE/IODC disagreed across subframes;
	// the previously valid ephemeris, if any, is retained.
	ErrSubframeMismatch = errors.New("subframe IODE/IODC mismatch")

	// ErrInsufficientSatellites comes back from the solver
	// collaborator when too few measurements were handed to it.
	ErrInsufficientSatellites = errors.New("insufficient satellites for a fix")

	// ErrInternalInvariant marks a condition the pipeline itself
	// promises can never happen. Callers should dump state and abort.
	ErrInternalInvariant = errors.New("internal invariant violated")
)
