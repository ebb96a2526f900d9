// Package errs defines the sentinel errors shared across the negentropy
// packages. Callers match them with errors.Is; use sites add context with
// fmt.Errorf("%w: ...").
package errs

import "errors"

// Item store lifecycle errors.
var (
	// ErrAlreadySealed is returned when mutating or re-sealing a sealed vector.
	ErrAlreadySealed = errors.New("already sealed")

	// ErrNotSealed is returned when querying a vector that has not been sealed.
	ErrNotSealed = errors.New("not sealed")
)

// Wire format and protocol errors.
var (
	// ErrInvalidIDSize is returned when an id or bound prefix length does not
	// fit the configured id size, or the id size itself is out of range.
	ErrInvalidIDSize = errors.New("invalid id size")

	// ErrUnsupportedProtocolVersion is returned when an incoming message does
	// not start with the supported protocol version byte.
	ErrUnsupportedProtocolVersion = errors.New("unsupported protocol version")

	// ErrUnexpectedMode is returned when a record carries a reserved mode.
	ErrUnexpectedMode = errors.New("unexpected mode")

	// ErrParseEnded is returned when input ends inside a varint or a
	// fixed-size read.
	ErrParseEnded = errors.New("parse ended prematurely")

	// ErrInitiator is returned on role misuse: initiating twice, initiating
	// an engine that has already acted as responder, or operating a finished
	// engine.
	ErrInitiator = errors.New("initiator error")

	// ErrFrameSizeLimitTooSmall is returned when a nonzero frame size limit
	// is below the minimum.
	ErrFrameSizeLimitTooSmall = errors.New("frame size limit too small")
)

// Boundary helper errors.
var (
	// ErrHexDecode is returned for odd-length or non-hex input.
	ErrHexDecode = errors.New("hex decode error")
)

// Snapshot errors.
var (
	// ErrInvalidSnapshot is returned when a snapshot header or field is malformed.
	ErrInvalidSnapshot = errors.New("invalid snapshot")

	// ErrChecksumMismatch is returned when a snapshot checksum does not match
	// its contents.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)
