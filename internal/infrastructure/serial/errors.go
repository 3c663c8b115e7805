package serial

import "errors"

// Domain-specific errors for serial operations.
var (
	// ErrOpenFailed is returned when the serial port cannot be opened.
	ErrOpenFailed = errors.New("serial: open failed")

	// ErrClosed is returned when a command is sent on a closed link.
	ErrClosed = errors.New("serial: link closed")

	// ErrNoReply is returned when the board does not answer before the read timeout.
	ErrNoReply = errors.New("serial: no reply from board")

	// ErrBadReply is returned when the board answers with something other than a JSON object.
	ErrBadReply = errors.New("serial: malformed reply")

	// ErrBoard is returned when the board reports an error in its reply.
	ErrBoard = errors.New("serial: board reported error")
)
