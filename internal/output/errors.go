package output

import "errors"

// Domain-specific errors for output control.
var (
	// ErrInvalidCommand is returned for a state query other than on, off or toggle.
	ErrInvalidCommand = errors.New("output: invalid command")

	// ErrInvalidState is returned when a configured state is neither on nor off.
	ErrInvalidState = errors.New("output: invalid state")

	// ErrDriver is returned when the driver could not apply a state.
	ErrDriver = errors.New("output: driver failed")
)
