package rfm69

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAcknowledged indicates the firmware replied with a status byte other than 'y'.
	ErrNotAcknowledged = errors.New("command not acknowledged")
	// ErrNoReply indicates the transport timed out before the expected reply bytes arrived.
	ErrNoReply = errors.New("no reply from device")
	// ErrMalformedReply indicates an acknowledged reply carried data outside of its valid range.
	ErrMalformedReply = errors.New("malformed reply data")
	// ErrDeviceUnresponsive is returned by Open when the handshake did not succeed within the retry budget.
	ErrDeviceUnresponsive = errors.New("device not found or unresponsive")
	// ErrInvalidArgument is the root of every caller input validation failure.
	// Such failures are always detected before any byte is written to the transport.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotText indicates a packet payload is not valid UTF-8 text.
	ErrNotText = errors.New("payload is not valid text")
)

// CommandError decorates a protocol level failure with the command that caused it.
type CommandError struct {
	Op  Opcode
	Err error
}

// Error implements error.
func (e *CommandError) Error() string {
	return fmt.Sprintf("%s (0x%02X): %v", e.Op, byte(e.Op), e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ArgumentError describes a rejected caller input.
type ArgumentError struct {
	Arg    string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrInvalidArgument, e.Arg, e.Reason)
}

func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

func invalidArg(arg, format string, args ...any) error {
	return &ArgumentError{Arg: arg, Reason: fmt.Sprintf(format, args...)}
}
