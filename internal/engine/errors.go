package engine

import (
	"errors"
	"fmt"
)

// ErrStopped is returned when a slot is stopped while a caller waits on it.
var ErrStopped = errors.New("engine stopped")

var errEmptyPath = errors.New("empty path")

// SlotRangeError reports a slot id outside [0, N).
type SlotRangeError struct {
	ID int
	N  int
}

func (e *SlotRangeError) Error() string {
	return fmt.Sprintf("slot %d out of range [0,%d)", e.ID, e.N)
}

// InvalidPathError reports a missing or unusable engine executable path.
// No process is created when it is returned.
type InvalidPathError struct {
	Path string
	Err  error
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid engine path %q: %v", e.Path, e.Err)
}

func (e *InvalidPathError) Unwrap() error { return e.Err }

// PipeCreationError reports a failure to create the stdio pipes.
type PipeCreationError struct{ Err error }

func (e *PipeCreationError) Error() string { return "create engine pipe: " + e.Err.Error() }

func (e *PipeCreationError) Unwrap() error { return e.Err }

// ProcessSpawnError reports a failure to start the engine process.
type ProcessSpawnError struct {
	Path string
	Err  error
}

func (e *ProcessSpawnError) Error() string {
	return fmt.Sprintf("start engine %q: %v", e.Path, e.Err)
}

func (e *ProcessSpawnError) Unwrap() error { return e.Err }

// ProtocolError reports an unexpected reply during the handshake.
type ProtocolError struct {
	Expect Expect
	Msg    string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error awaiting %s: %s", e.Expect, e.Msg)
}

// ReadFailure reports that the engine output pipe closed or failed. A normal
// engine exit is not distinguished from a crash.
type ReadFailure struct{ Err error }

func (e *ReadFailure) Error() string { return "read engine output: " + e.Err.Error() }

func (e *ReadFailure) Unwrap() error { return e.Err }

// WriteFailure reports a failed command write to the engine input pipe.
type WriteFailure struct {
	Command string
	Err     error
}

func (e *WriteFailure) Error() string {
	return fmt.Sprintf("write %q: %v", e.Command, e.Err)
}

func (e *WriteFailure) Unwrap() error { return e.Err }

// IsSlotRange reports whether err is a *SlotRangeError.
func IsSlotRange(err error) bool {
	var e *SlotRangeError
	return errors.As(err, &e)
}

// IsInvalidPath reports whether err is an *InvalidPathError.
func IsInvalidPath(err error) bool {
	var e *InvalidPathError
	return errors.As(err, &e)
}

// IsLaunchFailure reports whether err is a pipe creation or spawn failure.
func IsLaunchFailure(err error) bool {
	var pe *PipeCreationError
	var se *ProcessSpawnError
	return errors.As(err, &pe) || errors.As(err, &se)
}

// IsProtocol reports whether err is a *ProtocolError.
func IsProtocol(err error) bool {
	var e *ProtocolError
	return errors.As(err, &e)
}

// IsReadFailure reports whether err is a *ReadFailure.
func IsReadFailure(err error) bool {
	var e *ReadFailure
	return errors.As(err, &e)
}
