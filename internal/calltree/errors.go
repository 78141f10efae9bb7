package calltree

import (
	"errors"
	"fmt"
)

var (
	// ErrUnmatchedLeave reports a Leave with no open Enter.
	ErrUnmatchedLeave = errors.New("unmatched leave")
	// ErrUnterminatedCall reports an Enter still open at end of stream.
	ErrUnterminatedCall = errors.New("unterminated call")
	// ErrMismatchedLeave reports a named Leave that does not close the
	// innermost open call.
	ErrMismatchedLeave = errors.New("mismatched leave")
	// ErrUnknownEvent reports an event kind outside enter|leave.
	ErrUnknownEvent = errors.New("unknown event")
)

// UnmatchedLeaveError is returned for a Leave at the outermost level.
type UnmatchedLeaveError struct {
	Index int
}

func (e *UnmatchedLeaveError) Error() string {
	return fmt.Sprintf("event %d: leave without a matching enter", e.Index)
}

func (e *UnmatchedLeaveError) Unwrap() error { return ErrUnmatchedLeave }

// UnterminatedCallError names the innermost call left open at end of stream.
type UnterminatedCallError struct {
	Index  int    // position of the Enter event
	FnName string // name of the open call
	Depth  int    // number of calls still open
}

func (e *UnterminatedCallError) Error() string {
	return fmt.Sprintf("event %d: call %q never left (%d open at end of stream)", e.Index, e.FnName, e.Depth)
}

func (e *UnterminatedCallError) Unwrap() error { return ErrUnterminatedCall }

// MismatchedLeaveError is returned when Options.MatchNames is set and a Leave
// names a different function than the innermost open call.
type MismatchedLeaveError struct {
	Index int
	Got   string
	Want  string
}

func (e *MismatchedLeaveError) Error() string {
	return fmt.Sprintf("event %d: leave %q closes open call %q", e.Index, e.Got, e.Want)
}

func (e *MismatchedLeaveError) Unwrap() error { return ErrMismatchedLeave }

// UnknownEventError is returned for an event whose Kind is not enter or leave.
type UnknownEventError struct {
	Index int
	Kind  Kind
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("event %d: unknown kind %d", e.Index, e.Kind)
}

func (e *UnknownEventError) Unwrap() error { return ErrUnknownEvent }
