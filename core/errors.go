package core

import (
	"errors"
	"fmt"

	"github.com/dynbike/dynbike/internal/contract"
)

// Sentinel errors for segmentation and trimming.
var (
	// ErrDegenerateInput means a series offered nothing to act on, such as no flat run at all.
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrBoundaryResolution means a segment boundary did not match any row of the series.
	ErrBoundaryResolution = errors.New("segment boundary not found in series")

	// ErrOperatorInput means an operator response could not be understood.
	ErrOperatorInput = errors.New("invalid operator response")

	// ErrDegenerateSlice means a cut would leave a series with no rows.
	ErrDegenerateSlice = errors.New("cut would leave zero rows")

	// ErrSessionClosed means a response was applied to a session that already finished.
	ErrSessionClosed = errors.New("session is closed")

	// ErrSessionNotFound means no stored state exists for a session ID.
	ErrSessionNotFound = contract.ErrSessionNotFound
)

// BoundaryError reports which boundary second could not be resolved.
type BoundaryError struct {
	Segment int
	Second  int
	Side    string
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("segment %d: no row at second %d for %s boundary", e.Segment, e.Second, e.Side)
}

// Is makes errors.Is(err, ErrBoundaryResolution) match.
func (e *BoundaryError) Is(target error) bool {
	return target == ErrBoundaryResolution
}

// OperatorInputError carries the response that failed to parse.
type OperatorInputError struct {
	Response string
	Reason   string
}

func (e *OperatorInputError) Error() string {
	return fmt.Sprintf("invalid response %q: %s", e.Response, e.Reason)
}

// Is makes errors.Is(err, ErrOperatorInput) match.
func (e *OperatorInputError) Is(target error) bool {
	return target == ErrOperatorInput
}

// IsRecoverable reports whether the session can re-prompt after err.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrOperatorInput) ||
		errors.Is(err, ErrBoundaryResolution) ||
		errors.Is(err, ErrDegenerateSlice)
}
