package artifact

import (
	"errors"
	"fmt"
)

// ErrInvalidStateTransition is returned when an operation is not permitted
// from the artifact's current state.
var ErrInvalidStateTransition = errors.New("invalid state transition")

// TransitionError describes a rejected transition.
type TransitionError struct {
	Op   string
	From State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v: %s not allowed from %s", ErrInvalidStateTransition, e.Op, e.From)
}

// Unwrap allows errors.Is(err, ErrInvalidStateTransition).
func (e *TransitionError) Unwrap() error { return ErrInvalidStateTransition }

func transitionError(op string, from State) error {
	return &TransitionError{Op: op, From: from}
}
