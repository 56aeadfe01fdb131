package scheduler

import (
	"fmt"

	"github.com/bellum/bellum/pkg/validation"
)

// AlreadyProcessingError is returned when a second solve is attempted on a
// Scheduler that already has one in flight (spec.md §4.3, §5).
type AlreadyProcessingError struct {
	Solver string
}

func (e *AlreadyProcessingError) Error() string {
	return fmt.Sprintf("scheduler %q already has a run in flight", e.Solver)
}

// Kind implements validation.KindedError.
func (e *AlreadyProcessingError) Kind() validation.ErrorKind { return validation.KindAlreadyProcessing }

// CallbackError wraps an error returned by a user-supplied Callback,
// preserving it under errors.As/errors.Unwrap (spec.md §7).
type CallbackError struct {
	cause error
}

func (e *CallbackError) Error() string { return fmt.Sprintf("callback returned an error: %v", e.cause) }

// Unwrap exposes the original callback error.
func (e *CallbackError) Unwrap() error { return e.cause }

// Kind implements validation.KindedError.
func (e *CallbackError) Kind() validation.ErrorKind { return validation.KindCallbackError }
