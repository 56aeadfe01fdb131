// Package estimator provides the TimeEstimator abstraction (spec.md §4.2):
// a way to estimate how long an (Employee, Task) pairing will take.
package estimator

import (
	"time"

	"github.com/bellum/bellum/pkg/domain"
	"github.com/bellum/bellum/pkg/validation"
)

// EstimationError is returned by a TimeEstimator when no duration can be
// produced for a given (employee, task) pairing.
type EstimationError struct {
	kind    validation.ErrorKind
	message string
}

func (e *EstimationError) Error() string              { return e.message }
func (e *EstimationError) Kind() validation.ErrorKind { return e.kind }

func insufficientSkills(msg string) *EstimationError {
	return &EstimationError{kind: validation.KindInsufficientSkills, message: msg}
}

func estimationFailure(msg string) *EstimationError {
	return &EstimationError{kind: validation.KindEstimationFailure, message: msg}
}

// TimeEstimator estimates how long employee would take to complete task.
type TimeEstimator interface {
	Estimate(employee domain.Employee, task domain.Task) (time.Duration, error)
}

// TimeEstimatorFunc adapts a plain function to TimeEstimator.
type TimeEstimatorFunc func(domain.Employee, domain.Task) (time.Duration, error)

// Estimate implements TimeEstimator.
func (f TimeEstimatorFunc) Estimate(e domain.Employee, t domain.Task) (time.Duration, error) {
	return f(e, t)
}
