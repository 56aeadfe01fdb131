package scheduler

import "github.com/bellum/bellum/pkg/estimator"

// SolverDescriptor is what the solver registry (spec.md §4.6) discovers
// and exposes: a name, a human description, and a factory that builds the
// engine half of a Scheduler around a given estimator.
type SolverDescriptor struct {
	Name        string
	Description string
	NewEngine   func(est estimator.TimeEstimator) Engine
}
