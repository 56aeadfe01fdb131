package estimator

import (
	"fmt"
	"time"

	"github.com/bellum/bellum/pkg/domain"
)

// pairKey identifies one (employee,task) pairing for CustomEstimator's map.
type pairKey struct {
	employeeID string
	taskID     string
}

// CustomEstimator looks duration up from a pre-built map, typically sourced
// from an external estimation matrix (spec.md §4.2).
type CustomEstimator struct {
	durations map[pairKey]time.Duration
}

// NewCustomEstimator builds a CustomEstimator from a map keyed by
// (employee, task).
func NewCustomEstimator(durations map[domain.Identifier[domain.Employee]]map[domain.Identifier[domain.Task]]time.Duration) CustomEstimator {
	flat := make(map[pairKey]time.Duration)
	for empID, row := range durations {
		for taskID, d := range row {
			flat[pairKey{empID.String(), taskID.String()}] = d
		}
	}
	return CustomEstimator{durations: flat}
}

// Estimate implements TimeEstimator.
func (c CustomEstimator) Estimate(employee domain.Employee, task domain.Task) (time.Duration, error) {
	key := pairKey{employee.ID().String(), task.ID().String()}
	d, ok := c.durations[key]
	if !ok {
		return 0, estimationFailure(fmt.Sprintf(
			"no custom duration for employee %s / task %s", employee.ID(), task.ID()))
	}
	return d, nil
}
