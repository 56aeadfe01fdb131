package estimator

import (
	"fmt"
	"sync"
	"time"

	"github.com/bellum/bellum/pkg/domain"
	"github.com/bellum/bellum/pkg/validation"
	cache "github.com/patrickmn/go-cache"
)

// EstimationMatrix wraps a TimeEstimator with a memoization cache keyed by
// (EmployeeId, TaskId) (spec.md §4.2). Entries never expire within a
// solving run: the cache is built with no default expiration and no
// janitor sweep, matching "the cache is never invalidated within a solving
// run".
type EstimationMatrix struct {
	estimator TimeEstimator
	cache     *cache.Cache
	employees map[string]domain.Employee
	tasks     map[string]domain.Task

	inflight sync.Map // pairKey.string() -> *inflightCall
}

type inflightCall struct {
	wg       sync.WaitGroup
	duration time.Duration
	err      error
}

// NewEstimationMatrix builds a matrix over the given project, backed by
// estimator for cache misses.
func NewEstimationMatrix(estimator TimeEstimator, project *domain.Project) *EstimationMatrix {
	employees := make(map[string]domain.Employee, len(project.Employees()))
	for _, e := range project.Employees() {
		employees[e.ID().String()] = e
	}
	tasks := make(map[string]domain.Task, len(project.Tasks()))
	for _, t := range project.Tasks() {
		tasks[t.ID().String()] = t
	}
	return &EstimationMatrix{
		estimator: estimator,
		cache:     cache.New(cache.NoExpiration, cache.NoExpiration),
		employees: employees,
		tasks:     tasks,
	}
}

// Estimate returns the memoized duration for (employeeID, taskID),
// computing it on the estimator exactly once per pair even under
// concurrent callers (spec.md §9, "Estimator caching").
func (m *EstimationMatrix) Estimate(employeeID domain.Identifier[domain.Employee], taskID domain.Identifier[domain.Task]) (time.Duration, error) {
	employee, ok := m.employees[employeeID.String()]
	if !ok {
		return 0, &EstimationMatrixError{kindInvalidEmployee, fmt.Sprintf("unknown employee id %s", employeeID)}
	}
	task, ok := m.tasks[taskID.String()]
	if !ok {
		return 0, &EstimationMatrixError{kindInvalidTask, fmt.Sprintf("unknown task id %s", taskID)}
	}

	key := employeeID.String() + "|" + taskID.String()
	if cached, found := m.cache.Get(key); found {
		entry := cached.(cachedEstimate)
		return entry.duration, entry.err
	}

	entry := &inflightCall{}
	entry.wg.Add(1)
	call, loaded := m.inflight.LoadOrStore(key, entry)
	ic := call.(*inflightCall)
	if !loaded {
		if cached, found := m.cache.Get(key); found {
			// Another caller finished this key between the first cache
			// check and LoadOrStore; reuse its result.
			done := cached.(cachedEstimate)
			ic.duration, ic.err = done.duration, done.err
		} else {
			ic.duration, ic.err = m.estimator.Estimate(employee, task)
			m.cache.Set(key, cachedEstimate{ic.duration, ic.err}, cache.NoExpiration)
		}
		m.inflight.Delete(key)
		ic.wg.Done()
	} else {
		ic.wg.Wait()
	}
	return ic.duration, ic.err
}

type cachedEstimate struct {
	duration time.Duration
	err      error
}

type estimationMatrixErrorKind int

const (
	kindInvalidEmployee estimationMatrixErrorKind = iota
	kindInvalidTask
)

// EstimationMatrixError reports an id that is not part of the project the
// matrix was built over.
type EstimationMatrixError struct {
	kind    estimationMatrixErrorKind
	message string
}

func (e *EstimationMatrixError) Error() string { return e.message }

// Kind implements validation.KindedError.
func (e *EstimationMatrixError) Kind() validation.ErrorKind {
	if e.kind == kindInvalidEmployee {
		return validation.KindInvalidEmployeeID
	}
	return validation.KindInvalidTaskID
}
