package httpapi

import (
	"sync"

	"github.com/bellum/bellum/pkg/domain"
)

// runState tracks one /runs invocation's accumulated solutions for the
// GET /runs/{id} and /runs/{id}/stream endpoints. The Scheduler itself
// holds no memory of past runs (SPEC_FULL.md §8's "ledger is never
// load-bearing") — this registry is httpapi's own bookkeeping layered on
// top via the scheduler.SolutionBroadcaster hook.
type runState struct {
	mu        sync.Mutex
	solutions []domain.SchedulerSolution
	done      bool
	runErr    error
	listeners map[chan domain.SchedulerSolution]struct{}
}

func newRunState() *runState {
	return &runState{listeners: make(map[chan domain.SchedulerSolution]struct{})}
}

func (rs *runState) append(solution domain.SchedulerSolution) {
	rs.mu.Lock()
	rs.solutions = append(rs.solutions, solution)
	for ch := range rs.listeners {
		select {
		case ch <- solution:
		default:
		}
	}
	rs.mu.Unlock()
}

func (rs *runState) finish(err error) {
	rs.mu.Lock()
	rs.done = true
	rs.runErr = err
	for ch := range rs.listeners {
		close(ch)
	}
	rs.listeners = nil
	rs.mu.Unlock()
}

func (rs *runState) snapshot() ([]domain.SchedulerSolution, bool, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make([]domain.SchedulerSolution, len(rs.solutions))
	copy(out, rs.solutions)
	return out, rs.done, rs.runErr
}

func (rs *runState) subscribe() chan domain.SchedulerSolution {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	ch := make(chan domain.SchedulerSolution, 16)
	if rs.done {
		close(ch)
		return ch
	}
	rs.listeners[ch] = struct{}{}
	return ch
}

func (rs *runState) unsubscribe(ch chan domain.SchedulerSolution) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	delete(rs.listeners, ch)
}

// RunRegistry is a process-local map of run id -> runState, and itself
// implements scheduler.SolutionBroadcaster.
type RunRegistry struct {
	mu   sync.RWMutex
	runs map[string]*runState
}

// NewRunRegistry builds an empty RunRegistry.
func NewRunRegistry() *RunRegistry {
	return &RunRegistry{runs: make(map[string]*runState)}
}

func (r *RunRegistry) start(runID domain.Identifier[domain.SchedulerRunRecord]) *runState {
	rs := newRunState()
	r.mu.Lock()
	r.runs[runID.String()] = rs
	r.mu.Unlock()
	return rs
}

func (r *RunRegistry) get(runID string) (*runState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rs, ok := r.runs[runID]
	return rs, ok
}

// Broadcast implements scheduler.SolutionBroadcaster.
func (r *RunRegistry) Broadcast(runID domain.Identifier[domain.SchedulerRunRecord], solution domain.SchedulerSolution) {
	if rs, ok := r.get(runID.String()); ok {
		rs.append(solution)
	}
}
