// Package scheduler implements the façade described in spec.md §4.3: a
// single atomic in-flight guard wrapping an engine-specific
// solveOptimizationProblem, with lifecycle logging and optional run-ledger
// and live-broadcast hooks layered on top (SPEC_FULL.md §4.3).
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bellum/bellum/pkg/domain"
	"github.com/hashicorp/go-hclog"
)

// DefaultTimeLimit is used whenever a caller passes a non-positive
// timeLimit (spec.md §4.3, "timeLimit default: 1 minute").
const DefaultTimeLimit = time.Minute

// Callback is invoked for every improving solution a solve produces. It
// MUST be fast and non-blocking; an error returned from it aborts the run
// and surfaces as *CallbackError.
type Callback func(domain.SchedulerSolution) error

// Engine is the engine-specific half of a solver (CP, GA, ...). It must
// invoke onImprovement synchronously, in strictly improving order, and
// abort immediately if onImprovement returns an error.
type Engine interface {
	Name() string
	SolveOptimizationProblem(ctx context.Context, project *domain.Project, timeLimit time.Duration, onImprovement Callback) (domain.SchedulerSolution, error)
}

// RunLedger records SchedulerRunRecord rows for operator visibility. It is
// optional: a nil RunLedger passed to NewScheduler makes every ledger call
// a no-op, and a Scheduler's observable solving behavior is identical with
// or without one (SPEC_FULL.md §8, "ledger is never load-bearing").
type RunLedger interface {
	RecordStart(ctx context.Context, record domain.SchedulerRunRecord) error
	RecordFinish(ctx context.Context, runID domain.Identifier[domain.SchedulerRunRecord], finishedAt time.Time, solutionCount int, bestObjective int64, optimal bool) error
}

// SolutionBroadcaster fans streamed solutions out to external observers
// (the HTTP façade's websocket registry). Broadcast MUST be best-effort:
// it runs after the user callback and must never block or delay a solve.
type SolutionBroadcaster interface {
	Broadcast(runID domain.Identifier[domain.SchedulerRunRecord], solution domain.SchedulerSolution)
}

// Scheduler is the thread-safe façade of spec.md §4.3: at most one solve
// may be in flight per instance, guarded by a single atomic boolean.
type Scheduler struct {
	name        string
	engine      Engine
	logger      hclog.Logger
	ledger      RunLedger
	broadcaster SolutionBroadcaster

	isProcessing atomic.Bool
}

// Option configures optional Scheduler behavior.
type Option func(*Scheduler)

// WithLogger overrides the default hclog logger.
func WithLogger(logger hclog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithRunLedger attaches a run ledger. Omit for ledger-free schedulers.
func WithRunLedger(ledger RunLedger) Option {
	return func(s *Scheduler) { s.ledger = ledger }
}

// WithSolutionBroadcaster attaches a live-update fan-out sink.
func WithSolutionBroadcaster(broadcaster SolutionBroadcaster) Option {
	return func(s *Scheduler) { s.broadcaster = broadcaster }
}

// NewScheduler builds a Scheduler named name around engine.
func NewScheduler(name string, engine Engine, opts ...Option) *Scheduler {
	s := &Scheduler{
		name:   name,
		engine: engine,
		logger: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindOptimalSchedule runs engine.SolveOptimizationProblem, enforcing the
// at-most-one-in-flight contract (spec.md §4.3, §5). On success or failure
// isProcessing is cleared on every exit path.
func (s *Scheduler) FindOptimalSchedule(ctx context.Context, project *domain.Project, timeLimit time.Duration, callback Callback) (domain.SchedulerSolution, error) {
	return s.FindOptimalScheduleWithID(ctx, domain.NewIdentifier[domain.SchedulerRunRecord](), project, timeLimit, callback)
}

// FindOptimalScheduleWithID behaves like FindOptimalSchedule but lets the
// caller mint runID up front, before solving starts — so a live consumer
// (e.g. the HTTP façade's websocket registry) can subscribe to it before
// the first solution is broadcast (SPEC_FULL.md §4.8).
func (s *Scheduler) FindOptimalScheduleWithID(ctx context.Context, runID domain.Identifier[domain.SchedulerRunRecord], project *domain.Project, timeLimit time.Duration, callback Callback) (domain.SchedulerSolution, error) {
	if !s.isProcessing.CompareAndSwap(false, true) {
		return domain.SchedulerSolution{}, &AlreadyProcessingError{Solver: s.name}
	}
	defer s.isProcessing.Store(false)
	return s.runLocked(ctx, runID, project, timeLimit, callback)
}

// runLocked is the actual solve body; callers must already hold
// isProcessing and release it themselves.
func (s *Scheduler) runLocked(ctx context.Context, runID domain.Identifier[domain.SchedulerRunRecord], project *domain.Project, timeLimit time.Duration, callback Callback) (domain.SchedulerSolution, error) {
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}
	runCtx, cancel := context.WithTimeout(ctx, timeLimit)
	defer cancel()

	startedAt := time.Now()
	s.logger.Info("run started", "solver", s.name, "project", project.ID().String(), "time_limit", timeLimit)

	if s.ledger != nil {
		if err := s.ledger.RecordStart(runCtx, domain.SchedulerRunRecord{
			RunID:      runID,
			SolverName: s.name,
			ProjectID:  project.ID(),
			StartedAt:  startedAt,
			TimeLimit:  timeLimit,
		}); err != nil {
			s.logger.Warn("run ledger record-start failed", "error", err)
		}
	}

	solutionCount := 0
	wrapped := func(solution domain.SchedulerSolution) error {
		solutionCount++
		s.logger.Info("solution found", "solver", s.name, "objective", solution.CompositeObjective())
		if err := callback(solution); err != nil {
			return &CallbackError{cause: err}
		}
		if s.broadcaster != nil {
			s.broadcaster.Broadcast(runID, solution)
		}
		return nil
	}

	solution, err := s.engine.SolveOptimizationProblem(runCtx, project, timeLimit, wrapped)

	s.logger.Info("run finished", "solver", s.name, "optimal", solution.Optimal, "error", err)
	if s.ledger != nil {
		if lerr := s.ledger.RecordFinish(ctx, runID, time.Now(), solutionCount, solution.CompositeObjective(), solution.Optimal); lerr != nil {
			s.logger.Warn("run ledger record-finish failed", "error", lerr)
		}
	}

	if err != nil {
		return domain.SchedulerSolution{}, err
	}
	return solution, nil
}

// CollectAllOptimalSchedules wraps FindOptimalSchedule with a FIFO history
// of every streamed solution, the final best appended (spec.md §4.3).
func (s *Scheduler) CollectAllOptimalSchedules(ctx context.Context, project *domain.Project, timeLimit time.Duration, callback Callback) (domain.SolutionHistory, error) {
	return s.CollectAllOptimalSchedulesWithID(ctx, domain.NewIdentifier[domain.SchedulerRunRecord](), project, timeLimit, callback)
}

// CollectAllOptimalSchedulesWithID behaves like CollectAllOptimalSchedules
// but lets the caller mint runID up front, mirroring
// FindOptimalScheduleWithID.
func (s *Scheduler) CollectAllOptimalSchedulesWithID(ctx context.Context, runID domain.Identifier[domain.SchedulerRunRecord], project *domain.Project, timeLimit time.Duration, callback Callback) (domain.SolutionHistory, error) {
	if !s.isProcessing.CompareAndSwap(false, true) {
		return nil, &AlreadyProcessingError{Solver: s.name}
	}
	defer s.isProcessing.Store(false)
	return s.collectLocked(ctx, runID, project, timeLimit, callback)
}

// TryCollectAllOptimalSchedulesAsync attempts to acquire the in-flight
// guard and, if successful, runs CollectAllOptimalSchedulesWithID on a
// background goroutine, invoking onDone exactly once with its result. It
// returns immediately with accepted=false (and acquires nothing) if a run
// was already in flight — the synchronous half of the check the HTTP
// façade's `POST /runs` needs to answer with 409 before the caller's
// connection returns (SPEC_FULL.md §4.8, §5).
func (s *Scheduler) TryCollectAllOptimalSchedulesAsync(ctx context.Context, runID domain.Identifier[domain.SchedulerRunRecord], project *domain.Project, timeLimit time.Duration, callback Callback, onDone func(domain.SolutionHistory, error)) bool {
	if !s.isProcessing.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer s.isProcessing.Store(false)
		history, err := s.collectLocked(ctx, runID, project, timeLimit, callback)
		if onDone != nil {
			onDone(history, err)
		}
	}()
	return true
}

func (s *Scheduler) collectLocked(ctx context.Context, runID domain.Identifier[domain.SchedulerRunRecord], project *domain.Project, timeLimit time.Duration, callback Callback) (domain.SolutionHistory, error) {
	var mu sync.Mutex
	var history domain.SolutionHistory

	collecting := func(solution domain.SchedulerSolution) error {
		if err := callback(solution); err != nil {
			return err
		}
		mu.Lock()
		history = append(history, solution)
		mu.Unlock()
		return nil
	}

	best, err := s.runLocked(ctx, runID, project, timeLimit, collecting)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	history = append(history, best)
	return history, nil
}

// IsAlreadyProcessing reports whether err is (or wraps) an
// *AlreadyProcessingError.
func IsAlreadyProcessing(err error) bool {
	var target *AlreadyProcessingError
	return errors.As(err, &target)
}
