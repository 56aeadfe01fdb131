package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bellum/bellum/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine emits its whole fixed sequence of solutions on every call to
// SolveOptimizationProblem, then returns the last.
type fakeEngine struct {
	solutions []domain.SchedulerSolution
	onSolve   func()
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) SolveOptimizationProblem(ctx context.Context, project *domain.Project, timeLimit time.Duration, onImprovement Callback) (domain.SchedulerSolution, error) {
	if f.onSolve != nil {
		f.onSolve()
	}
	var last domain.SchedulerSolution
	for _, s := range f.solutions {
		if err := onImprovement(s); err != nil {
			return domain.SchedulerSolution{}, err
		}
		last = s
	}
	return last, nil
}

func buildProjectWithMakespan(t *testing.T, minutes int) *domain.Project {
	t.Helper()
	kickOff := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	emp, err := domain.NewEmployee("e1", nil)
	require.NoError(t, err)
	task, err := domain.NewUnassignedTask("t1", domain.PriorityMajor, nil, nil)
	require.NoError(t, err)
	assigned := task.Assign(emp.ID(), kickOff, time.Duration(minutes)*time.Minute, false)
	p, err := domain.NewProject("demo", kickOff, []domain.Employee{emp}, []domain.Task{assigned})
	require.NoError(t, err)
	return p
}

func solutionWithMakespan(t *testing.T, minutes int) domain.SchedulerSolution {
	t.Helper()
	return domain.SchedulerSolution{Project: buildProjectWithMakespan(t, minutes), Optimal: false}
}

func TestScheduler_FindOptimalSchedule_ReturnsEngineResult(t *testing.T) {
	engine := &fakeEngine{solutions: []domain.SchedulerSolution{
		solutionWithMakespan(t, 30),
		solutionWithMakespan(t, 10),
	}}
	s := NewScheduler("fake", engine)

	var seen []int64
	solution, err := s.FindOptimalSchedule(context.Background(), buildProjectWithMakespan(t, 30), time.Second, func(sol domain.SchedulerSolution) error {
		seen = append(seen, sol.CompositeObjective())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), solution.CompositeObjective())
	assert.Equal(t, []int64{3000, 1000}, seen)
	assert.True(t, domain.SolutionHistory(engine.solutions).MonotonicallyImproving())
}

func TestScheduler_CollectAllOptimalSchedules_AppendsFinalBest(t *testing.T) {
	engine := &fakeEngine{solutions: []domain.SchedulerSolution{
		solutionWithMakespan(t, 20),
		solutionWithMakespan(t, 5),
	}}
	s := NewScheduler("fake", engine)

	history, err := s.CollectAllOptimalSchedules(context.Background(), buildProjectWithMakespan(t, 20), time.Second, func(domain.SchedulerSolution) error {
		return nil
	})
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, int64(500), history.Best().CompositeObjective())
}

func TestScheduler_MutualExclusion_ConcurrentCallsYieldExactlyOneSuccess(t *testing.T) {
	release := make(chan struct{})
	engine := &fakeEngine{
		onSolve: func() { <-release },
		solutions: []domain.SchedulerSolution{
			solutionWithMakespan(t, 1),
		},
	}
	s := NewScheduler("fake", engine)
	project := buildProjectWithMakespan(t, 1)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.FindOptimalSchedule(context.Background(), project, time.Second, func(domain.SchedulerSolution) error { return nil })
			results[i] = err
		}(i)
	}

	// give both goroutines a chance to reach the in-flight guard before releasing.
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	alreadyProcessing := 0
	successes := 0
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case IsAlreadyProcessing(err):
			alreadyProcessing++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, alreadyProcessing)
}

func TestScheduler_CallbackError_AbortsRunAndUnwraps(t *testing.T) {
	cause := errors.New("boom")
	engine := &fakeEngine{solutions: []domain.SchedulerSolution{
		solutionWithMakespan(t, 10),
	}}
	s := NewScheduler("fake", engine)

	_, err := s.FindOptimalSchedule(context.Background(), buildProjectWithMakespan(t, 10), time.Second, func(domain.SchedulerSolution) error {
		return cause
	})
	require.Error(t, err)
	var cbErr *CallbackError
	require.ErrorAs(t, err, &cbErr)
	assert.ErrorIs(t, err, cause)
}

func TestScheduler_NilLedgerAndBroadcaster_BehaveLikeNoop(t *testing.T) {
	engine := &fakeEngine{solutions: []domain.SchedulerSolution{
		solutionWithMakespan(t, 5),
	}}
	s := NewScheduler("fake", engine) // no WithRunLedger / WithSolutionBroadcaster

	solution, err := s.FindOptimalSchedule(context.Background(), buildProjectWithMakespan(t, 5), time.Second, func(domain.SchedulerSolution) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(500), solution.CompositeObjective())
}
