package cp

import (
	"context"
	"testing"
	"time"

	"github.com/bellum/bellum/pkg/domain"
	"github.com/bellum/bellum/pkg/estimator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kickOff = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

func TestCPEngine_SingleTaskSingleEmployee_IsOptimal(t *testing.T) {
	emp, err := domain.NewEmployee("e1", nil)
	require.NoError(t, err)
	task, err := domain.NewUnassignedTask("t1", domain.PriorityMajor, nil, nil)
	require.NoError(t, err)
	project, err := domain.NewProject("demo", kickOff, []domain.Employee{emp}, []domain.Task{task})
	require.NoError(t, err)

	est := estimator.NewCustomEstimator(map[domain.Identifier[domain.Employee]]map[domain.Identifier[domain.Task]]time.Duration{
		emp.ID(): {task.ID(): 30 * time.Minute},
	})
	engine := NewCPEngine(est)

	var improvements int
	solution, err := engine.SolveOptimizationProblem(context.Background(), project, 30*time.Second, func(domain.SchedulerSolution) error {
		improvements++
		return nil
	})
	require.NoError(t, err)
	assert.True(t, solution.Optimal)
	assert.Equal(t, kickOff.Add(30*time.Minute), solution.Project.EndsAt())
	assert.GreaterOrEqual(t, improvements, 1)
}

func TestCPEngine_PrecedenceIsRespected(t *testing.T) {
	emp, err := domain.NewEmployee("e1", nil)
	require.NoError(t, err)
	t1, err := domain.NewUnassignedTask("t1", domain.PriorityMajor, nil, nil)
	require.NoError(t, err)
	t1ID := t1.ID()
	t2, err := domain.NewUnassignedTask("t2", domain.PriorityMajor, nil, &t1ID)
	require.NoError(t, err)

	project, err := domain.NewProject("demo", kickOff, []domain.Employee{emp}, []domain.Task{t1, t2})
	require.NoError(t, err)

	est := estimator.NewCustomEstimator(map[domain.Identifier[domain.Employee]]map[domain.Identifier[domain.Task]]time.Duration{
		emp.ID(): {t1.ID(): 30 * time.Minute, t2.ID(): 20 * time.Minute},
	})
	engine := NewCPEngine(est)

	solution, err := engine.SolveOptimizationProblem(context.Background(), project, 5*time.Second, func(domain.SchedulerSolution) error { return nil })
	require.NoError(t, err)
	require.True(t, solution.IsValid())

	resolvedT1, ok := solution.Project.ByID(t1.ID())
	require.True(t, ok)
	resolvedT2, ok := solution.Project.ByID(t2.ID())
	require.True(t, ok)
	a1, ok := domain.IsAssigned(resolvedT1)
	require.True(t, ok)
	a2, ok := domain.IsAssigned(resolvedT2)
	require.True(t, ok)
	assert.False(t, a2.StartAt().Before(a1.EndsAt()))
}

func TestCPEngine_NoOverlapOnSharedEmployee(t *testing.T) {
	emp, err := domain.NewEmployee("e1", nil)
	require.NoError(t, err)
	t1, err := domain.NewUnassignedTask("t1", domain.PriorityMajor, nil, nil)
	require.NoError(t, err)
	t2, err := domain.NewUnassignedTask("t2", domain.PriorityMajor, nil, nil)
	require.NoError(t, err)

	project, err := domain.NewProject("demo", kickOff, []domain.Employee{emp}, []domain.Task{t1, t2})
	require.NoError(t, err)

	est := estimator.NewCustomEstimator(map[domain.Identifier[domain.Employee]]map[domain.Identifier[domain.Task]]time.Duration{
		emp.ID(): {t1.ID(): 15 * time.Minute, t2.ID(): 25 * time.Minute},
	})
	engine := NewCPEngine(est)

	solution, err := engine.SolveOptimizationProblem(context.Background(), project, 5*time.Second, func(domain.SchedulerSolution) error { return nil })
	require.NoError(t, err)
	assert.True(t, solution.Project.Validate().IsValid)
}

func TestCPEngine_PinnedTaskIsPreserved(t *testing.T) {
	emp, err := domain.NewEmployee("e1", nil)
	require.NoError(t, err)
	free, err := domain.NewEmployee("e2", nil)
	require.NoError(t, err)

	unassigned, err := domain.NewUnassignedTask("pinned-task", domain.PriorityMajor, nil, nil)
	require.NoError(t, err)
	pinnedStart := kickOff.Add(100 * time.Minute)
	pinned := unassigned.Assign(emp.ID(), pinnedStart, 10*time.Minute, true)

	other, err := domain.NewUnassignedTask("other-task", domain.PriorityMajor, nil, nil)
	require.NoError(t, err)

	project, err := domain.NewProject("demo", kickOff, []domain.Employee{emp, free}, []domain.Task{pinned, other})
	require.NoError(t, err)

	est := estimator.NewCustomEstimator(map[domain.Identifier[domain.Employee]]map[domain.Identifier[domain.Task]]time.Duration{
		emp.ID():  {other.ID(): 5 * time.Minute},
		free.ID(): {other.ID(): 5 * time.Minute},
	})
	engine := NewCPEngine(est)

	solution, err := engine.SolveOptimizationProblem(context.Background(), project, 5*time.Second, func(domain.SchedulerSolution) error { return nil })
	require.NoError(t, err)

	resolved, ok := solution.Project.ByID(pinned.ID())
	require.True(t, ok)
	assignedResolved, ok := domain.IsAssigned(resolved)
	require.True(t, ok)
	assert.True(t, assignedResolved.Pinned())
	assert.True(t, assignedResolved.Employee().Equal(emp.ID()))
	assert.True(t, assignedResolved.StartAt().Equal(pinnedStart))
	assert.Equal(t, 10*time.Minute, assignedResolved.Duration())
}

func TestCPEngine_NoFeasibleEmployee_ReturnsInputProjectUnoptimal(t *testing.T) {
	emp, err := domain.NewEmployee("e1", nil)
	require.NoError(t, err)
	task, err := domain.NewUnassignedTask("impossible", domain.PriorityMajor, nil, nil)
	require.NoError(t, err)
	project, err := domain.NewProject("demo", kickOff, []domain.Employee{emp}, []domain.Task{task})
	require.NoError(t, err)

	// empty CustomEstimator: every estimate lookup fails.
	est := estimator.NewCustomEstimator(nil)
	engine := NewCPEngine(est)

	var calls int
	solution, err := engine.SolveOptimizationProblem(context.Background(), project, time.Second, func(domain.SchedulerSolution) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.False(t, solution.Optimal)
	assert.Same(t, project, solution.Project)
	assert.Equal(t, 0, calls)
}
