package domain

import (
	"testing"
	"time"

	"github.com/bellum/bellum/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEmployee(t *testing.T, name string) Employee {
	t.Helper()
	e, err := NewEmployee(name, SkillMap{"skill1": 5})
	require.NoError(t, err)
	return e
}

func mustUnassigned(t *testing.T, desc string, dep *Identifier[Task]) UnassignedTask {
	t.Helper()
	task, err := NewUnassignedTask(desc, PriorityMajor, SkillMap{"skill1": 5}, dep)
	require.NoError(t, err)
	return task
}

func asValidationError(t *testing.T, err error) *validation.ValidationError {
	t.Helper()
	ve, ok := err.(*validation.ValidationError)
	require.True(t, ok, "expected *validation.ValidationError, got %T", err)
	return ve
}

func TestProject_InitInvariants_HappyPath(t *testing.T) {
	emp := mustEmployee(t, "Alice")
	task := mustUnassigned(t, "write the docs", nil)

	p, err := NewProject("demo", time.Now(), []Employee{emp}, []Task{task})
	require.NoError(t, err)
	assert.Equal(t, "demo", p.Name())
}

func TestProject_InitInvariants_MissingDependencyFails(t *testing.T) {
	ghostID := NewIdentifier[Task]()
	task := mustUnassigned(t, "orphan", &ghostID)

	_, err := NewProject("demo", time.Now(), nil, []Task{task})
	require.Error(t, err)

	ve := asValidationError(t, err)
	assert.True(t, ve.HasLabel("missing task dependencies"))
	assert.Contains(t, ve.ByLabel("missing task dependencies")[0].Message, "orphan")
}

func TestProject_InitInvariants_UnknownEmployeeFails(t *testing.T) {
	ghostEmployee := NewIdentifier[Employee]()
	task := mustUnassigned(t, "solo", nil)
	assigned := task.Assign(ghostEmployee, time.Now(), time.Hour, false)

	_, err := NewProject("demo", time.Now(), nil, []Task{assigned})
	require.Error(t, err)
	ve := asValidationError(t, err)
	assert.True(t, ve.HasLabel("unknown employee reference"))
}

func TestProject_InitInvariants_CircularDependency(t *testing.T) {
	t1ID := NewIdentifier[Task]()
	t3ID := NewIdentifier[Task]()
	t5ID := NewIdentifier[Task]()

	t1, err := NewUnassignedTaskWithID(t1ID, "t1", PriorityMajor, nil, &t3ID)
	require.NoError(t, err)
	t3, err := NewUnassignedTaskWithID(t3ID, "t3", PriorityMajor, nil, &t5ID)
	require.NoError(t, err)
	t5, err := NewUnassignedTaskWithID(t5ID, "t5", PriorityMajor, nil, &t1ID)
	require.NoError(t, err)

	_, err = NewProject("demo", time.Now(), nil, []Task{t1, t3, t5})
	require.Error(t, err)
	ve := asValidationError(t, err)
	require.True(t, ve.HasLabel("circular task dependency"))
	assert.Contains(t, ve.ByLabel("circular task dependency")[0].Message, "t1 - t3 - t5 - t1")
}

func TestProject_Validate_DetectsOverlap(t *testing.T) {
	emp := mustEmployee(t, "Alice")
	base := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	t1 := mustUnassigned(t, "first", nil).Assign(emp.ID(), base, 2*time.Hour, false)
	t2 := mustUnassigned(t, "second", nil).Assign(emp.ID(), base.Add(time.Hour), 2*time.Hour, false)

	p, err := NewProject("demo", base, []Employee{emp}, []Task{t1, t2})
	require.NoError(t, err)

	result := p.Validate()
	assert.False(t, result.IsValid)
	found := false
	for _, v := range result.Errors {
		if v.Label == "employees with overlap" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestProject_Validate_IsPureAndIdempotent(t *testing.T) {
	emp := mustEmployee(t, "Alice")
	task := mustUnassigned(t, "solo", nil)
	p, err := NewProject("demo", time.Now(), []Employee{emp}, []Task{task})
	require.NoError(t, err)

	first := p.Validate()
	second := p.Validate()
	assert.Equal(t, first, second)
}

func TestProject_ScheduledStatus(t *testing.T) {
	emp := mustEmployee(t, "Alice")
	base := time.Now()
	unassigned := mustUnassigned(t, "todo", nil)
	assigned := mustUnassigned(t, "done", nil).Assign(emp.ID(), base, time.Hour, false)

	none, err := NewProject("none", base, []Employee{emp}, []Task{unassigned})
	require.NoError(t, err)
	assert.Equal(t, StatusNone, none.ScheduledStatus())

	partial, err := NewProject("partial", base, []Employee{emp}, []Task{unassigned, assigned})
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, partial.ScheduledStatus())

	scheduled, err := NewProject("scheduled", base, []Employee{emp}, []Task{assigned})
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, scheduled.ScheduledStatus())
}

func TestProject_PriorityCost(t *testing.T) {
	emp := mustEmployee(t, "Alice")
	base := time.Now()

	minor, err := NewUnassignedTask("minor first", PriorityMinor, nil, nil)
	require.NoError(t, err)
	critical, err := NewUnassignedTask("critical second", PriorityCritical, nil, nil)
	require.NoError(t, err)

	minorAssigned := minor.Assign(emp.ID(), base, time.Hour, false)
	criticalAssigned := critical.Assign(emp.ID(), base.Add(2*time.Hour), time.Hour, false)

	p, err := NewProject("demo", base, []Employee{emp}, []Task{minorAssigned, criticalAssigned})
	require.NoError(t, err)
	assert.Equal(t, 1, p.PriorityCost())
}
