package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_AssignUnassignRoundTrip(t *testing.T) {
	task, err := NewUnassignedTask("ship it", PriorityCritical, SkillMap{"skill1": 3}, nil)
	require.NoError(t, err)

	empID := NewIdentifier[Employee]()
	start := time.Now()
	assigned := task.Assign(empID, start, time.Hour, true)

	assert.Equal(t, task.ID(), assigned.ID())
	assert.Equal(t, empID, assigned.Employee())
	assert.True(t, assigned.Pinned())
	assert.Equal(t, start.Add(time.Hour), assigned.EndsAt())

	back := assigned.Unassign()
	assert.Equal(t, task.ID(), back.ID())
	_, isAssigned := IsAssigned(back)
	assert.False(t, isAssigned)
}

func TestTask_ChangeDependencyPreservesIdentity(t *testing.T) {
	task, err := NewUnassignedTask("a", PriorityMinor, nil, nil)
	require.NoError(t, err)

	dep := NewIdentifier[Task]()
	changed := task.ChangeDependency(&dep)

	assert.Equal(t, task.ID(), changed.ID())
	got, ok := changed.DependsOn()
	require.True(t, ok)
	assert.Equal(t, dep, got)
}

func TestTask_BlankDescriptionFails(t *testing.T) {
	_, err := NewUnassignedTask("   ", PriorityMinor, nil, nil)
	assert.Error(t, err)
}
