package estimator

import (
	"testing"
	"time"

	"github.com/bellum/bellum/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skillEmployee(t *testing.T, skills domain.SkillMap) domain.Employee {
	t.Helper()
	e, err := domain.NewEmployee("tester", skills)
	require.NoError(t, err)
	return e
}

func skillTask(t *testing.T, skills domain.SkillMap) domain.Task {
	t.Helper()
	task, err := domain.NewUnassignedTask("task", domain.PriorityMajor, skills, nil)
	require.NoError(t, err)
	return task
}

func TestPearson_IdenticalSkillsIsFiveMinutes(t *testing.T) {
	skills := domain.SkillMap{"s1": 1, "s2": 5, "s3": 9}
	emp := skillEmployee(t, skills)
	task := skillTask(t, skills)

	d, err := NewPearsonEstimator().Estimate(emp, task)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, d)
}

func TestPearson_AntiCorrelatedIsEightyFiveMinutes(t *testing.T) {
	emp := skillEmployee(t, domain.SkillMap{"s1": 1, "s2": 2, "s3": 3})
	task := skillTask(t, domain.SkillMap{"s1": 3, "s2": 2, "s3": 1})

	d, err := NewPearsonEstimator().Estimate(emp, task)
	require.NoError(t, err)
	assert.Equal(t, 85*time.Minute, d)
}

func TestPearson_ConstantVectorsIsFortyFiveMinutes(t *testing.T) {
	emp := skillEmployee(t, domain.SkillMap{"s1": 4, "s2": 4})
	task := skillTask(t, domain.SkillMap{"s1": 4, "s2": 4})

	d, err := NewPearsonEstimator().Estimate(emp, task)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, d)
}

func TestPearson_InsufficientSkillsFails(t *testing.T) {
	emp := skillEmployee(t, domain.SkillMap{"s1": 4})
	task := skillTask(t, domain.SkillMap{"s1": 2})

	_, err := NewPearsonEstimator().Estimate(emp, task)
	require.Error(t, err)
	var estErr *EstimationError
	require.ErrorAs(t, err, &estErr)
}
