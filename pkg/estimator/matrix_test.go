package estimator

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bellum/bellum/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEstimator struct {
	calls atomic.Int64
}

func (c *countingEstimator) Estimate(domain.Employee, domain.Task) (time.Duration, error) {
	c.calls.Add(1)
	time.Sleep(time.Millisecond)
	return 10 * time.Minute, nil
}

func buildTestProject(t *testing.T) (*domain.Project, domain.Employee, domain.Task) {
	t.Helper()
	emp := mustTestEmployee(t)
	task := mustTestTask(t)
	p, err := domain.NewProject("demo", time.Now(), []domain.Employee{emp}, []domain.Task{task})
	require.NoError(t, err)
	return p, emp, task
}

func mustTestEmployee(t *testing.T) domain.Employee {
	t.Helper()
	e, err := domain.NewEmployee("Alice", nil)
	require.NoError(t, err)
	return e
}

func mustTestTask(t *testing.T) domain.Task {
	t.Helper()
	task, err := domain.NewUnassignedTask("task", domain.PriorityMajor, nil, nil)
	require.NoError(t, err)
	return task
}

func TestEstimationMatrix_UnknownIDsFail(t *testing.T) {
	p, _, _ := buildTestProject(t)
	m := NewEstimationMatrix(NewPearsonEstimator(), p)

	_, err := m.Estimate(domain.NewIdentifier[domain.Employee](), p.Tasks()[0].ID())
	require.Error(t, err)

	_, err = m.Estimate(p.Employees()[0].ID(), domain.NewIdentifier[domain.Task]())
	require.Error(t, err)
}

func TestEstimationMatrix_ComputesExactlyOncePerKeyUnderContention(t *testing.T) {
	p, emp, task := buildTestProject(t)
	est := &countingEstimator{}
	m := NewEstimationMatrix(est, p)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := m.Estimate(emp.ID(), task.ID())
			assert.NoError(t, err)
			assert.Equal(t, 10*time.Minute, d)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), est.calls.Load())
}
