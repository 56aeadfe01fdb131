package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bellum/bellum/pkg/domain"
	"github.com/bellum/bellum/pkg/estimator"
	"github.com/bellum/bellum/pkg/scheduler"
	"github.com/bellum/bellum/pkg/solver/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingEngine blocks in SolveOptimizationProblem until release is
// closed, letting tests observe a run while it is still in flight.
type blockingEngine struct {
	release chan struct{}
}

func (e *blockingEngine) Name() string { return "fake" }

func (e *blockingEngine) SolveOptimizationProblem(ctx context.Context, project *domain.Project, timeLimit time.Duration, onImprovement scheduler.Callback) (domain.SchedulerSolution, error) {
	solution := domain.SchedulerSolution{Project: project, Optimal: true, Duration: time.Millisecond}
	if err := onImprovement(solution); err != nil {
		return domain.SchedulerSolution{}, err
	}
	<-e.release
	return solution, nil
}

func buildTestDtoProject(t *testing.T) ProjectDto {
	t.Helper()
	kickOff := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	emp, err := domain.NewEmployee("alice", nil)
	require.NoError(t, err)
	task, err := domain.NewUnassignedTask("write report", domain.PriorityMajor, nil, nil)
	require.NoError(t, err)
	project, err := domain.NewProject("demo", kickOff, []domain.Employee{emp}, []domain.Task{task})
	require.NoError(t, err)
	return NewProjectDto(project)
}

func buildTestServer(t *testing.T, release chan struct{}) *Server {
	t.Helper()
	reg := registry.NewRegistry()
	reg.Register(scheduler.SolverDescriptor{
		Name:        "fake",
		Description: "fake solver for tests",
		NewEngine: func(estimator.TimeEstimator) scheduler.Engine {
			return &blockingEngine{release: release}
		},
	})
	return NewServer(reg, estimator.NewPearsonEstimator())
}

func TestPostRun_AcceptsAndReturnsRunID(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	router := buildTestServer(t, release).Router()

	body, err := json.Marshal(postRunRequest{Solver: "fake", Project: buildTestDtoProject(t)})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/runs", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, 202, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["runId"])
}

func TestPostRun_SecondConcurrentRunIsRejected(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	router := buildTestServer(t, release).Router()

	body, err := json.Marshal(postRunRequest{Solver: "fake", Project: buildTestDtoProject(t)})
	require.NoError(t, err)

	post := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/runs", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		return w.Code
	}

	first := post()
	require.Equal(t, 202, first)

	// The first POST took the in-flight guard before answering 202; the
	// pause only lets its background solve start.
	time.Sleep(10 * time.Millisecond)
	second := post()
	assert.Equal(t, 409, second)
}

func TestPostRun_UnknownSolverReturns404(t *testing.T) {
	release := make(chan struct{})
	close(release)
	router := buildTestServer(t, release).Router()

	body, err := json.Marshal(postRunRequest{Solver: "nope", Project: buildTestDtoProject(t)})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/runs", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
}

func TestGetRun_UnknownRunReturns404(t *testing.T) {
	release := make(chan struct{})
	close(release)
	router := buildTestServer(t, release).Router()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/runs/does-not-exist", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
}
