package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/bellum/bellum/pkg/domain"
	"github.com/bellum/bellum/pkg/scheduler"
	"github.com/gin-gonic/gin"
)

// noopCallback satisfies Scheduler's callback parameter for runs driven
// purely through the broadcaster/run-registry path; the HTTP façade reads
// solutions back out of RunRegistry, not through this callback.
func noopCallback(domain.SchedulerSolution) error { return nil }

// postRunRequest is the POST /runs request body: a solver name, an
// optional time limit, and the project to schedule.
type postRunRequest struct {
	Solver    string     `json:"solver" binding:"required"`
	TimeLimit string     `json:"timeLimit,omitempty"`
	Project   ProjectDto `json:"project" binding:"required"`
}

// postRun accepts a scheduling run and dispatches it to run in the
// background, answering with 202 and a run id the caller polls or
// streams (SPEC_FULL.md §4.8). It never blocks on the solve itself.
func (s *Server) postRun(c *gin.Context) {
	var req postRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	sched, ok := s.schedulers[strings.ToLower(req.Solver)]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown_solver", "message": req.Solver, "known": s.registry.Names()})
		return
	}

	project, err := req.Project.ToProject()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_project", "message": err.Error()})
		return
	}

	timeLimit := scheduler.DefaultTimeLimit
	if req.TimeLimit != "" {
		parsed, err := time.ParseDuration(req.TimeLimit)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_time_limit", "message": err.Error()})
			return
		}
		timeLimit = parsed
	}

	runID := domain.NewIdentifier[domain.SchedulerRunRecord]()
	runState := s.runs.start(runID)

	// A background context, not c.Request.Context(): the solve runs on
	// after this handler returns the 202, and the request's own context
	// is canceled the moment ServeHTTP returns.
	accepted := sched.TryCollectAllOptimalSchedulesAsync(
		context.Background(), runID, project, timeLimit,
		noopCallback,
		func(_ domain.SolutionHistory, err error) { runState.finish(err) },
	)
	if !accepted {
		c.JSON(http.StatusConflict, gin.H{"error": "already_processing", "message": "solver " + req.Solver + " already has a run in flight"})
		return
	}

	s.logger.Info("run accepted", "run_id", runID.String(), "solver", req.Solver)
	c.JSON(http.StatusAccepted, gin.H{"runId": runID.String()})
}

// getRun reports a run's accumulated solutions, in the wire shape of
// spec.md §6.3 (SolutionSummaryDto), once at least one exists.
func (s *Server) getRun(c *gin.Context) {
	rs, ok := s.runs.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown_run", "message": c.Param("id")})
		return
	}

	solutions, done, runErr := rs.snapshot()
	if runErr != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "run_failed", "message": runErr.Error()})
		return
	}
	if len(solutions) == 0 {
		c.JSON(http.StatusAccepted, gin.H{"status": "pending"})
		return
	}

	status := http.StatusOK
	if !done {
		status = http.StatusAccepted
	}
	c.JSON(status, NewSolutionSummaryDto(solutions))
}

// streamRun upgrades to a websocket and pushes every streamed solution as
// it arrives, closing when the run finishes or the client disconnects.
func (s *Server) streamRun(c *gin.Context) {
	rs, ok := s.runs.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown_run", "message": c.Param("id")})
		return
	}
	s.serveRunStream(c, rs)
}
