package cp

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bellum/bellum/pkg/domain"
	"github.com/bellum/bellum/pkg/estimator"
	"github.com/bellum/bellum/pkg/scheduler"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/time/rate"
)

// CPEngine is the scheduler.Engine implementation of the constraint-
// programming formulation (spec.md §4.4): a depth-first branch-and-bound
// search over per-task (employee, start, duration) decision variables.
type CPEngine struct {
	estimator estimator.TimeEstimator
	logger    hclog.Logger
}

// Option configures a CPEngine.
type Option func(*CPEngine)

// WithLogger overrides the engine's hclog logger.
func WithLogger(logger hclog.Logger) Option {
	return func(e *CPEngine) { e.logger = logger }
}

// NewCPEngine builds a CP engine backed by est.
func NewCPEngine(est estimator.TimeEstimator, opts ...Option) *CPEngine {
	e := &CPEngine{estimator: est, logger: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name reports the solver name used in stats and the registry (spec.md
// §4.4: `solver="Choco Solver"`).
func (e *CPEngine) Name() string { return "Choco Solver" }

// SolveOptimizationProblem implements scheduler.Engine.
func (e *CPEngine) SolveOptimizationProblem(ctx context.Context, project *domain.Project, timeLimit time.Duration, onImprovement scheduler.Callback) (domain.SchedulerSolution, error) {
	buildStart := time.Now()
	matrix := estimator.NewEstimationMatrix(e.estimator, project)
	m := buildModel(project, matrix)
	buildDuration := time.Since(buildStart)

	deadline := time.Now().Add(timeLimit)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}

	domainSizes := make([]int, len(m.tasks))
	var rootTasks []int
	for i, t := range m.tasks {
		if t.pinned {
			domainSizes[i] = 1
		} else {
			domainSizes[i] = len(t.options)
		}
		if t.predecessorIdx < 0 {
			rootTasks = append(rootTasks, i)
		}
	}

	state := &searchState{
		m:             m,
		base:          project,
		assignment:    make([]taskAssignment, len(m.tasks)),
		timelines:     make([][]interval, len(m.employees)),
		groupLeadUsed: make(map[int]int),
		deadline:      deadline,
		ctx:           ctx,
		limiter:       rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
		logger:        e.logger,
		onImprovement: onImprovement,
		started:       buildStart,
		buildDuration: buildDuration,
		stopReason:    "RUNNING",
	}

	frontier := newReadyFrontier(domainSizes)
	for _, idx := range rootTasks {
		frontier.pushTask(idx)
	}

	if err := state.branch(frontier); err != nil {
		state.stopReason = "KILLED"
		return domain.SchedulerSolution{}, err
	}
	if state.stopReason == "RUNNING" {
		state.stopReason = "TERMINATED"
	}

	if !state.bestFound {
		return domain.SchedulerSolution{
			Project:  project,
			Optimal:  false,
			Duration: time.Since(state.started),
			Stats:    state.snapshotStats(),
		}, nil
	}

	finalProject, err := decodeProject(project, m, state.bestAssignment)
	if err != nil {
		return domain.SchedulerSolution{}, err
	}
	optimal := state.stopReason == "TERMINATED"
	return domain.SchedulerSolution{
		Project:  finalProject,
		Optimal:  optimal,
		Duration: time.Since(state.started),
		Stats:    state.snapshotStats(),
	}, nil
}

// taskAssignment is one task's decided (employee, start, duration) value in
// the current search branch.
type taskAssignment struct {
	assigned    bool
	employeeIdx int
	start       int
	duration    int
	pinned      bool
}

type interval struct{ start, end int }

// searchState is the mutable state threaded through one depth-first
// branch-and-bound run. A single instance is reused across the whole
// search; branch() saves and restores the fields it mutates on backtrack.
type searchState struct {
	m   *model
	base *domain.Project

	assignment    []taskAssignment
	timelines     [][]interval // per employee, sorted non-overlapping intervals
	groupLeadUsed map[int]int  // symmetry group id -> count of leading members used

	makespan     int
	priorityCost int

	deadline time.Time
	ctx      context.Context
	limiter  *rate.Limiter
	logger   hclog.Logger

	onImprovement scheduler.Callback

	started       time.Time
	buildDuration time.Duration

	bestFound      bool
	bestObjective  int64
	bestAssignment []taskAssignment
	solutionCount  int64

	nodes      int64
	backtracks int64
	fails      int64

	stopReason string
}

// branch expands one search node: pop the smallest-domain ready task
// (first-fail), try each candidate employee in ascending index order
// (min-value), and recurse on the frontier extended with any successor
// tasks that became ready.
func (s *searchState) branch(frontier *readyFrontier) error {
	if s.timeExpired() {
		s.stopReason = "STOPPED"
		return nil
	}
	if frontier.Len() == 0 {
		return s.recordCompleteSolution()
	}
	s.nodes++

	local := frontier.clone()
	taskIdx := local.popTask()

	candidates := s.candidateEmployees(taskIdx)
	if len(candidates) == 0 {
		s.fails++
		return nil
	}

	for _, ei := range candidates {
		if !s.symmetryAllowed(taskIdx, ei) {
			continue
		}
		start, duration, pinned, ok := s.valuesFor(taskIdx, ei)
		if !ok {
			continue
		}

		newMakespan := maxInt(s.makespan, start+duration)
		bound := 100*int64(maxInt(newMakespan, s.m.makespanLB)) + int64(s.priorityCost)
		if s.bestFound && bound >= s.bestObjective {
			continue
		}

		prevMakespan, prevPriorityCost := s.makespan, s.priorityCost
		s.applyAssignment(taskIdx, ei, start, duration, pinned)
		s.makespan = newMakespan

		child := local.clone()
		for _, succ := range s.m.successors[taskIdx] {
			child.pushTask(succ)
		}

		leadBefore := s.groupLeadUsed[s.m.employeeGroup[ei]]
		s.advanceSymmetryLead(taskIdx, ei)

		err := s.branch(child)

		s.groupLeadUsed[s.m.employeeGroup[ei]] = leadBefore
		s.undoAssignment(taskIdx)
		s.makespan, s.priorityCost = prevMakespan, prevPriorityCost

		if err != nil {
			return err
		}
		s.backtracks++

		if s.timeExpired() {
			s.stopReason = "STOPPED"
			return nil
		}
	}
	return nil
}

func (s *searchState) timeExpired() bool {
	if s.ctx.Err() != nil {
		return true
	}
	return time.Now().After(s.deadline)
}

func (s *searchState) candidateEmployees(taskIdx int) []int {
	t := s.m.tasks[taskIdx]
	if t.pinned {
		if t.pinnedEmployee < 0 {
			return nil
		}
		return []int{t.pinnedEmployee}
	}
	idx := make([]int, 0, len(t.options))
	for _, opt := range t.options {
		idx = append(idx, opt.employeeIdx)
	}
	sort.Ints(idx)
	return idx
}

func (s *searchState) valuesFor(taskIdx, employeeIdx int) (start, duration int, pinned, ok bool) {
	t := s.m.tasks[taskIdx]
	if t.pinned {
		if employeeIdx != t.pinnedEmployee {
			return 0, 0, false, false
		}
		return t.pinnedStart, t.pinnedDuration, true, true
	}

	found := false
	for _, opt := range t.options {
		if opt.employeeIdx == employeeIdx {
			duration = opt.minutes
			found = true
			break
		}
	}
	if !found {
		return 0, 0, false, false
	}

	readyTime := t.lbStart
	if t.predecessorIdx >= 0 {
		if pa := s.assignment[t.predecessorIdx]; pa.assigned {
			if end := pa.start + pa.duration; end > readyTime {
				readyTime = end
			}
		}
	}
	start = earliestStart(s.timelines[employeeIdx], readyTime, duration)
	return start, duration, false, true
}

// symmetryAllowed implements the root-task lex-leader symmetry breaking of
// spec.md §4.4: within a group of employees with identical duration rows,
// member k may only be used once members 0..k-1 have each been used for
// some earlier root task.
func (s *searchState) symmetryAllowed(taskIdx, employeeIdx int) bool {
	if !s.m.isRootTask(taskIdx) {
		return true
	}
	group := s.m.employeeGroup[employeeIdx]
	order := s.m.groupOrder[group]
	if len(order) <= 1 {
		return true
	}
	return positionIn(order, employeeIdx) <= s.groupLeadUsed[group]
}

func (s *searchState) advanceSymmetryLead(taskIdx, employeeIdx int) {
	if !s.m.isRootTask(taskIdx) {
		return
	}
	group := s.m.employeeGroup[employeeIdx]
	order := s.m.groupOrder[group]
	if len(order) <= 1 {
		return
	}
	pos := positionIn(order, employeeIdx)
	if pos == s.groupLeadUsed[group] {
		s.groupLeadUsed[group] = pos + 1
	}
}

func positionIn(order []int, employeeIdx int) int {
	for i, e := range order {
		if e == employeeIdx {
			return i
		}
	}
	return -1
}

func (s *searchState) applyAssignment(taskIdx, employeeIdx, start, duration int, pinned bool) {
	s.assignment[taskIdx] = taskAssignment{assigned: true, employeeIdx: employeeIdx, start: start, duration: duration, pinned: pinned}
	s.timelines[employeeIdx] = insertSorted(s.timelines[employeeIdx], interval{start, start + duration})

	priority := s.m.tasks[taskIdx].priority
	for other := range s.assignment {
		if other == taskIdx || !s.assignment[other].assigned {
			continue
		}
		otherPriority := s.m.tasks[other].priority
		otherStart := s.assignment[other].start
		if priority > otherPriority && start < otherStart {
			s.priorityCost++
		} else if otherPriority > priority && otherStart < start {
			s.priorityCost++
		}
	}
}

func (s *searchState) undoAssignment(taskIdx int) {
	a := s.assignment[taskIdx]
	s.timelines[a.employeeIdx] = removeInterval(s.timelines[a.employeeIdx], interval{a.start, a.start + a.duration})
	s.assignment[taskIdx] = taskAssignment{}
}

func (s *searchState) recordCompleteSolution() error {
	objective := 100*int64(s.makespan) + int64(s.priorityCost)
	if s.bestFound && objective >= s.bestObjective {
		return nil
	}
	s.bestFound = true
	s.bestObjective = objective
	s.bestAssignment = append([]taskAssignment(nil), s.assignment...)
	s.solutionCount++

	if s.limiter.Allow() {
		s.logger.Debug("cp candidate solution", "objective", objective, "nodes", s.nodes)
	}
	if s.onImprovement == nil {
		return nil
	}

	project, err := decodeProject(s.base, s.m, s.bestAssignment)
	if err != nil {
		return err
	}
	return s.onImprovement(domain.SchedulerSolution{
		Project:  project,
		Optimal:  false,
		Duration: time.Since(s.started),
		Stats:    s.snapshotStats(),
	})
}

func (s *searchState) snapshotStats() map[string]any {
	searchStateLabel := s.stopReason
	if searchStateLabel == "" {
		searchStateLabel = "NEW"
	}
	return map[string]any{
		"solver":          "Choco Solver",
		"model name":      fmt.Sprintf("bellum-cp/%d-tasks-%d-employees", len(s.m.tasks), len(s.m.employees)),
		"search state":    searchStateLabel,
		"solutions":       s.solutionCount,
		"build time":      s.buildDuration,
		"resolution time": time.Since(s.started),
		"policy":          "first-fail/min-value",
		"objective":       s.bestObjective,
		"nodes":           s.nodes,
		"backtracks":      s.backtracks,
		"fails":           s.fails,
		"restarts":        int64(0),
	}
}

func earliestStart(timeline []interval, readyTime, duration int) int {
	start := readyTime
	for _, iv := range timeline {
		if start+duration <= iv.start {
			return start
		}
		if start < iv.end {
			start = iv.end
		}
	}
	return start
}

func insertSorted(timeline []interval, iv interval) []interval {
	idx := sort.Search(len(timeline), func(i int) bool { return timeline[i].start >= iv.start })
	timeline = append(timeline, interval{})
	copy(timeline[idx+1:], timeline[idx:])
	timeline[idx] = iv
	return timeline
}

func removeInterval(timeline []interval, iv interval) []interval {
	for i, x := range timeline {
		if x == iv {
			return append(timeline[:i], timeline[i+1:]...)
		}
	}
	return timeline
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
