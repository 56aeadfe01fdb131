package ga

import (
	"fmt"
	"time"

	"github.com/bellum/bellum/pkg/domain"
)

// circularPenalty and missingEstimatePenalty are the fixed infeasibility
// penalties spec.md §4.5 adds to the fitness of a genome whose greedy
// decode cannot legally place every task — large enough to dominate any
// legitimate 100*makespan+priorityCost value, but finite so the GA can
// still rank infeasible genomes against each other and select away from
// them.
const (
	circularPenalty        = 10_000_000
	missingEstimatePenalty = 1_000_000
	placeholderDuration    = 10
	placeholderStart       = 10_000_000
)

// decodedTask is one task's decided values after a greedy decode.
type decodedTask struct {
	employeeIdx int
	start       int
	duration    int
	pinned      bool
}

// decodeResult is the outcome of running the greedy list-scheduling decoder
// over one permutation.
type decodeResult struct {
	assignment []decodedTask
	fitness    int64
	infeasible bool
}

// decode runs spec.md §4.5's greedy decoder: pinned tasks are placed first,
// then the remaining tasks are scheduled one at a time, always picking the
// ready task (every predecessor already scheduled) with the smallest rank
// in order, and placing it on whichever capable employee offers the
// earliest finish time (ties broken toward the task's original input
// employee, if any).
func decode(order []int, m *model) decodeResult {
	n := len(m.tasks)
	rank := make([]int, n)
	for pos, taskIdx := range order {
		rank[taskIdx] = pos
	}

	timelines := make([][]interval, len(m.employees))
	assignment := make([]decodedTask, n)
	scheduled := make([]bool, n)
	endAt := make([]int, n)

	infeasible := false

	// Place pinned tasks up front; they do not participate in ranking.
	for i, t := range m.tasks {
		if !t.pinned {
			continue
		}
		assignment[i] = decodedTask{employeeIdx: t.pinnedEmployee, start: t.pinnedStart, duration: t.pinnedDuration, pinned: true}
		scheduled[i] = true
		endAt[i] = t.pinnedStart + t.pinnedDuration
		if t.pinnedEmployee >= 0 {
			timelines[t.pinnedEmployee] = insertSorted(timelines[t.pinnedEmployee], interval{start: t.pinnedStart, end: t.pinnedStart + t.pinnedDuration})
		}
	}

	remaining := 0
	for i := range m.tasks {
		if !scheduled[i] {
			remaining++
		}
	}

	for remaining > 0 {
		ready := readySet(m, scheduled)
		if len(ready) == 0 {
			// Circular dependency among the unscheduled tail: place the
			// rest at a shared placeholder so the decode always
			// terminates with a complete assignment.
			for i := range m.tasks {
				if scheduled[i] {
					continue
				}
				emp := 0
				if len(m.employees) == 0 {
					emp = -1
				}
				assignment[i] = decodedTask{employeeIdx: emp, start: placeholderStart, duration: 0}
				scheduled[i] = true
			}
			infeasible = true
			break
		}

		best := ready[0]
		for _, cand := range ready[1:] {
			if rank[cand] < rank[best] {
				best = cand
			}
		}

		t := m.tasks[best]
		readyTime := 0
		if t.predecessorIdx >= 0 {
			readyTime = endAt[t.predecessorIdx]
		}

		if len(t.options) == 0 {
			assignment[best] = decodedTask{employeeIdx: -1, start: readyTime, duration: placeholderDuration}
			endAt[best] = readyTime + placeholderDuration
		} else {
			chosenEmp, chosenStart, chosenDur := -1, 0, 0
			bestFinish := -1
			for _, opt := range t.options {
				start := earliestStart(timelines[opt.employeeIdx], readyTime, opt.minutes)
				finish := start + opt.minutes
				switch {
				case bestFinish == -1 || finish < bestFinish:
					bestFinish, chosenEmp, chosenStart, chosenDur = finish, opt.employeeIdx, start, opt.minutes
				case finish == bestFinish && opt.employeeIdx == t.inputEmployeeIdx:
					chosenEmp, chosenStart, chosenDur = opt.employeeIdx, start, opt.minutes
				}
			}
			assignment[best] = decodedTask{employeeIdx: chosenEmp, start: chosenStart, duration: chosenDur}
			endAt[best] = chosenStart + chosenDur
			timelines[chosenEmp] = insertSorted(timelines[chosenEmp], interval{start: chosenStart, end: endAt[best]})
		}

		scheduled[best] = true
		remaining--
	}

	makespan := 0
	for _, e := range endAt {
		if e > makespan {
			makespan = e
		}
	}
	priorityCost := computePriorityCost(m, assignment)

	penalty := int64(0)
	if infeasible {
		penalty = circularPenalty
	}
	for i, t := range m.tasks {
		if len(t.options) == 0 && !t.pinned {
			penalty += missingEstimatePenalty
			_ = i
		}
	}

	fitness := penalty + 100*int64(makespan) + int64(priorityCost)
	return decodeResult{assignment: assignment, fitness: fitness, infeasible: infeasible || penalty > 0}
}

// readySet returns the indices of unscheduled tasks whose predecessor (if
// any) has already been scheduled.
func readySet(m *model, scheduled []bool) []int {
	var ready []int
	for i, t := range m.tasks {
		if scheduled[i] {
			continue
		}
		if t.predecessorIdx < 0 || scheduled[t.predecessorIdx] {
			ready = append(ready, i)
		}
	}
	return ready
}

// computePriorityCost mirrors domain.Project.PriorityCost(): the count of
// ordered pairs of decided tasks where the less important one (higher
// numeric Priority) starts earlier than the more important one.
func computePriorityCost(m *model, assignment []decodedTask) int {
	cost := 0
	for i := range assignment {
		for j := range assignment {
			if i == j {
				continue
			}
			if m.tasks[i].priority > m.tasks[j].priority && assignment[i].start < assignment[j].start {
				cost++
			}
		}
	}
	return cost
}

// earliestStart finds the first minutes-long gap at or after readyTime in a
// sorted, non-overlapping list of busy intervals.
func earliestStart(busy []interval, readyTime, minutes int) int {
	cursor := readyTime
	for _, iv := range busy {
		if cursor+minutes <= iv.start {
			return cursor
		}
		if cursor < iv.end {
			cursor = iv.end
		}
	}
	return cursor
}

func insertSorted(busy []interval, add interval) []interval {
	idx := 0
	for idx < len(busy) && busy[idx].start < add.start {
		idx++
	}
	busy = append(busy, interval{})
	copy(busy[idx+1:], busy[idx:])
	busy[idx] = add
	return busy
}

type interval struct{ start, end int }

// decodeProject maps a decode result back onto a Project, mirroring
// pkg/solver/cp's decodeProject.
func decodeProject(base *domain.Project, m *model, result decodeResult) (*domain.Project, error) {
	tasks := make([]domain.Task, len(m.tasks))
	for i, tm := range m.tasks {
		a := result.assignment[i]
		if a.employeeIdx < 0 || a.employeeIdx >= len(m.employees) {
			return nil, fmt.Errorf("ga: task %q has no feasible employee", tm.description)
		}
		unassigned, err := domain.NewUnassignedTaskWithID(tm.id, tm.description, tm.priority, tm.requiredSkills, tm.dependsOnID)
		if err != nil {
			return nil, err
		}
		startAt := m.kickOff.Add(time.Duration(a.start) * time.Minute)
		duration := time.Duration(a.duration) * time.Minute
		tasks[i] = unassigned.Assign(m.employees[a.employeeIdx].ID(), startAt, duration, a.pinned)
	}
	return domain.NewProjectWithID(base.ID(), base.Name(), base.KickOff(), m.employees, tasks)
}
