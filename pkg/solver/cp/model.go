// Package cp implements the constraint-programming formulation of spec.md
// §4.4 as a hand-rolled depth-first branch-and-bound search — no
// constraint-solver library (Choco, OR-Tools, gecode bindings, ...) appears
// anywhere in the retrieval pack, so this component is necessarily
// stdlib-only (see DESIGN.md).
package cp

import (
	"sort"
	"time"

	"github.com/bellum/bellum/pkg/domain"
	"github.com/bellum/bellum/pkg/estimator"
)

// employeeOption is one entry of a task's enumerated duration domain
// (spec.md §4.4, "taskDuration[t] with domain equal to the set
// {dur[e][t] : e ∈ [0,E)}").
type employeeOption struct {
	employeeIdx int
	minutes     int
}

// taskModel is the per-task decision-variable bundle: its domain, its
// precedence predecessor, its lower-bound start, and (if pinned) the fixed
// values spec.md §4.4's pinned-task equality constraints require.
type taskModel struct {
	id             domain.Identifier[domain.Task]
	description    string
	priority       domain.Priority
	requiredSkills domain.SkillMap
	dependsOnID    *domain.Identifier[domain.Task]
	predecessorIdx int // -1 if none
	options        []employeeOption
	minDur         int
	lbStart        int

	pinned         bool
	pinnedEmployee int
	pinnedStart    int
	pinnedDuration int

	inputEmployeeIdx int // >= 0 if the input project already had a (non-pinned) assignment hint, else -1
	inputStart       int
}

// model is the fully-built decision model for one solve.
type model struct {
	kickOff       time.Time
	employees     []domain.Employee
	tasks         []taskModel
	successors    [][]int // per task idx, the tasks that depend on it
	employeeGroup []int   // symmetry-group id per employee index
	groupOrder    map[int][]int
	upperBound    int // one-worker upper bound, minutes (spec.md §4.4)
	makespanLB    int // max(ΣminDur/E, max_t minDur(t)), spec.md §4.4
}

// buildModel constructs the decision model for project, using matrix to
// enumerate each task's employee/duration domain.
func buildModel(project *domain.Project, matrix *estimator.EstimationMatrix) *model {
	tasks := project.Tasks()
	employees := project.Employees()

	taskIndexByID := make(map[string]int, len(tasks))
	for i, t := range tasks {
		taskIndexByID[t.ID().String()] = i
	}

	tm := make([]taskModel, len(tasks))
	for i, t := range tasks {
		predIdx := -1
		var depID *domain.Identifier[domain.Task]
		if id, ok := t.DependsOn(); ok {
			idCopy := id
			depID = &idCopy
			if idx, ok := taskIndexByID[id.String()]; ok {
				predIdx = idx
			}
		}

		var options []employeeOption
		minDur := -1
		for ei, e := range employees {
			d, err := matrix.Estimate(e.ID(), t.ID())
			if err != nil {
				continue
			}
			minutes := int(d / time.Minute)
			options = append(options, employeeOption{employeeIdx: ei, minutes: minutes})
			if minDur == -1 || minutes < minDur {
				minDur = minutes
			}
		}
		sort.Slice(options, func(a, b int) bool { return options[a].minutes < options[b].minutes })

		entry := taskModel{
			id:               t.ID(),
			description:      t.Description(),
			priority:         t.Priority(),
			requiredSkills:   t.RequiredSkills(),
			dependsOnID:      depID,
			predecessorIdx:   predIdx,
			options:          options,
			minDur:           minDur,
			pinnedEmployee:   -1,
			inputEmployeeIdx: -1,
		}
		if assigned, ok := domain.IsAssigned(t); ok {
			idx := indexOfEmployee(employees, assigned.Employee())
			if assigned.Pinned() {
				entry.pinned = true
				entry.pinnedEmployee = idx
				entry.pinnedStart = int(assigned.StartAt().Sub(project.KickOff()) / time.Minute)
				entry.pinnedDuration = int(assigned.Duration() / time.Minute)
			} else {
				entry.inputEmployeeIdx = idx
				entry.inputStart = int(assigned.StartAt().Sub(project.KickOff()) / time.Minute)
			}
		}
		tm[i] = entry
	}

	resolveLowerBounds(tm)
	upperBound := oneWorkerUpperBound(employees, tm)
	makespanLB := makespanLowerBound(employees, tm)
	groupID, groupOrder := buildSymmetryGroups(employees, tm)

	successors := make([][]int, len(tm))
	for i, t := range tm {
		if t.predecessorIdx >= 0 {
			successors[t.predecessorIdx] = append(successors[t.predecessorIdx], i)
		}
	}

	return &model{
		kickOff:       project.KickOff(),
		employees:     employees,
		tasks:         tm,
		successors:    successors,
		employeeGroup: groupID,
		groupOrder:    groupOrder,
		upperBound:    upperBound,
		makespanLB:    makespanLB,
	}
}

// makespanLowerBound returns max(ΣminDur(t)/E, max_t minDur(t)), the
// makespan lower bound from spec.md §4.4.
func makespanLowerBound(employees []domain.Employee, tm []taskModel) int {
	sumMinDur := 0
	maxMinDur := 0
	for _, t := range tm {
		if t.minDur > 0 {
			sumMinDur += t.minDur
			if t.minDur > maxMinDur {
				maxMinDur = t.minDur
			}
		}
	}
	e := len(employees)
	if e == 0 {
		e = 1
	}
	avg := (sumMinDur + e - 1) / e // ceil
	if avg > maxMinDur {
		return avg
	}
	return maxMinDur
}

// resolveLowerBounds fills in lbStart(t) = max(lbStart(pred)+minDur(pred), 0)
// for every task, memoized over the acyclic dependsOn chain (Project already
// enforces acyclicity as an init invariant).
func resolveLowerBounds(tm []taskModel) {
	computed := make([]bool, len(tm))
	var resolve func(i int) int
	resolve = func(i int) int {
		if computed[i] {
			return tm[i].lbStart
		}
		val := 0
		if p := tm[i].predecessorIdx; p >= 0 {
			predMinDur := tm[p].minDur
			if predMinDur < 0 {
				predMinDur = 0
			}
			val = resolve(p) + predMinDur
		}
		tm[i].lbStart = val
		computed[i] = true
		return val
	}
	for i := range tm {
		resolve(i)
	}
}

// oneWorkerUpperBound returns min_e Σ_t dur[e][t] over employees who can
// perform every task, falling back to Σ_t minDur(t) if no single employee
// can (spec.md §4.4).
func oneWorkerUpperBound(employees []domain.Employee, tm []taskModel) int {
	best := -1
	for ei := range employees {
		total := 0
		complete := true
		for _, t := range tm {
			found := false
			for _, opt := range t.options {
				if opt.employeeIdx == ei {
					total += opt.minutes
					found = true
					break
				}
			}
			if !found {
				complete = false
				break
			}
		}
		if complete && (best == -1 || total < best) {
			best = total
		}
	}
	if best == -1 {
		best = 0
		for _, t := range tm {
			if t.minDur > 0 {
				best += t.minDur
			}
		}
	}
	return best
}

func indexOfEmployee(employees []domain.Employee, id domain.Identifier[domain.Employee]) int {
	for i, e := range employees {
		if e.ID().Equal(id) {
			return i
		}
	}
	return -1
}

// buildSymmetryGroups groups employees whose duration rows are identical
// across every task both can perform (spec.md §4.4, "group employees by
// identical duration-row").
func buildSymmetryGroups(employees []domain.Employee, tasks []taskModel) ([]int, map[int][]int) {
	row := make([]map[int]int, len(employees))
	for i := range employees {
		row[i] = make(map[int]int)
	}
	for ti, t := range tasks {
		for _, opt := range t.options {
			row[opt.employeeIdx][ti] = opt.minutes
		}
	}

	group := make([]int, len(employees))
	for i := range group {
		group[i] = -1
	}
	next := 0
	for i := range employees {
		if group[i] != -1 {
			continue
		}
		group[i] = next
		for j := i + 1; j < len(employees); j++ {
			if group[j] == -1 && sameDurationRow(row[i], row[j]) {
				group[j] = next
			}
		}
		next++
	}

	order := make(map[int][]int)
	for i, g := range group {
		order[g] = append(order[g], i)
	}
	return group, order
}

func sameDurationRow(a, b map[int]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// isRootTask reports whether t has no precedence predecessor — the
// symmetry-breaking lex-chain in spec.md §4.4 applies only to root tasks.
func (m *model) isRootTask(taskIdx int) bool {
	return m.tasks[taskIdx].predecessorIdx < 0
}
