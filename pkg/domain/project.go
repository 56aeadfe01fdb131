package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bellum/bellum/pkg/validation"
	"github.com/hashicorp/go-memdb"
	set "github.com/hashicorp/go-set/v3"
)

// ScheduledStatus summarizes how much of a Project is assigned.
type ScheduledStatus int

const (
	StatusNone ScheduledStatus = iota
	StatusPartial
	StatusScheduled
)

func (s ScheduledStatus) String() string {
	switch s {
	case StatusNone:
		return "NONE"
	case StatusPartial:
		return "PARTIAL"
	case StatusScheduled:
		return "SCHEDULED"
	default:
		return "UNKNOWN"
	}
}

// Project is the aggregate root: employees, tasks, and the invariants that
// bind them (spec.md §3). It is immutable once constructed; every mutating
// operation (Replace*) returns a new, independently-validated Project.
type Project struct {
	id        Identifier[Project]
	name      string
	kickOff   time.Time
	employees *set.HashSet[Employee, string]
	tasks     *set.HashSet[Task, string]
	store     *memdb.MemDB
}

// NewProject validates and constructs a Project, enforcing the three init
// invariants from spec.md §3: no circular dependency, every Assigned
// task's employee is known, and every dependency reference is known. A
// failure returns a single *validation.ValidationError carrying every
// violated rule.
func NewProject(name string, kickOff time.Time, employees []Employee, tasks []Task) (*Project, error) {
	return NewProjectWithID(NewIdentifier[Project](), name, kickOff, employees, tasks)
}

// NewProjectWithID is the parser-facing constructor (spec.md §6.1).
func NewProjectWithID(id Identifier[Project], name string, kickOff time.Time, employees []Employee, tasks []Task) (*Project, error) {
	if violations := initRules().Evaluate(initTarget{employees: employees, tasks: tasks}); len(violations) > 0 {
		return nil, validation.NewValidationError(violations)
	}

	employeeSet := set.NewHashSet[Employee, string](len(employees))
	for _, e := range employees {
		employeeSet.Insert(e)
	}
	taskSet := set.NewHashSet[Task, string](len(tasks))
	for _, t := range tasks {
		taskSet.Insert(t)
	}

	store, err := newProjectStore(tasks, employees)
	if err != nil {
		return nil, fmt.Errorf("bellum: building project index: %w", err)
	}

	return &Project{
		id:        id,
		name:      name,
		kickOff:   kickOff,
		employees: employeeSet,
		tasks:     taskSet,
		store:     store,
	}, nil
}

// ID returns the Project's Identifier.
func (p *Project) ID() Identifier[Project] { return p.id }

// Name returns the project's display name.
func (p *Project) Name() string { return p.name }

// KickOff returns the project's start instant.
func (p *Project) KickOff() time.Time { return p.kickOff }

// Employees returns every employee in the project, in no particular order.
func (p *Project) Employees() []Employee { return p.employees.Slice() }

// Tasks returns every task in the project, in no particular order.
func (p *Project) Tasks() []Task { return p.tasks.Slice() }

// ByID looks up a task by its Identifier via the project's indexed store.
func (p *Project) ByID(id Identifier[Task]) (Task, bool) {
	return lookupTask(p.store, id.String())
}

// EmployeeByID looks up an employee by its Identifier.
func (p *Project) EmployeeByID(id Identifier[Employee]) (Employee, bool) {
	return lookupEmployee(p.store, id.String())
}

// ReplaceTasks returns a new, independently-validated Project with its task
// set replaced — the "derive" operation spec.md's component table alludes
// to, used by solvers to turn a decision into a decoded Project.
func (p *Project) ReplaceTasks(tasks []Task) (*Project, error) {
	return NewProjectWithID(p.id, p.name, p.kickOff, p.Employees(), tasks)
}

// ReplaceEmployees returns a new, independently-validated Project with its
// employee set replaced.
func (p *Project) ReplaceEmployees(employees []Employee) (*Project, error) {
	return NewProjectWithID(p.id, p.name, p.kickOff, employees, p.Tasks())
}

// ScheduledStatus derives NONE/PARTIAL/SCHEDULED from the ratio of Assigned
// tasks (spec.md §3).
func (p *Project) ScheduledStatus() ScheduledStatus {
	tasks := p.Tasks()
	if len(tasks) == 0 {
		return StatusScheduled
	}
	assigned := 0
	for _, t := range tasks {
		if _, ok := IsAssigned(t); ok {
			assigned++
		}
	}
	switch {
	case assigned == 0:
		return StatusNone
	case assigned == len(tasks):
		return StatusScheduled
	default:
		return StatusPartial
	}
}

// EndsAt returns the maximum EndsAt() across every Assigned task, or
// KickOff() if nothing is assigned yet.
func (p *Project) EndsAt() time.Time {
	end := p.kickOff
	for _, t := range p.Tasks() {
		if at, ok := IsAssigned(t); ok {
			if e := at.EndsAt(); e.After(end) {
				end = e
			}
		}
	}
	return end
}

// TotalDuration returns EndsAt() - KickOff().
func (p *Project) TotalDuration() time.Duration {
	return p.EndsAt().Sub(p.kickOff)
}

// PriorityCost counts ordered pairs (i,j) of Assigned tasks where
// priority[i] > priority[j] (i is less important) yet start[i] < start[j] —
// a priority inversion (spec.md §3, §4.4).
func (p *Project) PriorityCost() int {
	tasks := p.Tasks()
	assigned := make([]AssignedTask, 0, len(tasks))
	for _, t := range tasks {
		if at, ok := IsAssigned(t); ok {
			assigned = append(assigned, at)
		}
	}
	cost := 0
	for i := range assigned {
		for j := range assigned {
			if i == j {
				continue
			}
			if assigned[i].Priority() > assigned[j].Priority() && assigned[i].StartAt().Before(assigned[j].StartAt()) {
				cost++
			}
		}
	}
	return cost
}

// ValidationResult is the outcome of Validate(): the full-invariant check
// that spec.md §3 says is reported, not fatal to construction.
type ValidationResult struct {
	IsValid bool
	Errors  []validation.RuleViolation
}

// Validate runs the full invariants (spec.md §3): no overlapping Assigned
// intervals per employee, and every Assigned dependency respected. It is
// pure — calling it twice on the same Project returns an equal result
// (spec.md §8, "Validation idempotence").
func (p *Project) Validate() ValidationResult {
	violations := fullRules().Evaluate(p)
	return ValidationResult{IsValid: len(violations) == 0, Errors: violations}
}

// IsValid is shorthand for Validate().IsValid.
func (p *Project) IsValid() bool {
	return p.Validate().IsValid
}

// --- init invariants -------------------------------------------------

type initTarget struct {
	employees []Employee
	tasks     []Task
}

func initRules() validation.RuleSet[initTarget] {
	return validation.RuleSet[initTarget]{
		{Label: "circular task dependency", Check: checkNoCycles},
		{Label: "unknown employee reference", Check: checkKnownEmployees},
		{Label: "missing task dependencies", Check: checkKnownDependencies},
	}
}

func checkNoCycles(target initTarget) (bool, validation.RuleViolation) {
	byID := make(map[string]Task, len(target.tasks))
	for _, t := range target.tasks {
		byID[t.ID().String()] = t
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(target.tasks))
	var cycle []string
	closed := false

	var visit func(id string) bool
	visit = func(id string) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			cycle = append(cycle, id)
			return true
		}
		color[id] = gray
		t, ok := byID[id]
		if ok {
			if dep, hasDep := t.DependsOn(); hasDep {
				if visit(dep.String()) {
					// Tasks that only lead into the cycle stop adding
					// themselves once the loop has closed.
					if !closed {
						if cycle[len(cycle)-1] != id {
							cycle = append(cycle, id)
						}
						closed = id == cycle[0]
					}
					return true
				}
			}
		}
		color[id] = black
		return false
	}

	for _, t := range target.tasks {
		if color[t.ID().String()] == white {
			if visit(t.ID().String()) {
				return false, validation.RuleViolation{Message: formatCycle(cycle, byID)}
			}
		}
	}
	return true, validation.RuleViolation{}
}

// formatCycle renders the cycle members' descriptions sorted alphabetically
// and joined with " - ", closing the loop by repeating the first
// description — matching spec.md §8 scenario 3's pinned
// "t1 - t3 - t5 - t1" format.
func formatCycle(cycleIDs []string, byID map[string]Task) string {
	seen := make(map[string]bool)
	var names []string
	for _, id := range cycleIDs {
		if t, ok := byID[id]; ok && !seen[id] {
			seen[id] = true
			names = append(names, t.Description())
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return "circular task dependency"
	}
	return strings.Join(names, " - ") + " - " + names[0]
}

func checkKnownEmployees(target initTarget) (bool, validation.RuleViolation) {
	known := make(map[string]bool, len(target.employees))
	for _, e := range target.employees {
		known[e.ID().String()] = true
	}
	var offenders []string
	for _, t := range target.tasks {
		if at, ok := IsAssigned(t); ok {
			if !known[at.Employee().String()] {
				offenders = append(offenders, at.Description())
			}
		}
	}
	if len(offenders) == 0 {
		return true, validation.RuleViolation{}
	}
	sort.Strings(offenders)
	return false, validation.RuleViolation{
		Path:    "tasks",
		Message: strings.Join(offenders, ", "),
	}
}

func checkKnownDependencies(target initTarget) (bool, validation.RuleViolation) {
	known := make(map[string]bool, len(target.tasks))
	for _, t := range target.tasks {
		known[t.ID().String()] = true
	}
	var offenders []string
	for _, t := range target.tasks {
		if dep, ok := t.DependsOn(); ok && !known[dep.String()] {
			offenders = append(offenders, t.Description())
		}
	}
	if len(offenders) == 0 {
		return true, validation.RuleViolation{}
	}
	sort.Strings(offenders)
	return false, validation.RuleViolation{
		Path:    "tasks",
		Message: strings.Join(offenders, ", "),
	}
}

// --- full invariants ---------------------------------------------------

func fullRules() validation.RuleSet[*Project] {
	return validation.RuleSet[*Project]{
		{Label: "employees with overlap", Check: checkNoOverlap},
		{Label: "precedence order", Check: checkPrecedence},
	}
}

func checkNoOverlap(p *Project) (bool, validation.RuleViolation) {
	byEmployee := map[string][]AssignedTask{}
	for _, t := range p.Tasks() {
		if at, ok := IsAssigned(t); ok {
			key := at.Employee().String()
			byEmployee[key] = append(byEmployee[key], at)
		}
	}
	var offenders []string
	for empID, tasks := range byEmployee {
		sort.Slice(tasks, func(i, j int) bool { return tasks[i].StartAt().Before(tasks[j].StartAt()) })
		for i := 1; i < len(tasks); i++ {
			if tasks[i].StartAt().Before(tasks[i-1].EndsAt()) {
				offenders = append(offenders, fmt.Sprintf("%s: %q overlaps %q", empID, tasks[i-1].Description(), tasks[i].Description()))
			}
		}
	}
	if len(offenders) == 0 {
		return true, validation.RuleViolation{}
	}
	sort.Strings(offenders)
	return false, validation.RuleViolation{Path: "tasks", Message: strings.Join(offenders, ", ")}
}

func checkPrecedence(p *Project) (bool, validation.RuleViolation) {
	var offenders []string
	for _, t := range p.Tasks() {
		at, ok := IsAssigned(t)
		if !ok {
			continue
		}
		depID, hasDep := at.DependsOn()
		if !hasDep {
			continue
		}
		dep, found := p.ByID(depID)
		if !found {
			continue
		}
		depAssigned, ok := IsAssigned(dep)
		if !ok {
			continue
		}
		if at.StartAt().Before(depAssigned.EndsAt()) {
			offenders = append(offenders, fmt.Sprintf("%q starts before %q ends", at.Description(), depAssigned.Description()))
		}
	}
	if len(offenders) == 0 {
		return true, validation.RuleViolation{}
	}
	sort.Strings(offenders)
	return false, validation.RuleViolation{Path: "tasks", Message: strings.Join(offenders, ", ")}
}
