package domain

import (
	"strings"
	"time"

	"github.com/bellum/bellum/pkg/validation"
)

// Priority ranks a Task's importance; lower values are more important.
type Priority int

const (
	PriorityCritical Priority = 0
	PriorityMajor    Priority = 1
	PriorityMinor    Priority = 2
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "CRITICAL"
	case PriorityMajor:
		return "MAJOR"
	case PriorityMinor:
		return "MINOR"
	default:
		return "UNKNOWN"
	}
}

// Task is the tagged Unassigned|Assigned variant from spec.md §3. Go has no
// native sum type, so per spec.md §9 this is implemented as an interface
// with two concrete struct variants (UnassignedTask, AssignedTask); callers
// dispatch on the concrete type with a type switch, never by probing fields.
type Task interface {
	ID() Identifier[Task]
	Description() string
	Priority() Priority
	RequiredSkills() SkillMap
	// DependsOn returns the predecessor's Identifier and true, or the zero
	// Identifier and false if this task has no dependency. Per spec.md §9
	// this is a relation (a foreign key), never an owning reference, so
	// that the cyclic graphs the source data may contain can still be
	// stored and inspected by Project's validation pass.
	DependsOn() (Identifier[Task], bool)
	// ChangeDependency returns a new task of the same variant and identity
	// with its dependency replaced.
	ChangeDependency(dep *Identifier[Task]) Task
	// Assign returns a new AssignedTask preserving this task's identity.
	Assign(employee Identifier[Employee], startAt time.Time, duration time.Duration, pinned bool) AssignedTask
	// Hash satisfies hashicorp/go-set/v3's HashFunc[string].
	Hash() string

	isTask()
}

type taskCore struct {
	id             Identifier[Task]
	description    string
	priority       Priority
	requiredSkills SkillMap
	dependsOn      *Identifier[Task]
}

func newTaskCore(id Identifier[Task], description string, priority Priority, skills SkillMap, dep *Identifier[Task]) (taskCore, error) {
	if strings.TrimSpace(description) == "" {
		return taskCore{}, validation.NewValidationError([]validation.RuleViolation{{
			Label:   "task description non-blank",
			Path:    "task.description",
			Message: "task description must not be blank",
		}})
	}
	if skills == nil {
		skills = SkillMap{}
	}
	var depCopy *Identifier[Task]
	if dep != nil {
		d := *dep
		depCopy = &d
	}
	return taskCore{
		id:             id,
		description:    description,
		priority:       priority,
		requiredSkills: skills.Clone(),
		dependsOn:      depCopy,
	}, nil
}

func (c taskCore) ID() Identifier[Task]         { return c.id }
func (c taskCore) Description() string          { return c.description }
func (c taskCore) Priority() Priority           { return c.priority }
func (c taskCore) RequiredSkills() SkillMap     { return c.requiredSkills.Clone() }
func (c taskCore) Hash() string                 { return c.id.String() }
func (c taskCore) DependsOn() (Identifier[Task], bool) {
	if c.dependsOn == nil {
		return Identifier[Task]{}, false
	}
	return *c.dependsOn, true
}

// UnassignedTask is a Task with no employee, start time, or duration yet.
type UnassignedTask struct {
	core taskCore
}

// NewUnassignedTask constructs a fresh UnassignedTask.
func NewUnassignedTask(description string, priority Priority, skills SkillMap, dependsOn *Identifier[Task]) (UnassignedTask, error) {
	return NewUnassignedTaskWithID(NewIdentifier[Task](), description, priority, skills, dependsOn)
}

// NewUnassignedTaskWithID is the parser-facing constructor (spec.md §6.1).
func NewUnassignedTaskWithID(id Identifier[Task], description string, priority Priority, skills SkillMap, dependsOn *Identifier[Task]) (UnassignedTask, error) {
	core, err := newTaskCore(id, description, priority, skills, dependsOn)
	if err != nil {
		return UnassignedTask{}, err
	}
	return UnassignedTask{core: core}, nil
}

func (t UnassignedTask) isTask() {}

func (t UnassignedTask) ID() Identifier[Task]             { return t.core.ID() }
func (t UnassignedTask) Description() string              { return t.core.Description() }
func (t UnassignedTask) Priority() Priority                { return t.core.Priority() }
func (t UnassignedTask) RequiredSkills() SkillMap          { return t.core.RequiredSkills() }
func (t UnassignedTask) DependsOn() (Identifier[Task], bool) { return t.core.DependsOn() }
func (t UnassignedTask) Hash() string                      { return t.core.Hash() }

// ChangeDependency returns a new UnassignedTask with dep substituted,
// preserving identity and variant (spec.md §3).
func (t UnassignedTask) ChangeDependency(dep *Identifier[Task]) Task {
	core, _ := newTaskCore(t.core.id, t.core.description, t.core.priority, t.core.requiredSkills, dep)
	return UnassignedTask{core: core}
}

// Assign returns a new AssignedTask with the same identity, description,
// priority, required skills, and dependency as t.
func (t UnassignedTask) Assign(employee Identifier[Employee], startAt time.Time, duration time.Duration, pinned bool) AssignedTask {
	return AssignedTask{
		core:     t.core,
		employee: employee,
		startAt:  startAt,
		duration: duration,
		pinned:   pinned,
	}
}

// AssignedTask is a Task bound to an employee, start time, and duration.
type AssignedTask struct {
	core     taskCore
	employee Identifier[Employee]
	startAt  time.Time
	duration time.Duration
	pinned   bool
}

func (t AssignedTask) isTask() {}

func (t AssignedTask) ID() Identifier[Task]             { return t.core.ID() }
func (t AssignedTask) Description() string              { return t.core.Description() }
func (t AssignedTask) Priority() Priority                { return t.core.Priority() }
func (t AssignedTask) RequiredSkills() SkillMap          { return t.core.RequiredSkills() }
func (t AssignedTask) DependsOn() (Identifier[Task], bool) { return t.core.DependsOn() }
func (t AssignedTask) Hash() string                      { return t.core.Hash() }

// Employee returns the assigned employee's Identifier.
func (t AssignedTask) Employee() Identifier[Employee] { return t.employee }

// StartAt returns the task's scheduled start time.
func (t AssignedTask) StartAt() time.Time { return t.startAt }

// Duration returns the task's scheduled duration.
func (t AssignedTask) Duration() time.Duration { return t.duration }

// EndsAt returns StartAt() + Duration(), computed rather than stored.
func (t AssignedTask) EndsAt() time.Time { return t.startAt.Add(t.duration) }

// Pinned reports whether the solver must preserve this exact assignment
// (spec.md §3, "Pinned task").
func (t AssignedTask) Pinned() bool { return t.pinned }

// ChangeDependency returns a new AssignedTask with dep substituted,
// preserving identity, variant, and assignment.
func (t AssignedTask) ChangeDependency(dep *Identifier[Task]) Task {
	core, _ := newTaskCore(t.core.id, t.core.description, t.core.priority, t.core.requiredSkills, dep)
	return AssignedTask{core: core, employee: t.employee, startAt: t.startAt, duration: t.duration, pinned: t.pinned}
}

// Assign returns a new AssignedTask reflecting the updated assignment,
// preserving identity and the original dependency.
func (t AssignedTask) Assign(employee Identifier[Employee], startAt time.Time, duration time.Duration, pinned bool) AssignedTask {
	return AssignedTask{core: t.core, employee: employee, startAt: startAt, duration: duration, pinned: pinned}
}

// Unassign returns a new UnassignedTask preserving identity and dependency.
func (t AssignedTask) Unassign() UnassignedTask {
	return UnassignedTask{core: t.core}
}

// IsAssigned reports whether t is the Assigned variant, and if so returns
// it. This is the idiomatic Go stand-in for a tagged-union match.
func IsAssigned(t Task) (AssignedTask, bool) {
	at, ok := t.(AssignedTask)
	return at, ok
}
