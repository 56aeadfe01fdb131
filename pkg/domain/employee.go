package domain

import (
	"strings"

	"github.com/bellum/bellum/pkg/validation"
)

// Employee is an immutable worker with a set of skills. Equality and
// identity are by ID; the set.HashFunc implementation lets Employee live in
// a hashicorp/go-set/v3 HashSet even though SkillMap (a Go map) makes the
// struct itself non-comparable.
type Employee struct {
	id     Identifier[Employee]
	name   string
	skills SkillMap
}

// NewEmployee validates name and builds an Employee. A blank name fails
// with *validation.ValidationError (spec.md §3, "name non-blank").
func NewEmployee(name string, skills SkillMap) (Employee, error) {
	return newEmployeeWithID(NewIdentifier[Employee](), name, skills)
}

// NewEmployeeWithID is the parser-facing constructor (spec.md §6.1) for
// callers that already have a stable id (e.g. replaying a prior run).
func NewEmployeeWithID(id Identifier[Employee], name string, skills SkillMap) (Employee, error) {
	return newEmployeeWithID(id, name, skills)
}

func newEmployeeWithID(id Identifier[Employee], name string, skills SkillMap) (Employee, error) {
	if strings.TrimSpace(name) == "" {
		return Employee{}, validation.NewValidationError([]validation.RuleViolation{{
			Label:   "employee name non-blank",
			Path:    "employee.name",
			Message: "employee name must not be blank",
		}})
	}
	if skills == nil {
		skills = SkillMap{}
	}
	return Employee{id: id, name: name, skills: skills.Clone()}, nil
}

// ID returns the employee's Identifier.
func (e Employee) ID() Identifier[Employee] { return e.id }

// Name returns the employee's display name.
func (e Employee) Name() string { return e.name }

// Skills returns a copy of the employee's skill map.
func (e Employee) Skills() SkillMap { return e.skills.Clone() }

// Hash satisfies hashicorp/go-set/v3's HashFunc[string], letting Employee
// live in a HashSet keyed by its identifier string.
func (e Employee) Hash() string { return e.id.String() }
