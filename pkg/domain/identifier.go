// Package domain holds the Bellum scheduling model: Project, Task, Employee,
// SkillPoint and the invariants that bind them together.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Identifier is an opaque, time-ordered, equality-comparable id. The type
// parameter is a phantom marker only (Employee, Task, Project) so that an
// Identifier[Task] can never be mistaken for an Identifier[Employee] at
// compile time, even though both wrap the same UUIDv7 representation.
type Identifier[T any] struct {
	value uuid.UUID
}

// NewIdentifier mints a fresh, time-ordered Identifier.
func NewIdentifier[T any]() Identifier[T] {
	id, err := uuid.NewV7()
	if err != nil {
		// uuid.NewV7 only fails if the system clock/rand source is broken
		// beyond repair; falling back to a random v4 keeps the id unique
		// (if no longer time-ordered) rather than panicking the caller.
		id = uuid.New()
	}
	return Identifier[T]{value: id}
}

// IdentifierFromString parses a previously-serialized identifier.
func IdentifierFromString[T any](s string) (Identifier[T], error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return Identifier[T]{}, fmt.Errorf("bellum: invalid identifier %q: %w", s, err)
	}
	return Identifier[T]{value: id}, nil
}

// String renders the canonical UUID form.
func (id Identifier[T]) String() string {
	return id.value.String()
}

// IsZero reports whether this Identifier was never assigned.
func (id Identifier[T]) IsZero() bool {
	return id.value == uuid.Nil
}

// Equal compares two identifiers of the same phantom type by value.
func (id Identifier[T]) Equal(other Identifier[T]) bool {
	return id.value == other.value
}

// Compare orders identifiers by their time-ordered UUIDv7 bytes, so sorting
// a slice of Identifier[T] also sorts by creation time.
func (id Identifier[T]) Compare(other Identifier[T]) int {
	switch {
	case id.value == other.value:
		return 0
	case id.value.String() < other.value.String():
		return -1
	default:
		return 1
	}
}
