// Package validation is a small rule-set combinator library: a validation
// is a set of named rules, each a (label, predicate) pair, evaluated against
// a target value. Per spec.md §9, this is deliberately not a full validation
// DSL — just enough to let tests assert on a specific rule by label.
package validation

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// RuleViolation is one failed rule, keyed by its stable Label so tests can
// assert on a specific check (spec.md §4.1).
type RuleViolation struct {
	Label   string // stable rule identifier, e.g. "circular task dependency"
	Path    string // dataPath of the offending value
	Message string // value-bearing message, {value} already substituted
}

func (v RuleViolation) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// ValidationError carries every violated rule from one evaluation. It is
// the sole error type Project construction returns on an init-invariant
// failure (spec.md §7).
type ValidationError struct {
	Errors []RuleViolation
}

// NewValidationError wraps one or more violations.
func NewValidationError(violations []RuleViolation) *ValidationError {
	return &ValidationError{Errors: violations}
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d validation rules failed", len(e.Errors))
}

// Kind implements the repository-wide error taxonomy (spec.md §7 / SPEC_FULL §7).
func (e *ValidationError) Kind() ErrorKind { return KindValidation }

// ByLabel returns every violation recorded under label, in evaluation order.
func (e *ValidationError) ByLabel(label string) []RuleViolation {
	var out []RuleViolation
	for _, v := range e.Errors {
		if v.Label == label {
			out = append(out, v)
		}
	}
	return out
}

// HasLabel reports whether any violation was recorded under label.
func (e *ValidationError) HasLabel(label string) bool {
	return len(e.ByLabel(label)) > 0
}

// Rule is one named predicate over a target value T.
type Rule[T any] struct {
	Label   string
	Check   func(target T) (ok bool, violation RuleViolation)
}

// RuleSet is an ordered, conjunctive collection of rules over T.
type RuleSet[T any] []Rule[T]

// Evaluate runs every rule in the set against target and collects every
// failure. Evaluation is pure: running it twice on the same target produces
// an equal result (spec.md §8, "Validation idempotence").
func (rs RuleSet[T]) Evaluate(target T) []RuleViolation {
	var merr *multierror.Error
	for _, rule := range rs {
		ok, violation := rule.Check(target)
		if ok {
			continue
		}
		violation.Label = rule.Label
		merr = multierror.Append(merr, violation)
	}
	// merr.Errors is the real internal aggregate; flatten it to the stable
	// RuleViolation slice the rest of the repository (and spec.md §7's
	// ValidationError) expects as its public contract.
	if merr == nil {
		return nil
	}
	out := make([]RuleViolation, len(merr.Errors))
	for i, err := range merr.Errors {
		out[i] = err.(RuleViolation)
	}
	return out
}

// EvaluateSequenced runs initial first; if it produces any violation, full
// is never evaluated (spec.md §4.1, "initial set short-circuits the full
// set"). Returns the combined result either way.
func EvaluateSequenced[T any](target T, initial, full RuleSet[T]) []RuleViolation {
	if violations := initial.Evaluate(target); len(violations) > 0 {
		return violations
	}
	return full.Evaluate(target)
}
