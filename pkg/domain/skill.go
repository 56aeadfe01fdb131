package domain

import (
	"fmt"

	"github.com/bellum/bellum/pkg/validation"
)

// SkillPoint is a bounded integer skill level in [0, 9].
type SkillPoint int

const (
	// MinSkillPoint is the lowest valid SkillPoint.
	MinSkillPoint SkillPoint = 0
	// MaxSkillPoint is the highest valid SkillPoint.
	MaxSkillPoint SkillPoint = 9
)

// NewSkillPoint validates p and returns it as a SkillPoint, or a
// *ValidationError if p falls outside [0, 9].
func NewSkillPoint(p int) (SkillPoint, error) {
	if p < int(MinSkillPoint) || p > int(MaxSkillPoint) {
		return 0, validation.NewValidationError([]validation.RuleViolation{{
			Label:   "skill point range",
			Path:    "skillPoint",
			Message: fmt.Sprintf("skill point %d out of range [%d,%d]", p, MinSkillPoint, MaxSkillPoint),
		}})
	}
	return SkillPoint(p), nil
}

// Int returns the underlying integer value.
func (s SkillPoint) Int() int { return int(s) }

// SkillMap maps a skill name (conventionally "skill1".."skillN") to the
// level an Employee holds it at, or a Task requires it at. Key order is
// irrelevant; keys are unique by construction (it is a Go map).
type SkillMap map[string]SkillPoint

// Get returns the level for name, or 0 if name is absent — per spec.md
// §4.2, a missing skill on either side of an estimate contributes 0.
func (m SkillMap) Get(name string) SkillPoint {
	return m[name]
}

// Keys returns the skill names present, not copying values.
func (m SkillMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// Clone returns an independent copy, since SkillMap is shared inside
// otherwise-immutable entities.
func (m SkillMap) Clone() SkillMap {
	out := make(SkillMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
