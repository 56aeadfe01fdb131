package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkillPoint_RoundTrip(t *testing.T) {
	for p := 0; p <= 9; p++ {
		sp, err := NewSkillPoint(p)
		require.NoError(t, err, "p=%d", p)
		assert.Equal(t, p, sp.Int())
	}
}

func TestSkillPoint_OutOfRangeFails(t *testing.T) {
	for _, p := range []int{-1, 10, 100, -100} {
		_, err := NewSkillPoint(p)
		assert.Error(t, err, "p=%d", p)
	}
}

func TestSkillMap_GetMissingIsZero(t *testing.T) {
	m := SkillMap{"go": 5}
	assert.Equal(t, SkillPoint(0), m.Get("rust"))
	assert.Equal(t, SkillPoint(5), m.Get("go"))
}

func TestSkillMap_CloneIsIndependent(t *testing.T) {
	m := SkillMap{"go": 5}
	clone := m.Clone()
	clone["go"] = 9
	assert.Equal(t, SkillPoint(5), m["go"])
}
