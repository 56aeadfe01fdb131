package ga

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assertPermutation(t *testing.T, genome []int, n int) {
	t.Helper()
	sorted := append([]int(nil), genome...)
	sort.Ints(sorted)
	for i := 0; i < n; i++ {
		assert.Equal(t, i, sorted[i], "genome is not a permutation of [0,%d)", n)
	}
}

func TestPMX_ProducesValidPermutation(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	parent1 := []int{0, 1, 2, 3, 4, 5, 6, 7}
	parent2 := []int{3, 7, 5, 1, 6, 0, 2, 4}

	for i := 0; i < 50; i++ {
		child := pmx(parent1, parent2, rng)
		assertPermutation(t, child, len(parent1))
	}
}

func TestMutate_PreservesPermutation(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	genome := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	for i := 0; i < 50; i++ {
		mutated := mutate(genome, rng)
		assertPermutation(t, mutated, len(genome))
	}
}
