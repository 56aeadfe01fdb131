package ga

import "math/rand/v2"

// pmx implements partially-matched crossover (spec.md §4.5, "PMX at rate
// 0.8"): a contiguous slice [a,b) is copied verbatim from parent1 into the
// child; every remaining parent2 gene not already placed is threaded into
// the child through parent1's same-position mapping, preserving
// permutation validity.
func pmx(parent1, parent2 []int, rng *rand.Rand) []int {
	n := len(parent1)
	child := make([]int, n)
	for i := range child {
		child[i] = -1
	}

	a := rng.IntN(n)
	b := rng.IntN(n)
	if a > b {
		a, b = b, a
	}

	placed := make(map[int]bool, b-a)
	for i := a; i < b; i++ {
		child[i] = parent1[i]
		placed[parent1[i]] = true
	}

	posInParent1 := make(map[int]int, n)
	for i, v := range parent1 {
		posInParent1[v] = i
	}

	for i := a; i < b; i++ {
		v := parent2[i]
		if placed[v] {
			continue
		}
		pos := i
		for {
			occupant := parent1[pos]
			next, ok := indexOf(parent2, occupant)
			if !ok {
				break
			}
			if next < a || next >= b {
				pos = next
				break
			}
			pos = next
		}
		child[pos] = v
		placed[v] = true
	}

	for i := range child {
		if child[i] == -1 {
			child[i] = parent2[i]
		}
	}
	return child
}

func indexOf(s []int, v int) (int, bool) {
	for i, x := range s {
		if x == v {
			return i, true
		}
	}
	return 0, false
}
