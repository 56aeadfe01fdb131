package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/bellum/bellum/pkg/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_LookupIsCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(scheduler.SolverDescriptor{Name: "Choco Solver", Description: "constraint programming"})

	d, err := r.Lookup("choco solver")
	require.NoError(t, err)
	assert.Equal(t, "Choco Solver", d.Name)

	d, err = r.Lookup("  CHOCO SOLVER  ")
	require.NoError(t, err)
	assert.Equal(t, "Choco Solver", d.Name)
}

func TestRegistry_UnknownSolverReturnsTypedError(t *testing.T) {
	r := NewRegistry()
	r.Register(scheduler.SolverDescriptor{Name: "Jenetics"})

	_, err := r.Lookup("nope")
	require.Error(t, err)
	var unknown *UnknownSolverError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "nope", unknown.Name)
	assert.Contains(t, unknown.Known, "Jenetics")
}

func TestRegistry_ConcurrentRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Register(scheduler.SolverDescriptor{Name: "solver"})
			_, _ = r.Lookup("solver")
		}(i)
	}
	wg.Wait()

	names := r.Names()
	require.Len(t, names, 1)
	assert.Equal(t, "solver", names[0])
}
