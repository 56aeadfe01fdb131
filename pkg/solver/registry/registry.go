// Package registry is the case-insensitive solver name → descriptor lookup
// of SPEC_FULL.md §4.6: the CLI and HTTP façade both resolve a solver by
// name through one shared Registry instance rather than switching on solver
// names themselves.
package registry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bellum/bellum/pkg/scheduler"
	"github.com/bellum/bellum/pkg/validation"
)

// Registry is a thread-safe, case-insensitive solver descriptor lookup.
// Grounded on the teacher's algorithm-name registry
// (pkg/scheduler/optimized_load_balancer.go's `olb.algorithms` map and its
// "algorithm not found: %s" error) — a plain map guarded by a mutex, the
// same shape nomad's client/dynamicplugins registry uses for its own
// plugin catalog.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]scheduler.SolverDescriptor
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]scheduler.SolverDescriptor)}
}

// Register adds or replaces a descriptor under its Name, case-insensitively.
func (r *Registry) Register(descriptor scheduler.SolverDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[normalize(descriptor.Name)] = descriptor
}

// Lookup resolves name to its descriptor, or an *UnknownSolverError if no
// solver was registered under it.
func (r *Registry) Lookup(name string) (scheduler.SolverDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	descriptor, ok := r.byID[normalize(name)]
	if !ok {
		return scheduler.SolverDescriptor{}, &UnknownSolverError{Name: name, Known: r.namesLocked()}
	}
	return descriptor, nil
}

// Names returns every registered solver's display Name, in registration
// order is not guaranteed — callers that need a stable order should sort.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.byID))
	for _, d := range r.byID {
		names = append(names, d.Name)
	}
	return names
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// UnknownSolverError reports a lookup for a solver name nothing is
// registered under.
type UnknownSolverError struct {
	Name  string
	Known []string
}

func (e *UnknownSolverError) Error() string {
	return fmt.Sprintf("solver not found: %s (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

// Kind satisfies validation.KindedError.
func (e *UnknownSolverError) Kind() validation.ErrorKind { return validation.KindUnknownSolver }
