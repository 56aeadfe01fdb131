package main

import (
	"github.com/bellum/bellum/pkg/estimator"
	"github.com/bellum/bellum/pkg/scheduler"
	"github.com/bellum/bellum/pkg/solver/cp"
	"github.com/bellum/bellum/pkg/solver/ga"
	"github.com/bellum/bellum/pkg/solver/registry"
)

// buildRegistry registers every solver the core ships with. A real
// deployment wanting a third solver would add a descriptor here, never
// touch pkg/scheduler or pkg/httpapi.
func buildRegistry() *registry.Registry {
	reg := registry.NewRegistry()
	reg.Register(scheduler.SolverDescriptor{
		Name:        "Choco Solver",
		Description: "exact branch-and-bound constraint-programming search",
		NewEngine: func(est estimator.TimeEstimator) scheduler.Engine {
			return cp.NewCPEngine(est)
		},
	})
	reg.Register(scheduler.SolverDescriptor{
		Name:        "Jenetics",
		Description: "permutation genetic algorithm metaheuristic",
		NewEngine: func(est estimator.TimeEstimator) scheduler.Engine {
			return ga.NewGAEngine(est)
		},
	})
	return reg
}
