package ga

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/bellum/bellum/pkg/domain"
	"github.com/bellum/bellum/pkg/estimator"
	"github.com/bellum/bellum/pkg/scheduler"
	"github.com/hashicorp/go-hclog"
)

// Tunables from spec.md §4.5: population size, crossover rate, and the
// elitism count that carries the single best genome into the next
// generation so a generational replacement can never lose the incumbent.
const (
	populationSize = 100
	crossoverRate  = 0.8
	elitismCount   = 1
)

// GAEngine is the scheduler.Engine implementation of the genetic-algorithm
// formulation (spec.md §4.5): a permutation representation decoded by a
// greedy list scheduler, evolved by a generational engine with PMX
// crossover and composite mutation.
type GAEngine struct {
	estimator estimator.TimeEstimator
	logger    hclog.Logger
}

// Option configures a GAEngine.
type Option func(*GAEngine)

// WithLogger overrides the engine's hclog logger.
func WithLogger(logger hclog.Logger) Option {
	return func(e *GAEngine) { e.logger = logger }
}

// NewGAEngine builds a GA engine backed by est.
func NewGAEngine(est estimator.TimeEstimator, opts ...Option) *GAEngine {
	e := &GAEngine{estimator: est, logger: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name reports the solver name used in stats and the registry (spec.md
// §4.5: `solver="Jenetics"`).
func (e *GAEngine) Name() string { return "Jenetics" }

// SolveOptimizationProblem implements scheduler.Engine.
func (e *GAEngine) SolveOptimizationProblem(ctx context.Context, project *domain.Project, timeLimit time.Duration, onImprovement scheduler.Callback) (domain.SchedulerSolution, error) {
	started := time.Now()
	matrix := estimator.NewEstimationMatrix(e.estimator, project)
	m := buildModel(project, matrix)
	n := len(m.tasks)

	deadline := time.Now().Add(timeLimit)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}

	if n == 0 {
		return domain.SchedulerSolution{
			Project:  project,
			Optimal:  false,
			Duration: time.Since(started),
			Stats:    snapshotStats(0, 0, nil, 0, 0, 0),
		}, nil
	}

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))

	population := seedPopulation(n, rng)
	fitness := make([]int64, populationSize)
	infeasible := make([]bool, populationSize)
	for i, genome := range population {
		r := decode(genome, m)
		fitness[i] = r.fitness
		infeasible[i] = r.infeasible
	}

	bestIdx := argMin(fitness)
	var bestSolution domain.SchedulerSolution
	var bestFound bool

	emit := func(idx int) error {
		result := decode(population[idx], m)
		if result.infeasible {
			return nil
		}
		proj, err := decodeProject(project, m, result)
		if err != nil {
			return nil
		}
		bestFound = true
		bestSolution = domain.SchedulerSolution{
			Project:  proj,
			Optimal:  false,
			Duration: time.Since(started),
			Stats:    nil, // filled in by caller with the live generation count
		}
		if onImprovement != nil {
			return onImprovement(bestSolution)
		}
		return nil
	}

	var bestEverFitness int64 = math.MaxInt64
	generations := int64(0)
	alteredCount := int64(0)
	killedCount := int64(0)
	invalidCount := int64(0)

	if fitness[bestIdx] < bestEverFitness {
		bestEverFitness = fitness[bestIdx]
		if err := emit(bestIdx); err != nil {
			return domain.SchedulerSolution{}, err
		}
	}

	for time.Now().Before(deadline) && ctx.Err() == nil {
		generations++

		elite := eliteIndices(fitness, elitismCount)
		next := make([][]int, 0, populationSize)
		for _, idx := range elite {
			next = append(next, population[idx])
		}

		genInvalid := int64(0)
		for _, ok := range infeasible {
			if ok {
				genInvalid++
			}
		}
		invalidCount += genInvalid
		killedCount += int64(populationSize - len(elite))

		for len(next) < populationSize {
			p1 := tournamentSelect(population, fitness, rng)
			p2 := tournamentSelect(population, fitness, rng)

			var child []int
			if rng.Float64() < crossoverRate {
				child = pmx(p1, p2, rng)
				alteredCount++
			} else {
				child = append([]int(nil), p1...)
			}
			if rng.Float64() < mutationRate {
				child = mutate(child, rng)
				alteredCount++
			}
			next = append(next, child)
		}

		population = next
		for i, genome := range population {
			r := decode(genome, m)
			fitness[i] = r.fitness
			infeasible[i] = r.infeasible
		}

		gen := argMin(fitness)
		if fitness[gen] < bestEverFitness {
			bestEverFitness = fitness[gen]
			if err := emit(gen); err != nil {
				return domain.SchedulerSolution{}, err
			}
		}

		if ctx.Err() != nil {
			break
		}
	}

	stats := snapshotStats(generations, bestEverFitness, fitness, alteredCount, killedCount, invalidCount)
	if !bestFound {
		return domain.SchedulerSolution{
			Project:  project,
			Optimal:  false,
			Duration: time.Since(started),
			Stats:    stats,
		}, nil
	}
	bestSolution.Stats = stats
	bestSolution.Duration = time.Since(started)
	return bestSolution, nil
}

// seedPopulation builds populationSize random permutations of [0,n).
func seedPopulation(n int, rng *rand.Rand) [][]int {
	population := make([][]int, populationSize)
	for i := range population {
		genome := make([]int, n)
		for j := range genome {
			genome[j] = j
		}
		rng.Shuffle(n, func(a, b int) { genome[a], genome[b] = genome[b], genome[a] })
		population[i] = genome
	}
	return population
}

// tournamentSelect picks the fitter of two uniformly-sampled individuals.
func tournamentSelect(population [][]int, fitness []int64, rng *rand.Rand) []int {
	a := rng.IntN(len(population))
	b := rng.IntN(len(population))
	if fitness[a] <= fitness[b] {
		return population[a]
	}
	return population[b]
}

func argMin(fitness []int64) int {
	best := 0
	for i, f := range fitness {
		if f < fitness[best] {
			best = i
		}
	}
	return best
}

// eliteIndices returns the k indices with the smallest fitness, ascending.
func eliteIndices(fitness []int64, k int) []int {
	idx := make([]int, len(fitness))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return fitness[idx[a]] < fitness[idx[b]] })
	if k > len(idx) {
		k = len(idx)
	}
	return idx[:k]
}

// snapshotStats returns the GAStats map from spec.md §4.5. There is no
// separate infeasible-genome key: invalidCount carries that count, as
// recorded in DESIGN.md's Open Question decision.
func snapshotStats(generations int64, bestFitness int64, fitness []int64, alteredCount, killedCount, invalidCount int64) map[string]any {
	min, max, mean, variance := fitnessMoments(fitness)
	return map[string]any{
		"solver":          "Jenetics",
		"model name":      fmt.Sprintf("bellum-ga/%d-generations", generations),
		"fitness":         bestFitness,
		"generations":     generations,
		"fitnessMin":      min,
		"fitnessMax":      max,
		"fitnessMean":     mean,
		"fitnessVariance": variance,
		"alteredCount":    alteredCount,
		"killedCount":     killedCount,
		"invalidCount":    invalidCount,
	}
}

func fitnessMoments(fitness []int64) (min, max int64, mean, variance float64) {
	if len(fitness) == 0 {
		return 0, 0, 0, 0
	}
	min, max = fitness[0], fitness[0]
	var sum float64
	for _, f := range fitness {
		if f < min {
			min = f
		}
		if f > max {
			max = f
		}
		sum += float64(f)
	}
	mean = sum / float64(len(fitness))
	var sqDiff float64
	for _, f := range fitness {
		d := float64(f) - mean
		sqDiff += d * d
	}
	variance = sqDiff / float64(len(fitness))
	return min, max, mean, variance
}
