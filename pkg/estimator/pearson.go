package estimator

import (
	"math"
	"time"

	"github.com/bellum/bellum/pkg/domain"
)

// PearsonEstimator is the default TimeEstimator (spec.md §4.2): it aligns
// an employee's skills with a task's required skills by key, computes
// their Pearson correlation, and maps it onto a duration in [5, 85]
// minutes — a perfect match (r=1) takes 5 minutes, a perfect
// anti-correlation (r=-1) takes 85.
type PearsonEstimator struct{}

// NewPearsonEstimator constructs the default estimator.
func NewPearsonEstimator() PearsonEstimator { return PearsonEstimator{} }

// Estimate implements TimeEstimator.
func (PearsonEstimator) Estimate(employee domain.Employee, task domain.Task) (time.Duration, error) {
	employeeSkills := employee.Skills()
	taskSkills := task.RequiredSkills()

	keys := make(map[string]struct{}, len(employeeSkills)+len(taskSkills))
	for k := range employeeSkills {
		keys[k] = struct{}{}
	}
	for k := range taskSkills {
		keys[k] = struct{}{}
	}

	var x, y []float64
	for k := range keys {
		x = append(x, float64(employeeSkills.Get(k)))
		y = append(y, float64(taskSkills.Get(k)))
	}

	if len(x) < 2 {
		return 0, insufficientSkills("pearson estimate requires at least 2 paired skill points")
	}

	r := pearsonCorrelation(x, y)
	if math.IsNaN(r) {
		r = 0
	}
	minutes := 5 + int(math.Round(40*(1-r)))
	return time.Duration(minutes) * time.Minute, nil
}

// pearsonCorrelation computes the sample Pearson correlation coefficient of
// x and y, returning NaN when either vector has zero variance.
func pearsonCorrelation(x, y []float64) float64 {
	n := float64(len(x))
	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}
	numerator := n*sumXY - sumX*sumY
	denominator := math.Sqrt(n*sumX2-sumX*sumX) * math.Sqrt(n*sumY2-sumY*sumY)
	if denominator == 0 {
		return math.NaN()
	}
	return numerator / denominator
}
