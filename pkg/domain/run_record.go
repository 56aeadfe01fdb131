package domain

import "time"

// SchedulerRunRecord is a purely observational record of one scheduler
// invocation, written to the run ledger at start and finish. It is never
// consulted by a solver and carries no solving semantics of its own.
type SchedulerRunRecord struct {
	RunID         Identifier[SchedulerRunRecord]
	SolverName    string
	ProjectID     Identifier[Project]
	StartedAt     time.Time
	FinishedAt    time.Time
	TimeLimit     time.Duration
	SolutionCount int
	BestObjective int64
	Optimal       bool
}
