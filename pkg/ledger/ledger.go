// Package ledger implements the scheduler.RunLedger of SPEC_FULL.md §4.7: a
// durable record of every scheduling run, for operator visibility only —
// the scheduling façade never depends on the ledger succeeding.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bellum/bellum/pkg/domain"
	"github.com/hashicorp/go-hclog"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// runRow is the sqlx-mapped row shape for scheduler_runs, mirroring the
// teacher's repository pattern (pkg_teacher/database/repository_models.go:
// a plain struct tagged with `db`, scanned via GetContext/NamedExecContext).
type runRow struct {
	RunID         string         `db:"run_id"`
	SolverName    string         `db:"solver_name"`
	ProjectID     string         `db:"project_id"`
	StartedAt     time.Time      `db:"started_at"`
	FinishedAt    sql.NullTime   `db:"finished_at"`
	TimeLimitMS   int64          `db:"time_limit_ms"`
	SolutionCount sql.NullInt64  `db:"solution_count"`
	BestObjective sql.NullInt64  `db:"best_objective"`
	Optimal       sql.NullBool   `db:"optimal"`
}

// PostgresLedger is the sqlx/lib-pq-backed scheduler.RunLedger
// implementation.
type PostgresLedger struct {
	db     *sqlx.DB
	logger hclog.Logger
}

// Open connects to a Postgres DSN and returns a ready PostgresLedger.
func Open(dsn string, logger hclog.Logger) (*PostgresLedger, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger: connecting to postgres: %w", err)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &PostgresLedger{db: db, logger: logger}, nil
}

// NewPostgresLedger wraps an already-open *sqlx.DB, for callers that manage
// their own connection pool lifecycle.
func NewPostgresLedger(db *sqlx.DB, logger hclog.Logger) *PostgresLedger {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &PostgresLedger{db: db, logger: logger}
}

// Migrate creates the scheduler_runs table if it does not already exist.
func (l *PostgresLedger) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS scheduler_runs (
	run_id          TEXT PRIMARY KEY,
	solver_name     TEXT NOT NULL,
	project_id      TEXT NOT NULL,
	started_at      TIMESTAMPTZ NOT NULL,
	finished_at     TIMESTAMPTZ,
	time_limit_ms   BIGINT NOT NULL,
	solution_count  INTEGER,
	best_objective  BIGINT,
	optimal         BOOLEAN
)`
	_, err := l.db.ExecContext(ctx, schema)
	return err
}

// RecordStart implements scheduler.RunLedger.
func (l *PostgresLedger) RecordStart(ctx context.Context, record domain.SchedulerRunRecord) error {
	const query = `
INSERT INTO scheduler_runs (run_id, solver_name, project_id, started_at, time_limit_ms)
VALUES (:run_id, :solver_name, :project_id, :started_at, :time_limit_ms)`

	row := runRow{
		RunID:       record.RunID.String(),
		SolverName:  record.SolverName,
		ProjectID:   record.ProjectID.String(),
		StartedAt:   record.StartedAt,
		TimeLimitMS: record.TimeLimit.Milliseconds(),
	}
	if _, err := l.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("ledger: recording run start: %w", err)
	}
	return nil
}

// RecordFinish implements scheduler.RunLedger.
func (l *PostgresLedger) RecordFinish(ctx context.Context, runID domain.Identifier[domain.SchedulerRunRecord], finishedAt time.Time, solutionCount int, bestObjective int64, optimal bool) error {
	const query = `
UPDATE scheduler_runs
SET finished_at = $1, solution_count = $2, best_objective = $3, optimal = $4
WHERE run_id = $5`

	_, err := l.db.ExecContext(ctx, query, finishedAt, solutionCount, bestObjective, optimal, runID.String())
	if err != nil {
		return fmt.Errorf("ledger: recording run finish: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (l *PostgresLedger) Close() error { return l.db.Close() }
