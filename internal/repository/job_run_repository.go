package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"learninghouse/console/internal/models"
)

var ErrJobRunNotFound = errors.New("job run not found")

const (
	defaultRunLimit = 50
	maxRunLimit     = 200
)

// querier is the part of the pgx pool the repository uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// JobRunRepository stores the outcome of worker jobs.
type JobRunRepository struct {
	pool querier
}

func NewJobRunRepository(pool *pgxpool.Pool) *JobRunRepository {
	return &JobRunRepository{pool: pool}
}

// Record inserts a run. A redelivered job overwrites its earlier run.
func (r *JobRunRepository) Record(ctx context.Context, run models.JobRun) error {
	const query = `
		INSERT INTO job_runs (
			id, job_id, job_type, brain, status, score, data_size, archive_key, error, requested_by, started_at, finished_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	ON CONFLICT (job_id)
	DO UPDATE SET
			status = EXCLUDED.status,
			score = EXCLUDED.score,
			data_size = EXCLUDED.data_size,
			archive_key = EXCLUDED.archive_key,
			error = EXCLUDED.error,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at
	`

	_, err := r.pool.Exec(ctx, query,
		run.ID,
		run.JobID,
		string(run.Type),
		run.Brain,
		string(run.Status),
		run.Score,
		run.DataSize,
		run.ArchiveKey,
		run.Error,
		run.RequestedBy,
		run.StartedAt,
		run.FinishedAt,
	)
	return err
}

const selectJobRun = `
	SELECT id, job_id, job_type, brain, status, score, data_size, archive_key, error, requested_by, started_at, finished_at
	FROM job_runs
`

func (r *JobRunRepository) GetByJobID(ctx context.Context, jobID string) (models.JobRun, error) {
	row := r.pool.QueryRow(ctx, selectJobRun+`WHERE job_id = $1`, jobID)
	run, err := scanJobRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.JobRun{}, ErrJobRunNotFound
	}
	return run, err
}

// ListByBrain returns the newest runs of a brain first.
func (r *JobRunRepository) ListByBrain(ctx context.Context, brain string, limit int) ([]models.JobRun, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	if limit > maxRunLimit {
		limit = maxRunLimit
	}

	rows, err := r.pool.Query(ctx, selectJobRun+`WHERE brain = $1 ORDER BY finished_at DESC LIMIT $2`, brain, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]models.JobRun, 0)
	for rows.Next() {
		run, err := scanJobRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanJobRun(row pgx.Row) (models.JobRun, error) {
	var (
		run     models.JobRun
		jobType string
		status  string
	)
	if err := row.Scan(
		&run.ID,
		&run.JobID,
		&jobType,
		&run.Brain,
		&status,
		&run.Score,
		&run.DataSize,
		&run.ArchiveKey,
		&run.Error,
		&run.RequestedBy,
		&run.StartedAt,
		&run.FinishedAt,
	); err != nil {
		return models.JobRun{}, err
	}
	run.Type = models.JobType(jobType)
	run.Status = models.JobStatus(status)
	return run, nil
}
