package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"learninghouse/console/internal/models"
)

// fakeRow scans fixed values into the destinations in order.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		switch target := d.(type) {
		case *string:
			*target = r.values[i].(string)
		case **float64:
			*target = r.values[i].(*float64)
		case **int:
			*target = r.values[i].(*int)
		case *time.Time:
			*target = r.values[i].(time.Time)
		default:
			return errors.New("unexpected destination type")
		}
	}
	return nil
}

type fakeQuerier struct {
	sql  string
	args []any
	row  pgx.Row
}

var errNoQuery = errors.New("no rows in test")

func (q *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.sql, q.args = sql, args
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (q *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.sql, q.args = sql, args
	return nil, errNoQuery
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.sql, q.args = sql, args
	return q.row
}

func TestScanJobRun(t *testing.T) {
	score, size := 0.91, 140
	started := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	row := fakeRow{values: []any{
		"run-1", "job-1", "training", "darkness", "succeeded", &score, &size,
		"darkness/training/job-1.json", "", "admin", started, started.Add(time.Second),
	}}

	run, err := scanJobRun(row)
	if err != nil {
		t.Fatalf("scanJobRun: %v", err)
	}
	if run.Type != models.JobTypeTraining || run.Status != models.JobStatusSucceeded {
		t.Fatalf("run = %+v", run)
	}
	if run.Score == nil || *run.Score != 0.91 || run.DataSize == nil || *run.DataSize != 140 {
		t.Fatalf("score/size = %v/%v", run.Score, run.DataSize)
	}
	if !run.FinishedAt.Equal(started.Add(time.Second)) {
		t.Fatalf("finished = %v", run.FinishedAt)
	}
}

func TestGetByJobIDNotFound(t *testing.T) {
	repo := &JobRunRepository{pool: &fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}}}

	if _, err := repo.GetByJobID(context.Background(), "missing"); !errors.Is(err, ErrJobRunNotFound) {
		t.Fatalf("err = %v, want ErrJobRunNotFound", err)
	}
}

func TestRecordUpsertsByJobID(t *testing.T) {
	q := &fakeQuerier{}
	repo := &JobRunRepository{pool: q}
	run := models.JobRun{ID: "run-2", JobID: "job-1", Type: models.JobTypePrediction, Brain: "darkness", Status: models.JobStatusFailed, Error: "no brain"}

	if err := repo.Record(context.Background(), run); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !strings.Contains(q.sql, "ON CONFLICT (job_id)") {
		t.Fatalf("query = %s", q.sql)
	}
	if len(q.args) != 12 || q.args[1] != "job-1" || q.args[2] != "prediction" || q.args[4] != "failed" {
		t.Fatalf("args = %v", q.args)
	}
}

func TestListByBrainClampsLimit(t *testing.T) {
	cases := map[int]int{0: defaultRunLimit, -3: defaultRunLimit, 20: 20, 1000: maxRunLimit}
	for requested, want := range cases {
		q := &fakeQuerier{}
		repo := &JobRunRepository{pool: q}
		if _, err := repo.ListByBrain(context.Background(), "darkness", requested); !errors.Is(err, errNoQuery) {
			t.Fatalf("err = %v", err)
		}
		if q.args[0] != "darkness" || q.args[1] != want {
			t.Fatalf("limit %d: args = %v, want limit %d", requested, q.args, want)
		}
	}
}
