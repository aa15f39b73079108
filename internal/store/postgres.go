package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/kentwait/epidemicsim/internal/jobspec"
)

//go:embed schema.sql
var schemaSQL string

// PostgresStore is the durable JobStore, backed by database/sql through
// pgx's stdlib driver and queried through sqlx with positional ($n)
// parameters.
type PostgresStore struct {
	db *sqlx.DB
}

// OpenPostgres connects to dsn using the pgx stdlib driver and ensures the
// job/task schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type jobRow struct {
	ID        uuid.UUID `db:"id"`
	Config    []byte    `db:"config"`
	State     string    `db:"state"`
	CreatedAt time.Time `db:"created_at"`
}

type taskRow struct {
	ID          uuid.UUID     `db:"id"`
	JobID       uuid.UUID     `db:"job_id"`
	Index       int           `db:"index"`
	State       string        `db:"state"`
	WorkerIndex sql.NullInt32 `db:"worker_index"`
	StatPath    string        `db:"stat_path"`
}

func (s *PostgresStore) InsertJob(ctx context.Context, cfg jobspec.JobConfig, taskCount int) (Job, error) {
	cfgBytes, err := json.Marshal(cfg)
	if err != nil {
		return Job{}, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Job{}, err
	}
	defer tx.Rollback()

	j := Job{ID: uuid.New(), Config: cfg, State: JobQueued}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO job (id, config, state) VALUES ($1, $2, $3)`,
		j.ID, cfgBytes, string(j.State)); err != nil {
		return Job{}, err
	}

	j.Tasks = make([]Task, taskCount)
	for i := range j.Tasks {
		t := Task{ID: uuid.New(), JobID: j.ID, Index: i, State: TaskPending}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO task (id, job_id, index, state) VALUES ($1, $2, $3, $4)`,
			t.ID, t.JobID, t.Index, string(t.State)); err != nil {
			return Job{}, err
		}
		j.Tasks[i] = t
	}

	if err := tx.Commit(); err != nil {
		return Job{}, err
	}
	return j, nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (Job, error) {
	var row jobRow
	err := s.db.GetContext(ctx, &row, `SELECT id, config, state, created_at FROM job WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, err
	}

	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, job_id, index, state, worker_index, stat_path FROM task WHERE job_id = $1 ORDER BY index`, id); err != nil {
		return Job{}, err
	}

	j := Job{ID: row.ID, State: JobState(row.State), CreatedAt: row.CreatedAt}
	if err := json.Unmarshal(row.Config, &j.Config); err != nil {
		return Job{}, err
	}
	j.Tasks = make([]Task, len(rows))
	for i, r := range rows {
		j.Tasks[i] = taskFromRow(r)
	}
	return j, nil
}

func (s *PostgresStore) GetJobs(ctx context.Context) ([]Job, error) {
	var rows []jobRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, config, state, created_at FROM job`); err != nil {
		return nil, err
	}
	out := make([]Job, 0, len(rows))
	for _, row := range rows {
		j, err := s.GetJob(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}

func (s *PostgresStore) DeleteJob(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM job WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateJobState(ctx context.Context, id uuid.UUID, state JobState) error {
	res, err := s.db.ExecContext(ctx, `UPDATE job SET state = $1 WHERE id = $2`, string(state), id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func (s *PostgresStore) GetTask(ctx context.Context, id uuid.UUID) (Task, error) {
	var row taskRow
	err := s.db.GetContext(ctx, &row, `SELECT id, job_id, index, state, worker_index, stat_path FROM task WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, err
	}
	return taskFromRow(row), nil
}

func (s *PostgresStore) UpdateTaskState(ctx context.Context, id uuid.UUID, state TaskState) error {
	res, err := s.db.ExecContext(ctx, `UPDATE task SET state = $1 WHERE id = $2`, string(state), id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func (s *PostgresStore) UpdateTaskSucceeded(ctx context.Context, id uuid.UUID, workerIndex int, statPath string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE task SET state = $1, worker_index = $2, stat_path = $3 WHERE id = $4`,
		string(TaskSucceeded), workerIndex, statPath, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func taskFromRow(r taskRow) Task {
	t := Task{ID: r.ID, JobID: r.JobID, Index: r.Index, State: TaskState(r.State), StatPath: r.StatPath}
	if r.WorkerIndex.Valid {
		v := int(r.WorkerIndex.Int32)
		t.WorkerIndex = &v
	}
	return t
}

func affectedOrNotFound(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
