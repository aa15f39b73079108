// Package store persists jobs and tasks, per spec.md §6 "Persisted State".
// JobStore is the interface every orchestrator component depends on;
// PostgresStore is the production implementation and MemStore is an
// in-memory fake used by tests that don't have a database available.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kentwait/epidemicsim/internal/jobspec"
)

// ErrNotFound is returned when a job or task id has no matching row.
var ErrNotFound = errors.New("store: not found")

// JobState mirrors spec.md §3's Job.state enum.
type JobState string

const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
)

// TaskState mirrors spec.md §3's Task.state enum.
type TaskState string

const (
	TaskPending   TaskState = "pending"
	TaskAssigned  TaskState = "assigned"
	TaskRunning   TaskState = "running"
	TaskSucceeded TaskState = "succeeded"
	TaskFailed    TaskState = "failed"
)

// Job is one simulation run request, owning an ordered list of Tasks.
type Job struct {
	ID        uuid.UUID
	Config    jobspec.JobConfig
	State     JobState
	CreatedAt time.Time
	Tasks     []Task
}

// Task is one repetition of a Job's simulation, handed to exactly one
// worker. WorkerIndex is set only once the task reaches TaskSucceeded.
type Task struct {
	ID          uuid.UUID
	JobID       uuid.UUID
	Index       int
	State       TaskState
	WorkerIndex *int
	StatPath    string
}

// JobStore is the persistence boundary the orchestrator programs against.
type JobStore interface {
	InsertJob(ctx context.Context, cfg jobspec.JobConfig, taskCount int) (Job, error)
	GetJob(ctx context.Context, id uuid.UUID) (Job, error)
	GetJobs(ctx context.Context) ([]Job, error)
	DeleteJob(ctx context.Context, id uuid.UUID) error
	UpdateJobState(ctx context.Context, id uuid.UUID, state JobState) error

	GetTask(ctx context.Context, id uuid.UUID) (Task, error)
	UpdateTaskState(ctx context.Context, id uuid.UUID, state TaskState) error
	UpdateTaskSucceeded(ctx context.Context, id uuid.UUID, workerIndex int, statPath string) error
}
