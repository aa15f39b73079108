package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kentwait/epidemicsim/internal/jobspec"
)

// MemStore is an in-memory JobStore, used by orchestrator tests and by
// single-process deployments that don't need durability across restarts.
type MemStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{jobs: make(map[uuid.UUID]*Job)}
}

func (m *MemStore) InsertJob(ctx context.Context, cfg jobspec.JobConfig, taskCount int) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j := &Job{
		ID:        uuid.New(),
		Config:    cfg,
		State:     JobQueued,
		CreatedAt: time.Now(),
		Tasks:     make([]Task, taskCount),
	}
	for i := range j.Tasks {
		j.Tasks[i] = Task{ID: uuid.New(), JobID: j.ID, Index: i, State: TaskPending}
	}
	m.jobs[j.ID] = j
	return cloneJob(j), nil
}

func (m *MemStore) GetJob(ctx context.Context, id uuid.UUID) (Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return cloneJob(j), nil
}

func (m *MemStore) GetJobs(ctx context.Context) ([]Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, cloneJob(j))
	}
	return out, nil
}

func (m *MemStore) DeleteJob(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(m.jobs, id)
	return nil
}

func (m *MemStore) UpdateJobState(ctx context.Context, id uuid.UUID, state JobState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	j.State = state
	return nil
}

func (m *MemStore) findTask(id uuid.UUID) (*Job, *Task) {
	for _, j := range m.jobs {
		for i := range j.Tasks {
			if j.Tasks[i].ID == id {
				return j, &j.Tasks[i]
			}
		}
	}
	return nil, nil
}

func (m *MemStore) GetTask(ctx context.Context, id uuid.UUID) (Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, t := m.findTask(id)
	if t == nil {
		return Task{}, ErrNotFound
	}
	return *t, nil
}

func (m *MemStore) UpdateTaskState(ctx context.Context, id uuid.UUID, state TaskState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, t := m.findTask(id)
	if t == nil {
		return ErrNotFound
	}
	t.State = state
	return nil
}

func (m *MemStore) UpdateTaskSucceeded(ctx context.Context, id uuid.UUID, workerIndex int, statPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, t := m.findTask(id)
	if t == nil {
		return ErrNotFound
	}
	t.State = TaskSucceeded
	t.WorkerIndex = &workerIndex
	t.StatPath = statPath
	return nil
}

func cloneJob(j *Job) Job {
	out := *j
	out.Tasks = append([]Task(nil), j.Tasks...)
	return out
}
