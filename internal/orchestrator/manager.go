package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kentwait/epidemicsim/internal/jobspec"
	"github.com/kentwait/epidemicsim/internal/stats"
	"github.com/kentwait/epidemicsim/internal/store"
	"github.com/kentwait/epidemicsim/internal/termination"
	"github.com/kentwait/epidemicsim/internal/wire"
)

// defaultQueueCapacity bounds how many queued-but-not-yet-running jobs the
// controller admits before CreateJob starts rejecting with ErrAdmission,
// per spec.md §4.6 "Admission".
const defaultQueueCapacity = 64

// Manager is the controller-side orchestrator: it admits jobs, persists
// them, fans each job's tasks out to leased workers, and lets callers
// observe or cancel a job's progress.
type Manager struct {
	store   store.JobStore
	workers *WorkerManager
	log     *zap.Logger

	queue chan uuid.UUID

	mu     sync.Mutex
	terms  map[uuid.UUID]termination.Sender
	cancel map[uuid.UUID]context.CancelFunc
}

// NewManager wires a JobStore and WorkerManager into a running orchestrator
// and starts its job consumer loop.
func NewManager(ctx context.Context, js store.JobStore, workers *WorkerManager, log *zap.Logger) *Manager {
	m := &Manager{
		store:   js,
		workers: workers,
		log:     log,
		queue:   make(chan uuid.UUID, defaultQueueCapacity),
		terms:   make(map[uuid.UUID]termination.Sender),
		cancel:  make(map[uuid.UUID]context.CancelFunc),
	}
	go m.consume(ctx)
	return m
}

// CreateJob persists a new job and enqueues it for execution. It returns
// ErrAdmission if the bounded queue is full.
func (m *Manager) CreateJob(ctx context.Context, cfg jobspec.JobConfig) (store.Job, error) {
	job, err := m.store.InsertJob(ctx, cfg, cfg.IterationCount)
	if err != nil {
		return store.Job{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if cfg.IterationCount == 0 {
		// §8 boundary behavior: a job with no tasks completes immediately
		// and is never placed on the job queue.
		if err := m.store.UpdateJobState(ctx, job.ID, store.JobCompleted); err != nil {
			return store.Job{}, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		job.State = store.JobCompleted
		return job, nil
	}

	select {
	case m.queue <- job.ID:
	default:
		_ = m.store.DeleteJob(ctx, job.ID)
		return store.Job{}, ErrAdmission
	}
	return job, nil
}

// GetTask returns one task by id.
func (m *Manager) GetTask(ctx context.Context, id uuid.UUID) (store.Task, error) {
	task, err := m.store.GetTask(ctx, id)
	if err != nil {
		if err == store.ErrNotFound {
			return store.Task{}, ErrNotFound
		}
		return store.Task{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return task, nil
}

// GetJob returns one job and its tasks.
func (m *Manager) GetJob(ctx context.Context, id uuid.UUID) (store.Job, error) {
	job, err := m.store.GetJob(ctx, id)
	if err != nil {
		if err == store.ErrNotFound {
			return store.Job{}, ErrNotFound
		}
		return store.Job{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return job, nil
}

// GetAllJobs lists every job the controller knows about.
func (m *Manager) GetAllJobs(ctx context.Context) ([]store.Job, error) {
	jobs, err := m.store.GetJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return jobs, nil
}

// DeleteJob removes a job's persisted record. It does not stop a still
// running job; call TerminateJob first.
func (m *Manager) DeleteJob(ctx context.Context, id uuid.UUID) error {
	job, err := m.store.GetJob(ctx, id)
	if err != nil && err != store.ErrNotFound {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := m.store.DeleteJob(ctx, id); err != nil {
		if err == store.ErrNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	for _, t := range job.Tasks {
		if t.State != store.TaskSucceeded || t.WorkerIndex == nil {
			continue
		}
		if worker, ok := m.workers.Get(*t.WorkerIndex); ok {
			if err := worker.Transport.RemoveStatistics(ctx, t.ID.String()); err != nil {
				m.log.Warn("best-effort statistics removal failed", zap.String("task_id", t.ID.String()), zap.Error(err))
			}
		}
	}
	return nil
}

// TerminateJob cancels a running job. It is idempotent against the job's
// own completion: whichever of the job finishing or TerminateJob happens
// first determines the terminal outcome every task's watcher observes.
func (m *Manager) TerminateJob(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	snd, ok := m.terms[id]
	cancel := m.cancel[id]
	m.mu.Unlock()
	if !ok {
		job, err := m.store.GetJob(ctx, id)
		if err != nil {
			if err == store.ErrNotFound {
				return ErrNotFound
			}
			return fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		if job.State == store.JobCompleted {
			return ErrAlreadyTerminated
		}
		// Queued but not yet picked up by the consumer: there is no
		// termination entry to fire yet. Racing the consumer here is
		// inherent to the spec's cooperative cancellation model; the next
		// TerminateJob retry (or the job's own completion) resolves it.
		return ErrNotFound
	}
	snd.Cancel()
	if cancel != nil {
		cancel()
	}
	return nil
}

// GetStatistics implements spec.md §4.6 "Statistics retrieval": it reads
// taskID's worker_index from the store, returns (nil, nil) if the task
// hasn't succeeded yet, and otherwise forwards ReadStatistics to the
// worker that ran it.
func (m *Manager) GetStatistics(ctx context.Context, taskID uuid.UUID) ([]stats.Row, error) {
	task, err := m.store.GetTask(ctx, taskID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if task.State != store.TaskSucceeded || task.WorkerIndex == nil {
		return nil, nil
	}

	worker, ok := m.workers.Get(*task.WorkerIndex)
	if !ok {
		return nil, fmt.Errorf("%w: worker %d no longer registered", ErrInternal, *task.WorkerIndex)
	}
	resp, err := worker.Transport.ReadStatistics(ctx, taskID.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	rows := make([]stats.Row, len(resp.Rows))
	for i, r := range resp.Rows {
		copy(rows[i][:], r)
	}
	return rows, nil
}

// consume is the job consumer loop: one goroutine pulling job ids off the
// bounded queue and fanning each one's tasks out to leased workers.
func (m *Manager) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case jobID := <-m.queue:
			m.runJob(ctx, jobID)
		}
	}
}

func (m *Manager) runJob(ctx context.Context, jobID uuid.UUID) {
	job, err := m.store.GetJob(ctx, jobID)
	if err != nil {
		m.log.Warn("job disappeared before it could run", zap.String("job_id", jobID.String()), zap.Error(err))
		return
	}

	jobCtx, cancel := context.WithCancel(ctx)
	snd, recv := termination.NewPair()
	m.mu.Lock()
	m.terms[jobID] = snd
	m.cancel[jobID] = cancel
	m.mu.Unlock()
	defer func() {
		cancel()
		m.mu.Lock()
		delete(m.terms, jobID)
		delete(m.cancel, jobID)
		m.mu.Unlock()
	}()

	_ = m.store.UpdateJobState(ctx, jobID, store.JobRunning)

	var wg sync.WaitGroup
	for _, task := range job.Tasks {
		wg.Add(1)
		go func(task store.Task) {
			defer wg.Done()
			m.runTask(jobCtx, job, task, recv.Clone())
		}(task)
	}
	wg.Wait()

	snd.Send()
	_ = m.store.UpdateJobState(ctx, jobID, store.JobCompleted)
}

// runTask implements the per-task fan-out of spec.md §4.6 "Task fan-out":
// lease a worker, execute, watch for termination alongside completion,
// and record the outcome.
func (m *Manager) runTask(ctx context.Context, job store.Job, task store.Task, recv termination.Receiver) {
	lease, err := m.workers.Lease(ctx, job.Config.World.InitNPop)
	if err != nil {
		m.log.Error("task admission failed", zap.String("task_id", task.ID.String()), zap.Error(err))
		_ = m.store.UpdateTaskState(ctx, task.ID, store.TaskFailed)
		return
	}
	defer lease.Release()

	_ = m.store.UpdateTaskState(ctx, task.ID, store.TaskAssigned)

	worker := lease.Worker()
	// The job's IterationCount is its task count, not a step budget, so
	// ExecuteRequest.IterationCount stays 0 and the world runs until no
	// agent is infected.
	execReq := wire.ExecuteRequest{Config: job.Config}
	if err := worker.Transport.Execute(ctx, task.ID.String(), execReq); err != nil {
		_ = m.store.UpdateTaskState(ctx, task.ID, store.TaskFailed)
		return
	}
	_ = m.store.UpdateTaskState(ctx, task.ID, store.TaskRunning)

	statDone := make(chan error, 1)
	go func() {
		_, err := worker.Transport.ReadStatistics(ctx, task.ID.String())
		statDone <- err
	}()

	select {
	case err := <-statDone:
		if err != nil {
			_ = m.store.UpdateTaskState(ctx, task.ID, store.TaskFailed)
			return
		}
		_ = m.store.UpdateTaskSucceeded(ctx, task.ID, worker.Index, task.ID.String()+".stat")
	case <-recv.Done():
		if fired, outcome := recv.TryRecv(); fired && outcome == termination.Cancelled {
			_ = worker.Transport.Terminate(ctx, task.ID.String())
			_ = m.store.UpdateTaskState(ctx, task.ID, store.TaskFailed)
		}
	}
}
