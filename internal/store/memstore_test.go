package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kentwait/epidemicsim/internal/jobspec"
)

func TestInsertAndGetJob(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	j, err := s.InsertJob(ctx, jobspec.JobConfig{IterationCount: 3}, 3)
	require.NoError(t, err)
	assert.Equal(t, JobQueued, j.State)
	assert.Len(t, j.Tasks, 3)

	got, err := s.GetJob(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, j.ID, got.ID)
	assert.Len(t, got.Tasks, 3)
}

func TestGetJobNotFound(t *testing.T) {
	s := NewMemStore()
	_, err := s.GetJob(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateTaskSucceededSetsWorkerIndex(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	j, err := s.InsertJob(ctx, jobspec.JobConfig{}, 1)
	require.NoError(t, err)

	require.NoError(t, s.UpdateTaskSucceeded(ctx, j.Tasks[0].ID, 2, "/tmp/stats.bin"))

	task, err := s.GetTask(ctx, j.Tasks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, TaskSucceeded, task.State)
	require.NotNil(t, task.WorkerIndex)
	assert.Equal(t, 2, *task.WorkerIndex)
	assert.Equal(t, "/tmp/stats.bin", task.StatPath)
}

func TestDeleteJobRemovesIt(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	j, err := s.InsertJob(ctx, jobspec.JobConfig{}, 1)
	require.NoError(t, err)

	require.NoError(t, s.DeleteJob(ctx, j.ID))
	_, err = s.GetJob(ctx, j.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.DeleteJob(ctx, j.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetJobsListsAll(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	_, err := s.InsertJob(ctx, jobspec.JobConfig{}, 1)
	require.NoError(t, err)
	_, err = s.InsertJob(ctx, jobspec.JobConfig{}, 1)
	require.NoError(t, err)

	jobs, err := s.GetJobs(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}
