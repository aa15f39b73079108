package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kentwait/epidemicsim/internal/wire"
)

type fakeTransport struct{}

func (fakeTransport) Execute(ctx context.Context, taskID string, req wire.ExecuteRequest) error {
	return nil
}
func (fakeTransport) Terminate(ctx context.Context, taskID string) error { return nil }
func (fakeTransport) ReadStatistics(ctx context.Context, taskID string) (wire.StatisticsResponse, error) {
	return wire.StatisticsResponse{}, nil
}
func (fakeTransport) RemoveStatistics(ctx context.Context, taskID string) error { return nil }

func newFakeWorker(index, maxWorldParams int, maxRes wire.Cost) *WorkerClient {
	return NewWorkerClient(index, fakeTransport{}, wire.ResourceMeasure{MaxWorldParams: maxWorldParams, MaxResource: maxRes})
}

func TestLeaseFastPathGrantsImmediately(t *testing.T) {
	m := NewWorkerManager([]*WorkerClient{newFakeWorker(0, 100, 10)})
	lease, err := m.Lease(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, 0, lease.Worker().Index)
	lease.Release()
}

func TestLeasePicksWorkerWithMostHeadroom(t *testing.T) {
	// Both workers are asked to host the same population, but w1's own
	// ResourceMeasure charges it far less per agent (larger MaxWorldParams
	// for the same MaxResource), so it should win the ratio-based fast path
	// even though the requested population is identical.
	w0 := newFakeWorker(0, 100, 10)
	w1 := newFakeWorker(1, 1000, 10)
	m := NewWorkerManager([]*WorkerClient{w0, w1})

	lease, err := m.Lease(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, 1, lease.Worker().Index, "worker whose own measure charges less headroom should win")
	lease.Release()
}

func TestLeaseSkipsWorkerThatCannotHostPopulation(t *testing.T) {
	// small cannot host a population of 500 at all; big can. The admission
	// loop must fall through to big instead of failing outright just
	// because some other connected worker is too small.
	small := newFakeWorker(0, 100, 10)
	big := newFakeWorker(1, 1000, 10)
	m := NewWorkerManager([]*WorkerClient{small, big})

	lease, err := m.Lease(context.Background(), 500)
	require.NoError(t, err)
	assert.Equal(t, big.Index, lease.Worker().Index)
	lease.Release()
}

func TestLeaseFailsWhenNoWorkerCanHostPopulation(t *testing.T) {
	w := newFakeWorker(0, 100, 10)
	m := NewWorkerManager([]*WorkerClient{w})

	_, err := m.Lease(context.Background(), 500)
	assert.ErrorIs(t, err, wire.ErrResourceSizeExceeded)
}

func TestLeaseBlocksUntilCapacityFrees(t *testing.T) {
	w := newFakeWorker(0, 10, 5)
	m := NewWorkerManager([]*WorkerClient{w})

	first, err := m.Lease(context.Background(), 10)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		second, err := m.Lease(context.Background(), 10)
		require.NoError(t, err)
		second.Release()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second lease should not have been granted before the first was released")
	case <-time.After(50 * time.Millisecond):
	}

	first.Release()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second lease was never granted after capacity freed")
	}
}

func TestLeaseRespectsContextCancellationWithoutLeakingPermits(t *testing.T) {
	w := newFakeWorker(0, 10, 1)
	m := NewWorkerManager([]*WorkerClient{w})

	first, err := m.Lease(context.Background(), 10)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Lease(ctx, 10)
	assert.Error(t, err)

	first.Release()

	// Capacity should be fully available again: a fresh lease at full cost
	// must succeed, proving the cancelled request didn't leak a permit.
	third, err := m.Lease(context.Background(), 10)
	require.NoError(t, err)
	third.Release()
}

func TestLeaseReleaseIsIdempotent(t *testing.T) {
	w := newFakeWorker(0, 10, 5)
	m := NewWorkerManager([]*WorkerClient{w})

	lease, err := m.Lease(context.Background(), 10)
	require.NoError(t, err)
	lease.Release()
	lease.Release()

	second, err := m.Lease(context.Background(), 10)
	require.NoError(t, err)
	second.Release()
}
