package orchestrator

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/kentwait/epidemicsim/internal/wire"
)

// WorkerTransport is what a WorkerClient drives over the wire; the QUIC
// implementation is rpc.WorkerConn in internal/rpc, tests substitute a
// fake.
type WorkerTransport interface {
	Execute(ctx context.Context, taskID string, req wire.ExecuteRequest) error
	Terminate(ctx context.Context, taskID string) error
	ReadStatistics(ctx context.Context, taskID string) (wire.StatisticsResponse, error)
	RemoveStatistics(ctx context.Context, taskID string) error
}

// WorkerClient is the controller's handle on one connected worker: its
// transport, its advertised capacity, and a weighted semaphore bounding how
// much of that capacity is leased out at once.
//
// golang.org/x/sync/semaphore.Weighted exposes no way to ask how many
// permits are currently available, which the admission loop's fast path
// needs to rank workers by headroom. available tracks that count
// alongside the semaphore, kept in sync by tryAcquire/acquire/release.
type WorkerClient struct {
	Index     int
	Transport WorkerTransport
	Measure   wire.ResourceMeasure

	sem       *semaphore.Weighted
	maxRes    int64
	available int64
}

// NewWorkerClient wraps a connected worker's transport and resource
// capacity.
func NewWorkerClient(index int, transport WorkerTransport, measure wire.ResourceMeasure) *WorkerClient {
	max := int64(measure.MaxResource)
	if max <= 0 {
		max = 1
	}
	return &WorkerClient{
		Index:     index,
		Transport: transport,
		Measure:   measure,
		sem:       semaphore.NewWeighted(max),
		maxRes:    max,
		available: max,
	}
}

// ratio reports (available-cost)/max for cost-aware ranking, or -1 if this
// worker cannot immediately satisfy cost.
func (w *WorkerClient) ratio(cost int64) float64 {
	avail := atomic.LoadInt64(&w.available)
	if avail < cost {
		return -1
	}
	return float64(avail-cost) / float64(w.maxRes)
}

func (w *WorkerClient) tryAcquire(cost int64) bool {
	if !w.sem.TryAcquire(cost) {
		return false
	}
	atomic.AddInt64(&w.available, -cost)
	return true
}

func (w *WorkerClient) acquire(ctx context.Context, cost int64) error {
	if err := w.sem.Acquire(ctx, cost); err != nil {
		return err
	}
	atomic.AddInt64(&w.available, -cost)
	return nil
}

func (w *WorkerClient) release(cost int64) {
	w.sem.Release(cost)
	atomic.AddInt64(&w.available, cost)
}
