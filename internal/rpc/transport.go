package rpc

import (
	"context"
	"fmt"

	"github.com/quic-go/quic-go"

	"github.com/kentwait/epidemicsim/internal/wire"
)

// WorkerConn is the controller-side RPC client for one connected worker,
// implementing orchestrator.WorkerTransport over a QUIC connection.
type WorkerConn struct {
	conn quic.Connection
}

// NewWorkerConn wraps an already-established QUIC connection to a worker.
func NewWorkerConn(conn quic.Connection) *WorkerConn {
	return &WorkerConn{conn: conn}
}

// Execute asks the worker to spawn a world process for taskID. It returns
// once the worker's first response frame reports the spawn/execute
// outcome; the task continues running asynchronously on the worker.
func (w *WorkerConn) Execute(ctx context.Context, taskID string, req wire.ExecuteRequest) error {
	resp, err := Call(ctx, w.conn, wire.Request{Kind: wire.KindExecute, TaskID: taskID, Execute: req})
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("rpc: execute %s: %s", taskID, resp.Err)
	}
	return nil
}

// Terminate asks the worker to kill the child world process running taskID.
func (w *WorkerConn) Terminate(ctx context.Context, taskID string) error {
	resp, err := Call(ctx, w.conn, wire.Request{Kind: wire.KindTerminate, TaskID: taskID})
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("rpc: terminate %s: %s", taskID, resp.Err)
	}
	return nil
}

// ReadStatistics blocks until taskID's world process exits, then returns
// its per-step statistics rows.
func (w *WorkerConn) ReadStatistics(ctx context.Context, taskID string) (wire.StatisticsResponse, error) {
	resp, err := Call(ctx, w.conn, wire.Request{Kind: wire.KindReadStatistics, TaskID: taskID})
	if err != nil {
		return wire.StatisticsResponse{}, err
	}
	if !resp.OK {
		return wire.StatisticsResponse{}, fmt.Errorf("rpc: read statistics %s: %s", taskID, resp.Err)
	}
	return resp.Statistics, nil
}

// RemoveStatistics deletes one task's statistics file on the worker,
// returning whether the removal succeeded.
func (w *WorkerConn) RemoveStatistics(ctx context.Context, taskID string) error {
	resp, err := Call(ctx, w.conn, wire.Request{Kind: wire.KindRemoveStatistics, TaskID: taskID})
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("rpc: remove statistics %s: %s", taskID, resp.Err)
	}
	return nil
}
