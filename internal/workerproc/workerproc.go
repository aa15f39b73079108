// Package workerproc implements the worker-side runtime named in spec.md
// §4.5: it spawns one child "world" process per task, rendezvous with it
// over a Unix socket, and exposes Execute/Terminate/ReadStatistics/
// RemoveStatistics to the controller transport layer.
package workerproc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/kentwait/epidemicsim/internal/ipc"
	"github.com/kentwait/epidemicsim/internal/stats"
	"github.com/kentwait/epidemicsim/internal/wire"
)

// ErrChildProcess wraps failures spawning or communicating with a child
// world process.
var ErrChildProcess = errors.New("workerproc: child process error")

// ErrNotFound is returned when a task id has no running or completed child.
var ErrNotFound = errors.New("workerproc: task not found")

// ChildWorld tracks one spawned world process for the duration of a task.
type ChildWorld struct {
	TaskID   string
	cmd      *exec.Cmd
	rendez   *ipc.Rendezvous
	statPath string
	status   chan ipc.StatusFrame
	done     chan struct{}
	err      error
}

// Runtime hosts every ChildWorld this worker currently owns or has
// completed (until RemoveStatistics is called).
type Runtime struct {
	mu          sync.Mutex
	worlds      map[string]*ChildWorld
	statDir     string
	worldBinary string
	measure     wire.ResourceMeasure
	log         *zap.Logger
}

// NewRuntime constructs a Runtime that spawns worldBinary (the cmd/world
// entrypoint) for every task, writing statistics files under statDir.
func NewRuntime(worldBinary, statDir string, measure wire.ResourceMeasure, log *zap.Logger) *Runtime {
	return &Runtime{
		worlds:      make(map[string]*ChildWorld),
		statDir:     statDir,
		worldBinary: worldBinary,
		measure:     measure,
		log:         log,
	}
}

// Measure reports this worker's advertised resource capacity, sent once
// over the hello stream when connecting to the controller.
func (rt *Runtime) Measure() wire.ResourceMeasure {
	return rt.measure
}

// Execute spawns a child world process for one task and waits for it to
// rendezvous over its Unix socket. It returns once the handshake succeeds
// and the job config has been sent; the simulation itself runs
// asynchronously. The child sends no status frames: ReadStatistics waits
// for the child process to exit and then reads its statistics file.
func (rt *Runtime) Execute(ctx context.Context, taskID string, cfg wire.ExecuteRequest) error {
	if _, err := rt.measure.Measure(cfg.Config.World.InitNPop); err != nil {
		return fmt.Errorf("%w: %w", ErrChildProcess, err)
	}

	sockPath := filepath.Join(os.TempDir(), "epidemicsim-"+taskID+".sock")
	rendez, err := ipc.NewRendezvous(sockPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrChildProcess, err)
	}

	statPath := filepath.Join(rt.statDir, taskID+".stat")
	cmd := exec.CommandContext(ctx, rt.worldBinary,
		"-socket", sockPath,
		"-stat", statPath,
		"-iterations", fmt.Sprint(cfg.IterationCount),
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		rendez.Close()
		return fmt.Errorf("%w: spawning world process: %w", ErrChildProcess, err)
	}

	child := &ChildWorld{
		TaskID:   taskID,
		cmd:      cmd,
		rendez:   rendez,
		statPath: statPath,
		status:   make(chan ipc.StatusFrame, 16),
		done:     make(chan struct{}),
	}

	rt.mu.Lock()
	rt.worlds[taskID] = child
	rt.mu.Unlock()

	conn, err := rendez.Accept(ctx)
	if err != nil {
		rt.log.Warn("world rendezvous failed", zap.String("task_id", taskID), zap.Error(err))
		_ = cmd.Process.Kill()
		return fmt.Errorf("%w: rendezvous: %w", ErrChildProcess, err)
	}

	// Hand the world its full parameter surface over the rendezvous
	// connection; everything else (socket path, stat path, iteration
	// count) already reached it as CLI arguments.
	if err := wire.WriteMessage(conn, cfg.Config); err != nil {
		conn.Close()
		_ = cmd.Process.Kill()
		return fmt.Errorf("%w: sending config: %w", ErrChildProcess, err)
	}

	go rt.watch(child, conn)
	return nil
}

func (rt *Runtime) watch(child *ChildWorld, conn interface{ Close() error }) {
	defer close(child.done)
	defer conn.Close()
	if err := child.cmd.Wait(); err != nil {
		child.err = err
		rt.log.Warn("world process exited with error", zap.String("task_id", child.TaskID), zap.Error(err))
	}
}

// Terminate kills a running child world process.
func (rt *Runtime) Terminate(taskID string) error {
	rt.mu.Lock()
	child, ok := rt.worlds[taskID]
	rt.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	if child.cmd.Process == nil {
		return nil
	}
	return child.cmd.Process.Kill()
}

// ReadStatistics blocks until the child world process named by taskID has
// exited, then reads its statistics file.
func (rt *Runtime) ReadStatistics(ctx context.Context, taskID string) ([]stats.Row, error) {
	rt.mu.Lock()
	child, ok := rt.worlds[taskID]
	rt.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	select {
	case <-child.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if child.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChildProcess, child.err)
	}
	return stats.ReadFile(child.statPath)
}

// RemoveStatistics deletes a completed task's statistics file and drops it
// from this runtime's bookkeeping.
func (rt *Runtime) RemoveStatistics(taskID string) error {
	rt.mu.Lock()
	child, ok := rt.worlds[taskID]
	delete(rt.worlds, taskID)
	rt.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	return os.Remove(child.statPath)
}

// Handle implements rpc.Handler, dispatching one wire.Request from the
// controller to the matching Runtime method and framing the result as a
// wire.Response (spec.md §4.5, §6 "Worker wire protocol").
func (rt *Runtime) Handle(ctx context.Context, req wire.Request) wire.Response {
	switch req.Kind {
	case wire.KindExecute:
		if err := rt.Execute(ctx, req.TaskID, req.Execute); err != nil {
			return wire.Response{Kind: req.Kind, OK: false, Err: err.Error()}
		}
		return wire.Response{Kind: req.Kind, OK: true}

	case wire.KindTerminate:
		if err := rt.Terminate(req.TaskID); err != nil {
			return wire.Response{Kind: req.Kind, OK: false, Err: err.Error()}
		}
		return wire.Response{Kind: req.Kind, OK: true}

	case wire.KindReadStatistics:
		rows, err := rt.ReadStatistics(ctx, req.TaskID)
		if err != nil {
			return wire.Response{Kind: req.Kind, OK: false, Err: err.Error()}
		}
		out := make([][]int64, len(rows))
		for i, r := range rows {
			out[i] = append([]int64(nil), r[:]...)
		}
		return wire.Response{Kind: req.Kind, OK: true, Statistics: wire.StatisticsResponse{Rows: out}}

	case wire.KindRemoveStatistics:
		if err := rt.RemoveStatistics(req.TaskID); err != nil {
			return wire.Response{Kind: req.Kind, OK: false, Err: err.Error()}
		}
		return wire.Response{Kind: req.Kind, OK: true}

	default:
		return wire.Response{Kind: req.Kind, OK: false, Err: "workerproc: unknown request kind"}
	}
}
