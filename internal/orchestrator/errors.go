// Package orchestrator implements the controller-side job/task orchestration
// named in spec.md §4.6: job admission, the job consumer loop, per-task
// worker fan-out, and the cost-aware worker-lease admission algorithm.
package orchestrator

import (
	"errors"

	"github.com/kentwait/epidemicsim/internal/wire"
)

var (
	// ErrAdmission covers a bounded job queue rejecting a new job.
	ErrAdmission = errors.New("orchestrator: admission rejected")
	// ErrNotFound covers an unknown job or task id.
	ErrNotFound = errors.New("orchestrator: not found")
	// ErrAlreadyTerminated covers a termination request against a job that
	// already reached a terminal state.
	ErrAlreadyTerminated = errors.New("orchestrator: job already terminated")
	// ErrTransport covers a worker RPC failure.
	ErrTransport = errors.New("orchestrator: transport error")
	// ErrChildProcess covers a worker reporting its child world process
	// failed.
	ErrChildProcess = errors.New("orchestrator: child process error")
	// ErrResourceSizeExceeded covers a job whose population exceeds every
	// worker's capacity.
	ErrResourceSizeExceeded = wire.ErrResourceSizeExceeded
	// ErrPersistence covers a JobStore failure.
	ErrPersistence = errors.New("orchestrator: persistence error")
	// ErrInternal covers anything else; callers should treat it as a bug
	// report rather than a retryable condition.
	ErrInternal = errors.New("orchestrator: internal error")
)
