// Package termination implements the one-shot, clonable termination
// broadcast contract described in spec.md §3: a job's watcher goroutines
// each hold a Receiver clone, and whichever of them observes the job
// finishing first (success, failure, or explicit cancellation) causes every
// clone to agree on the same terminal Outcome.
package termination

import (
	"context"
	"sync"
)

// Outcome is the terminal state observed by every Receiver clone once the
// signal fires.
type Outcome int

const (
	// Pending means the signal has not fired yet.
	Pending Outcome = iota
	// Completed means the job ran to completion normally.
	Completed
	// Cancelled means the job was terminated before completion.
	Cancelled
)

type signal struct {
	mu      sync.Mutex
	done    chan struct{}
	fired   bool
	outcome Outcome
}

func newSignal() *signal {
	return &signal{done: make(chan struct{})}
}

func (s *signal) set(o Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fired {
		return
	}
	s.fired = true
	s.outcome = o
	close(s.done)
}

// Sender is held by the one goroutine responsible for deciding how a job
// ends. Send and Cancel are both safe to call more than once; only the
// first call has any effect, matching the "one-shot" half of the contract.
type Sender struct {
	s *signal
}

// NewPair creates a fresh termination signal and returns its Sender and the
// first Receiver clone.
func NewPair() (Sender, Receiver) {
	s := newSignal()
	return Sender{s: s}, Receiver{s: s}
}

// Send marks the job Completed.
func (snd Sender) Send() {
	snd.s.set(Completed)
}

// Cancel marks the job Cancelled.
func (snd Sender) Cancel() {
	snd.s.set(Cancelled)
}

// Receiver observes the termination signal. Receiver is cheap to clone
// (Clone shares the same underlying signal) so every watcher goroutine for
// a task can hold its own copy and all agree on the same Outcome.
type Receiver struct {
	s *signal
}

// Clone returns an independent Receiver observing the same signal.
func (r Receiver) Clone() Receiver {
	return Receiver{s: r.s}
}

// Recv blocks until the signal fires or ctx is done, reporting whether the
// signal fired (as opposed to ctx expiring first) and the terminal Outcome.
func (r Receiver) Recv(ctx context.Context) (fired bool, outcome Outcome) {
	select {
	case <-r.s.done:
		return true, r.Outcome()
	case <-ctx.Done():
		return false, Pending
	}
}

// TryRecv is the non-blocking form of Recv.
func (r Receiver) TryRecv() (fired bool, outcome Outcome) {
	select {
	case <-r.s.done:
		return true, r.Outcome()
	default:
		return false, Pending
	}
}

// Outcome returns the current terminal state; Pending until the signal
// fires.
func (r Receiver) Outcome() Outcome {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.outcome
}

// Done exposes the underlying channel directly, for use in a select
// alongside other cases without going through Recv.
func (r Receiver) Done() <-chan struct{} {
	return r.s.done
}
