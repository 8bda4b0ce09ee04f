// Package taskqueue implements gitdocdb's serialized mutation queue
// (spec.md §4.D): a FIFO queue of unit-of-work closures driven by a single
// worker goroutine, so that every put/insert/update/delete against a
// repository runs as an at-most-one in-flight commit sequence.
//
// The state machine (idle/running/draining/closed) and the
// channel+atomic+sync.Once shutdown idiom are grounded on the teacher's
// RPC server (internal/rpc/server_core.go): a shutdownChan, a stopOnce
// guarding the transition, and a doneChan the close path waits on. Here
// the FIFO buffer itself is a mutex+condvar slice rather than a Go channel,
// so a close can discard every not-yet-started task atomically without
// racing the worker over who reads it off a shared channel.
package taskqueue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gitdocdb/gitdocdb/internal/gitdocerr"
)

// State is one of the four queue states named in spec.md §4.D.
type State int32

const (
	Idle State = iota
	Running
	Draining
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Outcome is the result a submitted task's future resolves with.
type Outcome struct {
	Value any
	Err   error
}

// Func is a unit of work handed to the worker goroutine.
type Func func(ctx context.Context) (any, error)

type task struct {
	ctx    context.Context
	fn     Func
	result chan Outcome
}

// Queue is a FIFO, single-worker task queue (spec.md §4.D).
type Queue struct {
	state atomic.Int32

	mu      sync.Mutex
	cond    *sync.Cond
	pending []task
	closing bool

	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

// New creates a queue in the idle state and starts its worker goroutine.
func New() *Queue {
	q := &Queue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	q.state.Store(int32(Idle))
	go q.run()
	return q
}

// State returns the queue's current state.
func (q *Queue) State() State {
	return State(q.state.Load())
}

// Submit enqueues fn and returns a channel that receives its single
// Outcome. Submitting while draining or closed fails synchronously with
// ErrDatabaseClosing (spec.md §4.D). Submitting while idle or running
// always succeeds and runs in FIFO order relative to every other
// successful Submit.
func (q *Queue) Submit(ctx context.Context, fn Func) <-chan Outcome {
	result := make(chan Outcome, 1)

	q.mu.Lock()
	if q.closing {
		q.mu.Unlock()
		result <- Outcome{Err: gitdocerr.ErrDatabaseClosing}
		return result
	}
	q.pending = append(q.pending, task{ctx: ctx, fn: fn, result: result})
	q.cond.Signal()
	q.mu.Unlock()
	return result
}

// run is the single worker goroutine. It blocks for work when the queue is
// empty and not closing, pops and executes the head task otherwise, and
// tears itself down once the pending buffer is empty and closing has been
// requested — whether that buffer emptied because every task ran, or
// because Close discarded it.
func (q *Queue) run() {
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closing {
			q.state.CompareAndSwap(int32(Running), int32(Idle))
			q.cond.Wait()
		}

		if len(q.pending) == 0 {
			q.state.Store(int32(Closed))
			q.mu.Unlock()
			close(q.done)
			return
		}

		t := q.pending[0]
		q.pending = q.pending[1:]
		if !q.closing {
			q.state.Store(int32(Running))
		}
		q.mu.Unlock()

		value, err := t.fn(t.ctx)
		t.result <- Outcome{Value: value, Err: err}
	}
}

func cancel(tasks []task, err error) {
	for _, t := range tasks {
		t.result <- Outcome{Err: err}
	}
}

// discardPending clears the buffer under the lock and cancels everything
// that was in it, so the worker can never start a task Close promised to
// discard — whether or not the worker is currently busy with an earlier
// in-flight task.
func (q *Queue) discardPending(err error) {
	q.mu.Lock()
	remaining := q.pending
	q.pending = nil
	q.mu.Unlock()
	cancel(remaining, err)
}

// Close shuts the queue down per spec.md §4.D. force=true discards every
// pending (not-yet-started) task with ErrDatabaseClosing immediately and
// waits for any already-in-flight task to finish. force=false lets the
// worker keep draining buffered tasks, but returns ErrDatabaseCloseTimeout
// (and discards whatever is still buffered) if the queue has not fully
// drained within timeout; an already-in-flight task is never interrupted
// and its eventual commit, if any, remains legitimate (spec.md §4.D).
// Close is idempotent: later calls return the first call's outcome.
func (q *Queue) Close(force bool, timeout time.Duration) error {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closing = true
		if force {
			q.state.Store(int32(Closed))
		} else {
			q.state.Store(int32(Draining))
		}
		q.mu.Unlock()
		q.cond.Broadcast()

		if force {
			q.discardPending(gitdocerr.ErrDatabaseClosing)
			<-q.done
			return
		}

		select {
		case <-q.done:
		case <-time.After(timeout):
			q.closeErr = fmt.Errorf("%w: after %s", gitdocerr.ErrDatabaseCloseTimeout, timeout)
			q.state.Store(int32(Closed))
			q.discardPending(q.closeErr)
		}
	})
	return q.closeErr
}
