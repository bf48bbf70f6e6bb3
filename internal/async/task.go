// Package async models store operations that resolve after a simulated round trip.
//
// A Task runs its operation on a dedicated goroutine once the configured delay
// has elapsed. The operation cannot be cancelled after it is issued: Await only
// stops the caller from waiting, and the result is still committed.
package async

import (
	"context"
	"time"
)

// Task is the handle of an in-flight operation.
type Task[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go issues fn to run after delay and returns its handle immediately.
func Go[T any](delay time.Duration, fn func() (T, error)) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		if delay > 0 {
			timer := time.NewTimer(delay)
			<-timer.C
		}
		t.value, t.err = fn()
	}()
	return t
}

// Failed returns a task that is already rejected with err.
func Failed[T any](err error) *Task[T] {
	t := &Task[T]{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

// Done is closed once the operation has settled.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Await blocks until the task settles or ctx ends, whichever comes first.
func (t *Task[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Wait blocks until the task settles.
func (t *Task[T]) Wait() (T, error) {
	<-t.done
	return t.value, t.err
}
