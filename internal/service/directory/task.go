package directory

import (
	"context"
	"sync"
	"time"
)

// Task is the handle for one suspended store operation. The operation runs to
// completion unless Cancel is called; Wait only bounds how long the caller
// waits for it.
type Task[T any] struct {
	done chan struct{}
	val  T
	err  error

	ctx        context.Context
	cancel     context.CancelFunc
	cancelOnce sync.Once
}

func newTask[T any]() *Task[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Task[T]{
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
}

func resolvedTask[T any](v T) *Task[T] {
	t := newTask[T]()
	t.finish(v, nil)
	return t
}

// Done is closed once the operation has resolved.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the operation resolves or ctx ends. A ctx error leaves the
// operation running.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Cancel abandons the operation if it is still suspended. The task then
// resolves with context.Canceled and its state writes are skipped.
func (t *Task[T]) Cancel() {
	t.cancelOnce.Do(t.cancel)
}

// suspend waits for wake or cancellation and reports whether the operation
// should go on.
func (t *Task[T]) suspend(wake <-chan time.Time) bool {
	select {
	case <-wake:
		return t.ctx.Err() == nil
	case <-t.ctx.Done():
		return false
	}
}

func (t *Task[T]) finish(v T, err error) {
	t.val = v
	t.err = err
	t.cancelOnce.Do(t.cancel)
	close(t.done)
}
