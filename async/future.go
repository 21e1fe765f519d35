// Package async provides a settle-once Future with value and error
// continuations, plus a wait-for-all combinator. Operations run on their own
// goroutines; a context passed to Await bounds only the wait, never the
// operation itself.
package async

import (
	"context"
	"sync"
)

// Operation is a unit of asynchronous work.
type Operation[T any] func(ctx context.Context) (T, error)

// Future holds the eventual result of an operation. It settles exactly once.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) settle(value T, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future has settled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the future has a result yet.
func (f *Future[T]) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Await blocks until the future settles or ctx is done. A settled result
// always wins over a simultaneously cancelled context.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
	}

	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Go runs op on a new goroutine and returns its future. A panic inside op
// rejects the future with a *PanicError instead of crashing the process.
func Go[T any](ctx context.Context, op Operation[T]) *Future[T] {
	f, start := Deferred(ctx, op)
	start()
	return f
}

// Deferred returns the future of op without running it. op starts on its own
// goroutine the first time start is called; later calls do nothing.
func Deferred[T any](ctx context.Context, op Operation[T]) (*Future[T], func()) {
	f := newFuture[T]()
	var once sync.Once
	start := func() {
		once.Do(func() { go f.run(ctx, op) })
	}
	return f, start
}

func (f *Future[T]) run(ctx context.Context, op Operation[T]) {
	var (
		value T
		err   error
	)
	defer func() {
		if r := recover(); r != nil {
			var zero T
			f.settle(zero, &PanicError{Value: r})
			return
		}
		f.settle(value, err)
	}()
	value, err = op(ctx)
}

// NewPromise returns an unsettled future together with its resolve and
// reject functions. Only the first call to either has an effect.
func NewPromise[T any]() (*Future[T], func(T), func(error)) {
	f := newFuture[T]()
	resolve := func(value T) { f.settle(value, nil) }
	reject := func(err error) {
		var zero T
		f.settle(zero, err)
	}
	return f, resolve, reject
}

// Resolved returns a future already settled with value.
func Resolved[T any](value T) *Future[T] {
	f := newFuture[T]()
	f.settle(value, nil)
	return f
}

// Rejected returns a future already settled with err.
func Rejected[T any](err error) *Future[T] {
	f := newFuture[T]()
	var zero T
	f.settle(zero, err)
	return f
}

// Then runs fn with the settled result of f and settles the returned future
// with whatever fn returns. fn receives both paths; returning the error it
// was given re-raises it. The derived future settles only after fn returns.
func Then[T, U any](f *Future[T], fn func(T, error) (U, error)) *Future[U] {
	derived := newFuture[U]()
	go func() {
		<-f.done
		var (
			value U
			err   error
		)
		defer func() {
			if r := recover(); r != nil {
				var zero U
				derived.settle(zero, &PanicError{Value: r})
				return
			}
			derived.settle(value, err)
		}()
		value, err = fn(f.value, f.err)
	}()
	return derived
}
