package engine

import "context"

// Dispatcher runs queued events one at a time on the goroutine calling
// Run, so engine handlers never interleave.
type Dispatcher struct {
	queue chan func()
}

func NewDispatcher(buffer int) *Dispatcher {
	if buffer < 0 {
		buffer = 0
	}
	return &Dispatcher{queue: make(chan func(), buffer)}
}

// Post queues fn and reports whether it was accepted before ctx ended.
// Handlers running inside Run must not Post to the same dispatcher when
// the buffer may be full.
func (d *Dispatcher) Post(ctx context.Context, fn func()) bool {
	select {
	case d.queue <- fn:
		return true
	case <-ctx.Done():
		return false
	}
}

// executes queued events until ctx is done
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-d.queue:
			fn()
		}
	}
}

// Future holds the result of one asynchronous operation.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// runs fn on its own goroutine
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.value, f.err = fn(ctx)
	}()
	return f
}

// closed once the result is available
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// blocks until the result is available or ctx ends
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// result of a completed future; ok is false while it is still running
func (f *Future[T]) Result() (value T, ok bool, err error) {
	select {
	case <-f.done:
		return f.value, true, f.err
	default:
		var zero T
		return zero, false, nil
	}
}
