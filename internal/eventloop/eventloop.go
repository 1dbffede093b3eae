// Package eventloop serializes work onto a single goroutine. The input
// context handler and the overlay windows are not safe for concurrent
// use; the bus and the X event pump hand their work to a Loop instead of
// locking.
package eventloop

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is returned when work is submitted after the loop exited.
var ErrStopped = errors.New("eventloop: stopped")

// Loop runs submitted functions one at a time, in submission order.
type Loop struct {
	work chan func()
	done chan struct{}

	once sync.Once
}

// New returns a loop with room for backlog pending functions.
func New(backlog int) *Loop {
	if backlog < 1 {
		backlog = 1
	}
	return &Loop{
		work: make(chan func(), backlog),
		done: make(chan struct{}),
	}
}

// Run executes submitted functions until ctx is cancelled. Functions still
// queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.work:
			fn()
		}
	}
}

// Post queues fn without waiting for it to run.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}
	select {
	case l.work <- fn:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// Do runs fn on the loop and waits for it to return. It must not be
// called from the loop goroutine itself.
func (l *Loop) Do(fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		// fn may have been the last thing to run before shutdown.
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Ping waits until the loop has drained everything queued before it, or
// until ctx is done.
func (l *Loop) Ping(ctx context.Context) error {
	reached := make(chan struct{})
	if err := l.Post(func() { close(reached) }); err != nil {
		return err
	}
	select {
	case <-reached:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
