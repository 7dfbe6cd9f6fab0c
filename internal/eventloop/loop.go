package eventloop

import (
	"context"
	"errors"
	"time"
)

// ErrStopped is returned by Call once the loop has exited.
var ErrStopped = errors.New("eventloop: stopped")

// Runtime is what a controller needs from its owner.
type Runtime interface {
	// AfterFunc runs f on the owner once d has elapsed.
	AfterFunc(d time.Duration, f func())
	// Go runs task away from the owner and then runs the continuation it
	// returns on the owner. A nil continuation is skipped.
	Go(task func() func())
}

// Loop runs posted functions one at a time on the goroutine calling Run.
type Loop struct {
	queue   chan func()
	stopped chan struct{}
}

// New creates a loop with a queue of the given depth.
func New(depth int) *Loop {
	if depth < 1 {
		depth = 64
	}
	return &Loop{
		queue:   make(chan func(), depth),
		stopped: make(chan struct{}),
	}
}

// Run executes posted functions until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-l.queue:
			f()
		}
	}
}

// Post queues f. It is dropped if the loop has stopped.
func (l *Loop) Post(f func()) {
	select {
	case l.queue <- f:
	case <-l.stopped:
	}
}

// Call runs f on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, f func()) error {
	done := make(chan struct{})
	select {
	case l.queue <- func() { f(); close(done) }:
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Runtime returns a Runtime backed by real timers and goroutines.
func (l *Loop) Runtime() Runtime {
	return loopRuntime{l}
}

type loopRuntime struct {
	l *Loop
}

func (r loopRuntime) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, func() { r.l.Post(f) })
}

func (r loopRuntime) Go(task func() func()) {
	go func() {
		if apply := task(); apply != nil {
			r.l.Post(apply)
		}
	}()
}
