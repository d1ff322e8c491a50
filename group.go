package barrier

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/errgroup"
)

// A Group is a collection of goroutines that synchronize on a shared Barrier.
// Each goroutine started with Go is a participant with its own Guard, and that
// guard is released however the goroutine exits.
//
// A Group is the top-level wrapper that makes leaving the barrier unconditional:
// returning an error, panicking, or calling runtime.Goexit all release the
// participant, so the remaining goroutines are never left waiting on it.
//
// A zero Group is valid and does not cancel on error.
type Group struct {
	initOnce sync.Once
	barrier  *Barrier
	tasks    *errgroup.Group
}

// WithContext returns a new Group and an associated Context derived from ctx.
//
// The derived Context is canceled the first time a function passed to Go
// returns a non-nil error (or panics), or the first time Wait returns,
// whichever occurs first.
func WithContext(ctx context.Context) (*Group, context.Context) {
	tasks, ctx := errgroup.WithContext(ctx)
	g := &Group{tasks: tasks}
	return g, ctx
}

func (g *Group) init() {
	g.initOnce.Do(func() {
		g.barrier = New(0)
		if g.tasks == nil {
			g.tasks = new(errgroup.Group)
		}
	})
}

// Barrier returns the barrier shared by the goroutines of this group.
func (g *Group) Barrier() *Barrier {
	g.init()
	return g.barrier
}

// Go registers a new participant and calls f with its Guard in a new
// goroutine.
//
// Registration happens before Go returns, so participants started by
// consecutive calls are all counted toward the same generation unless some of
// them already started waiting.
//
// The guard is released when f exits. A panic in f is recovered and reported
// as a *PanicError by Wait. The first non-nil error cancels the group's
// Context, if any.
//
// f must not release the guard while it is still needed, and must not pass the
// guard to other goroutines.
func (g *Group) Go(f func(*Guard) error) {
	g.init()
	guard := g.barrier.Register()
	g.tasks.Go(func() (err error) {
		defer guard.Release()
		defer func() {
			if r := recover(); r != nil {
				err = &PanicError{Value: r, Stack: debug.Stack()}
			}
		}()
		return f(guard)
	})
}

// Wait blocks until all function calls from the Go method have returned, then
// returns the first non-nil error (if any) from them.
func (g *Group) Wait() error {
	g.init()
	return g.tasks.Wait()
}

// PanicError is returned by Group.Wait when a participant panicked.
type PanicError struct {
	// Value is the value passed to panic.
	Value any
	// Stack is the stack trace of the panicking goroutine.
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("barrier: participant panicked: %v\n\n%s", e.Value, e.Stack)
}

// Unwrap returns the panic value if it is an error, so that errors.Is and
// errors.As see through the panic.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
