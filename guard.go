package barrier

import (
	"fmt"
	"runtime"
)

// A Guard represents the membership of one participant in a Barrier. It is
// returned by Barrier.Register and stays registered until Release is called.
//
// A Guard must be released exactly once, on every path by which its owner stops
// participating. The idiomatic way to achieve this is to defer Release right
// after registering, so that returning early, panicking, or exiting the
// goroutine with runtime.Goexit all release the guard:
//
//	g := b.Register()
//	defer g.Release()
//
// As a last line of defence, a Guard that becomes unreachable without being
// released is released by the garbage collector. This happens at an
// unspecified time after the guard is dropped, so it must never be relied upon
// for timely progress.
//
// A Guard is owned by a single goroutine. Wait must not be called concurrently
// on the same Guard.
type Guard struct {
	p       *participant
	cleanup runtime.Cleanup
}

// participant holds the state of a Guard that outlives it, so that an
// abandoned Guard can still be released after it is unreachable.
type participant struct {
	b *Barrier

	// The fields below are guarded by b.mu.

	// generation is the next generation this participant synchronizes on. It is
	// ahead of the barrier's generation while the participant is still joining.
	generation uint64
	// waiting is set while the participant is blocked in Wait.
	waiting bool
	// released is set once the participant has left the barrier. Leaving must
	// happen exactly once, so every later attempt is a no-op.
	released bool
}

func newGuard(b *Barrier, generation uint64) *Guard {
	p := &participant{b: b, generation: generation}
	g := &Guard{p: p}
	g.cleanup = runtime.AddCleanup(g, (*participant).abandon, p)
	return g
}

// Wait blocks until every participant counted in the current generation has
// either arrived or left, then returns the Result of that generation.
//
// The participant whose arrival completes the generation is its leader, which
// is useful to run some work exactly once per generation:
//
//	for {
//	    // ... do work ...
//	    if g.Wait().Leader {
//	        buffer.Flush()
//	    }
//	}
//
// When a generation is completed by a participant leaving instead, nobody is
// designated as leader.
//
// If the guard registered while a generation was in flight, Wait first blocks
// until that generation is released and then synchronizes on the following one.
//
// Wait panics if the guard was released or if another goroutine is already
// waiting on it.
func (g *Guard) Wait() Result {
	r := g.p.wait()
	// The guard must stay reachable until the wait is over, otherwise the cleanup
	// could release a participant that is still parked.
	runtime.KeepAlive(g)
	return r
}

// Release removes the participant from the barrier. If every remaining
// participant of the current generation has already arrived, they are released
// without a leader.
//
// Release is safe to call multiple times; only the first call has an effect.
// Calling Release while another goroutine is blocked in Wait on the same guard
// panics.
func (g *Guard) Release() {
	g.p.leave()
	// Only stop the cleanup once the participant has left. A misused Release that
	// panics keeps the guard covered by the garbage collector.
	g.cleanup.Stop()
}

// Released reports whether Release was called.
func (g *Guard) Released() bool {
	b := g.p.b
	b.mu.Lock()
	defer b.mu.Unlock()
	return g.p.released
}

func (p *participant) wait() Result {
	b := p.b
	b.mu.Lock()
	defer b.mu.Unlock()

	if p.released {
		panic(fmt.Errorf("barrier: wait on released guard (%v)", b.state()))
	}
	if p.waiting {
		panic(fmt.Errorf("barrier: concurrent wait on the same guard (%v)", b.state()))
	}

	p.waiting = true
	b.awaitGeneration(p.generation)
	r := b.arrive()
	p.generation = r.Generation + 1
	p.waiting = false
	return r
}

// leave deregisters the participant unless it already left.
func (p *participant) leave() {
	b := p.b
	b.mu.Lock()
	defer b.mu.Unlock()

	if p.released {
		return
	}
	if p.waiting {
		panic(fmt.Errorf("barrier: release of a guard that is blocked in wait (%v)", b.state()))
	}
	p.released = true
	b.depart(p.generation)
}

// abandon runs on the cleanup goroutine once the Guard is unreachable. An
// unreachable Guard cannot be parked in Wait.
func (p *participant) abandon() {
	p.leave()
}
