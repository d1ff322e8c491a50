package barrier

import (
	"fmt"
	"sync"
)

// A Barrier is a reusable rendezvous point for a dynamic set of participants.
// Each call to Wait blocks until every participant that is currently counted
// has arrived, at which point all of them are released together and the
// barrier advances to the next generation.
//
// Unlike a fixed-count barrier, the set of participants may change at any time.
// Participants join with Register and leave with Guard.Release. Leaving counts
// toward completing the in-flight generation, so a participant that stops
// waiting (returns early, panics, or exits its goroutine) cannot leave the
// others blocked.
//
// Barriers must be created with New and must not be copied after first use.
type Barrier struct {
	mu   sync.Mutex
	cond sync.Cond

	// generation identifies the in-flight round. It is incremented by exactly one
	// on every release.
	generation uint64
	// expected is the number of participants that must arrive (or leave) before
	// the in-flight generation is released.
	expected int
	// arrived is the number of participants blocked in the in-flight generation.
	arrived int
	// joining counts participants that registered while a generation was in
	// flight. They are folded into expected by the release that ends it.
	joining int
	// anonymous counts the participants that were declared by New and hold no
	// Guard. They are a subset of expected.
	anonymous int
}

// New creates a barrier with n anonymous participants. A zero n is valid and
// is the common case when every participant joins through Register.
//
// Anonymous participants synchronize with Barrier.Wait and leave with
// Barrier.Leave. Prefer Register where possible: only a Guard can guarantee
// that a participant leaves exactly once.
//
// New panics if n is negative.
func New(n int) *Barrier {
	if n < 0 {
		panic(fmt.Errorf("barrier: negative participant count %v", n))
	}
	b := &Barrier{expected: n, anonymous: n}
	b.cond.L = &b.mu
	return b
}

// String returns a human-readable snapshot of the barrier's state in the
// format "Barrier(gen=G arrived=A/E joining=J)".
func (b *Barrier) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state()
}

// state formats the barrier for String and for panic messages raised while
// b.mu is held.
func (b *Barrier) state() string {
	return fmt.Sprintf("Barrier(gen=%v arrived=%v/%v joining=%v)", b.generation, b.arrived, b.expected, b.joining)
}

// Register adds a participant to the barrier and returns the Guard that
// represents its membership. The caller must release the guard when it no
// longer intends to wait, typically with a deferred call:
//
//	g := b.Register()
//	defer g.Release()
//	for ... {
//	    // ... do work ...
//	    g.Wait()
//	}
//
// Register may be called at any time, including while other participants are
// blocked in Wait. A participant that registers while a generation is in
// flight is not counted toward that generation: it neither delays its release
// nor is it released by it. Its first Wait synchronizes on the following
// generation.
//
// Register never blocks beyond a short critical section and never releases a
// generation by itself.
func (b *Barrier) Register() *Guard {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := b.generation
	if b.arrived > 0 {
		// Someone is already parked on this generation, which fixes its target.
		b.joining++
		next++
	} else {
		b.expected++
	}
	b.cond.Broadcast()
	return newGuard(b, next)
}

// Wait is the arrival of an anonymous participant declared by New. It blocks
// until every counted participant has arrived, and reports whether the caller
// was the leader that released the generation.
//
// Wait panics if the barrier has no anonymous participants left. Participants
// that joined with Register must call Guard.Wait instead.
func (b *Barrier) Wait() Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.anonymous == 0 {
		panic(fmt.Errorf("barrier: wait without anonymous participants (%v)", b.state()))
	}
	return b.arrive()
}

// Leave removes an anonymous participant declared by New. If every remaining
// participant has already arrived, Leave releases them without designating a
// leader.
//
// Leave panics if the barrier has no anonymous participants left.
func (b *Barrier) Leave() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.anonymous == 0 {
		panic(fmt.Errorf("barrier: leave without anonymous participants (%v)", b.state()))
	}
	b.anonymous--
	b.depart(b.generation)
}

// Participants reports the number of registered participants, including those
// that joined during the in-flight generation.
func (b *Barrier) Participants() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.expected + b.joining
}

// Generation reports the number of generations released so far.
func (b *Barrier) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generation
}

// Arrived reports how many participants are blocked in the in-flight
// generation.
func (b *Barrier) Arrived() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.arrived
}

// arrive counts the caller toward the in-flight generation and blocks until
// that generation is released. The caller must hold b.mu.
func (b *Barrier) arrive() Result {
	gen := b.generation
	b.arrived++
	if b.arrived == b.expected {
		b.release()
		return Result{Generation: gen, Leader: true}
	}
	for b.generation == gen {
		b.cond.Wait()
	}
	return Result{Generation: gen}
}

// awaitGeneration blocks until the barrier reaches the given generation. The
// caller must hold b.mu.
func (b *Barrier) awaitGeneration(gen uint64) {
	for b.generation < gen {
		b.cond.Wait()
	}
}

// depart removes one participant that is first counted in generation from.
// Participants still joining are taken off the joining count; everyone else
// lowers the target of the in-flight generation, which may release it. The
// caller must hold b.mu.
func (b *Barrier) depart(from uint64) {
	if from > b.generation {
		b.joining--
		return
	}
	b.expected--
	// Nobody can be parked when the last participant leaves an idle barrier, so
	// that does not consume a generation.
	if b.arrived > 0 && b.arrived == b.expected {
		b.release()
	}
}

// release ends the in-flight generation and wakes every parked participant.
// The caller must hold b.mu.
func (b *Barrier) release() {
	b.arrived = 0
	b.expected += b.joining
	b.joining = 0
	b.generation++
	b.cond.Broadcast()
}
