// Package barriertest provides utilities for testing code built on the barrier
// package. It offers helpers to drive a set of participants through several
// generations and to verify that the results they observed are consistent.
//
// # Overview
//
// The primary function [Run] registers a number of participants, makes each of
// them wait for a number of rounds concurrently, and verifies the collected
// results with [Check]:
//
//	b := barrier.New(0)
//	results := barriertest.Run(t, b, 8, 100)
//
// [Round] declares the expected outcome of a single generation, and
// [Round.Check] verifies it against the collected results. [Recorder] and
// [AwaitArrived] are the building blocks for scenarios that need finer
// control, such as releasing a guard only once the others are parked:
//
//	g3.Release() // g1 and g2 are parked.
//	barriertest.Round{Generation: 0, Participants: 2, Departed: true}.Check(t, rec.Results())
package barriertest

import (
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/notorious-go/sync/barrier"
)

// Run registers n participants on b and makes each of them wait rounds times
// concurrently. It returns every Result observed, after verifying that each of
// the rounds released all n participants together with exactly one leader.
//
// The participants are registered before any of them starts, so b must not
// have a generation in flight when Run is called.
func Run(t testing.TB, b *barrier.Barrier, n, rounds int) []barrier.Result {
	t.Helper()

	start := b.Generation()
	guards := make([]*barrier.Guard, n)
	for i := range guards {
		guards[i] = b.Register()
	}

	var rec Recorder
	var wg sync.WaitGroup
	for _, g := range guards {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer g.Release()
			for range rounds {
				rec.Record(g.Wait())
			}
		}()
	}
	Await(t, &wg)

	results := rec.Results()
	Check(t, results)
	for gen := start; gen < start+uint64(rounds); gen++ {
		Round{Generation: gen, Participants: n}.Check(t, results)
	}
	return results
}

// Check verifies the invariants that hold for any set of results collected
// from a single barrier: no generation has more than one leader.
func Check(t testing.TB, results []barrier.Result) {
	t.Helper()
	for _, gen := range generations(results) {
		if leaders := Leaders(Generation(results, gen)); leaders > 1 {
			t.Errorf("generation %v elected %v leaders", gen, leaders)
		}
	}
}

// Round describes the expected outcome of one generation of a barrier.
//
// Tests declare the rounds they expect before (or after) driving the
// participants, then verify them against the results collected by a Recorder.
type Round struct {
	// Generation is the number of the generation this round describes.
	Generation uint64

	// Participants is the number of participants the generation released.
	Participants int

	// Departed is set when the generation was completed by a participant leaving
	// the barrier rather than arriving, in which case nobody is its leader.
	Departed bool
}

// Check verifies that the results contain exactly the expected number of
// participants released by this round's generation, and that the generation
// elected exactly one leader, or none if it was completed by a departure.
//
// Any violation is reported as a test error.
func (r Round) Check(t testing.TB, results []barrier.Result) {
	t.Helper()

	round := Generation(results, r.Generation)
	if len(round) != r.Participants {
		t.Errorf("generation %v released %v participants, want %v", r.Generation, len(round), r.Participants)
	}

	want := 1
	if r.Departed {
		want = 0
	}
	if leaders := Leaders(round); leaders != want {
		t.Errorf("generation %v elected %v leaders, want %v", r.Generation, leaders, want)
	}
}

// Generation returns the results that belong to the given generation.
func Generation(results []barrier.Result, gen uint64) []barrier.Result {
	var round []barrier.Result
	for _, r := range results {
		if r.Generation == gen {
			round = append(round, r)
		}
	}
	return round
}

// Leaders counts the results that report leadership.
func Leaders(results []barrier.Result) int {
	var n int
	for _, r := range results {
		if r.Leader {
			n++
		}
	}
	return n
}

// generations lists the distinct generations in results, in increasing order.
func generations(results []barrier.Result) []uint64 {
	var gens []uint64
	for _, r := range results {
		gens = append(gens, r.Generation)
	}
	slices.Sort(gens)
	return slices.Compact(gens)
}

// A Recorder collects results from concurrent participants.
//
// The zero Recorder is ready to use.
type Recorder struct {
	mu      sync.Mutex
	results []barrier.Result
}

// Record appends r to the recorded results. It is safe for concurrent use.
func (r *Recorder) Record(res barrier.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

// Results returns a copy of the results recorded so far.
func (r *Recorder) Results() []barrier.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.results)
}

// Await blocks until wg is done, failing the test if its context is cancelled
// first.
func Await(t testing.TB, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-t.Context().Done():
		t.Fatalf("test interrupted before all participants returned")
	}
}

// AwaitArrived blocks until at least n participants are parked in the
// in-flight generation of b.
func AwaitArrived(t testing.TB, b *barrier.Barrier, n int) {
	t.Helper()
	for b.Arrived() < n {
		select {
		case <-t.Context().Done():
			t.Fatalf("test interrupted with %v, waiting for %v arrivals", b, n)
		case <-time.After(time.Millisecond):
		}
	}
}
