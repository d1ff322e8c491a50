package barrier_test

import (
	"fmt"
	"sync"
	"time"

	"github.com/notorious-go/sync/barrier"
)

func Example() {
	b := barrier.New(0)
	fmt.Println("Created:", b)

	// A lone participant never waits for anybody, and is the leader of every
	// generation it completes.
	g := b.Register()
	fmt.Println("Registered:", b)
	fmt.Println("Wait:", g.Wait())
	fmt.Println("Wait:", g.Wait())

	// Always release the guard, so that no other participant is left waiting.
	g.Release()
	fmt.Println("Released:", b)

	// Output:
	// Created: Barrier(gen=0 arrived=0/0 joining=0)
	// Registered: Barrier(gen=0 arrived=0/1 joining=0)
	// Wait: leader@0
	// Wait: leader@1
	// Released: Barrier(gen=2 arrived=0/0 joining=0)
}

// This example demonstrates using the leader of each generation to run some
// bookkeeping exactly once per round, after every worker finished its share of
// the round's work.
func ExampleGuard_Wait() {
	const workers, rounds = 3, 3
	b := barrier.New(0)

	// Register every worker before any of them starts, so that all of them are
	// counted from the first generation.
	guards := make([]*barrier.Guard, workers)
	for i := range guards {
		guards[i] = b.Register()
	}

	var (
		mu     sync.Mutex
		totals [rounds]int
		wg     sync.WaitGroup
	)
	for i, g := range guards {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer g.Release()
			for round := range rounds {
				mu.Lock()
				totals[round] += (i + 1) * (round + 1)
				mu.Unlock()

				// Once every worker added its share, the leader reports the total. The
				// next round cannot be completed before the leader has arrived again, so
				// the reports are printed in order.
				if r := g.Wait(); r.Leader {
					mu.Lock()
					fmt.Printf("round %v: total=%v\n", r.Generation, totals[r.Generation])
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	// Output:
	// round 0: total=6
	// round 1: total=12
	// round 2: total=18
}

// This example demonstrates a participant leaving the barrier early. The
// remaining participants keep synchronizing among themselves, and the
// generation completed by the departure has no leader.
func ExampleGuard_Release() {
	b := barrier.New(0)
	stayer, leaver := b.Register(), b.Register()

	done := make(chan barrier.Result)
	go func() {
		done <- stayer.Wait()
	}()
	// Wait until the stayer is parked. Had the leaver left first, the stayer would
	// arrive alone and lead generation 0 itself.
	for b.Arrived() == 0 {
		time.Sleep(time.Millisecond)
	}

	// The leaver decides not to wait. Releasing its guard completes the
	// generation that the stayer is waiting on.
	leaver.Release()
	fmt.Println("Stayer:", <-done)
	fmt.Println("Stayer alone:", stayer.Wait())

	stayer.Release()

	// Output:
	// Stayer: follower@0
	// Stayer alone: leader@1
}
