// Package barrier provides a reusable synchronization barrier for a dynamic set
// of goroutines that tolerates participants leaving at any time, including in
// the middle of a round.
//
// # Why This Package Exists
//
// A classic barrier is configured with a fixed number of parties and releases
// them once that many calls to Wait have been made. It has no way to learn that
// a party will never arrive. A goroutine that returns early, panics, or is
// stopped with runtime.Goexit while the others are parked leaves them blocked
// forever.
//
// This package inverts that failure mode. Every participant is represented by a
// [Guard], and releasing a Guard counts toward the current round exactly like
// arriving does. Deferring the release right after registering turns the loss
// of a participant into forward progress for the survivors:
//
//	g := b.Register()
//	defer g.Release()
//	for step := range steps {
//	    if err := step(); err != nil {
//	        return err // The others are not left waiting on us.
//	    }
//	    g.Wait()
//	}
//
// # Generations
//
// A [Barrier] proceeds in generations (rounds). A generation is released when
// every counted participant has either arrived in Wait or left with Release.
// The generation counter then advances by exactly one and every parked
// participant returns.
//
// Participants may register at any time. A participant that registers while a
// generation is in flight (someone is already parked) is not counted toward it;
// it starts with the following generation. Registering never releases a
// generation.
//
// # Leaders
//
// Wait returns a [Result]. The participant whose arrival completes a generation
// is its leader, which is convenient for work that must happen once per round.
// When the last missing participant leaves instead of arriving, the generation
// is released without a leader: the one that left never arrived, and electing
// one of the parked participants would make leadership depend on wake-up order.
// Callers that need an elected goroutine in every round must therefore not
// depend on Leader when participants may leave mid-round.
//
// # Groups
//
// [Group] ties the lifetime of a participant to the goroutine that runs it,
// on top of golang.org/x/sync/errgroup. Every function passed to Group.Go gets
// its own Guard, which is released however the function exits. Panics are
// recovered into a [PanicError] so that the remaining participants keep making
// progress and the panic is reported by Group.Wait.
//
// # Misuse
//
// Waiting on a barrier without any participant would block forever. The API
// makes this hard to reach: a Guard is itself a participant, and Barrier.Wait
// panics when the barrier has no anonymous participants. Other misuses that
// would corrupt the counts, such as waiting on a released Guard or releasing a
// Guard that is parked in Wait, panic as well.
//
// There is no timeout or cancellation for Wait. A parked participant returns
// only when its generation is released.
package barrier
