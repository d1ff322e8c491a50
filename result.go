package barrier

import "fmt"

// Result describes how a call to Wait was released.
//
// All participants released by the same generation observe the same
// Generation. At most one of them observes Leader set to true.
type Result struct {
	// Generation is the number of the generation that was released, counting
	// from zero.
	Generation uint64

	// Leader is set for the single participant whose arrival completed the
	// generation. It is never set when the generation was completed by a
	// participant leaving the barrier.
	Leader bool
}

// String returns "leader@G" for the leader and "follower@G" otherwise.
func (r Result) String() string {
	if r.Leader {
		return fmt.Sprintf("leader@%v", r.Generation)
	}
	return fmt.Sprintf("follower@%v", r.Generation)
}
