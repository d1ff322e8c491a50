package barrier_test

import (
	"testing"

	"go.uber.org/goleak"
)

// Every participant must have returned from Wait by the end of the tests. A
// goroutine left behind means some generation was never released.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
