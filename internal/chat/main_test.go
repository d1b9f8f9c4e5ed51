package chat

import (
	"testing"

	"go.uber.org/goleak"
)

// The orchestrator must not leave goroutines behind after a turn,
// including turns that fail mid-pipeline.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
