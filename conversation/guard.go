package conversation

import "fmt"

// Verdict is the tracker's decision for a recorded tool call.
type Verdict int

const (
	// VerdictContinue lets the call proceed.
	VerdictContinue Verdict = iota
	// VerdictTerminate means the same call has repeated too often and the
	// session must stop.
	VerdictTerminate
)

// String returns the string representation of the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictContinue:
		return "continue"
	case VerdictTerminate:
		return "terminate"
	default:
		return "unknown"
	}
}

// InvocationTracker watches the trailing window of tool invocations and flags
// a session that keeps issuing the identical call. Two calls count as
// identical only when both name and raw arguments match.
type InvocationTracker struct {
	window    []string
	capacity  int
	threshold int
}

// NewInvocationTracker creates a tracker that terminates once a call signature
// appears threshold times within the last capacity invocations.
func NewInvocationTracker(capacity, threshold int) *InvocationTracker {
	if capacity <= 0 {
		capacity = 10
	}
	if threshold <= 0 {
		threshold = 3
	}

	return &InvocationTracker{
		window:    make([]string, 0, capacity),
		capacity:  capacity,
		threshold: threshold,
	}
}

// Record adds a tool invocation to the window and returns the verdict for it.
// The current call counts toward its own repeat total.
func (t *InvocationTracker) Record(name, arguments string) Verdict {
	sig := fmt.Sprintf("%s:%s", name, arguments)

	t.window = append(t.window, sig)
	if len(t.window) > t.capacity {
		t.window = t.window[len(t.window)-t.capacity:]
	}

	if t.Repeats(name, arguments) >= t.threshold {
		return VerdictTerminate
	}

	return VerdictContinue
}

// Repeats counts how often the given call appears in the current window.
func (t *InvocationTracker) Repeats(name, arguments string) int {
	sig := fmt.Sprintf("%s:%s", name, arguments)

	n := 0
	for _, s := range t.window {
		if s == sig {
			n++
		}
	}

	return n
}
