package core

// AgentState identifies which specialist role currently owns the
// conversation. The set is closed: sessions always start at StateRouter and
// only ever move forward through the pipeline until StateTerminated.
type AgentState int

const (
	// StateRouter is the initial triage role that identifies the
	// customer's intent.
	StateRouter AgentState = iota
	// StateAuthenticator verifies the customer's identity before any
	// account work happens.
	StateAuthenticator
	// StateFulfillment executes the intent-specific routine.
	StateFulfillment
	// StateTerminated is the terminal state. No further turns run.
	StateTerminated
)

// String returns the human readable role name.
func (s AgentState) String() string {
	switch s {
	case StateRouter:
		return "router"
	case StateAuthenticator:
		return "authenticator"
	case StateFulfillment:
		return "fulfillment"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// transitions is the closed forward-only handoff graph.
var transitions = map[AgentState][]AgentState{
	StateRouter:        {StateAuthenticator, StateTerminated},
	StateAuthenticator: {StateFulfillment, StateTerminated},
	StateFulfillment:   {StateTerminated},
}

// CanTransition reports whether a handoff from one state to another is
// allowed by the pipeline.
func CanTransition(from, to AgentState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TerminationReason records why a session stopped.
type TerminationReason int

const (
	// ReasonCompleted means the routine ran to its terminal step.
	ReasonCompleted TerminationReason = iota
	// ReasonClientExit means the customer asked to end the conversation.
	ReasonClientExit
	// ReasonTurnLimitExceeded means the session hit its turn budget.
	ReasonTurnLimitExceeded
	// ReasonRepeatedCallLoop means the loop guard tripped on repeated
	// identical tool calls.
	ReasonRepeatedCallLoop
)

// String returns the reason label used in trace output.
func (r TerminationReason) String() string {
	switch r {
	case ReasonCompleted:
		return "completed"
	case ReasonClientExit:
		return "client_exit"
	case ReasonTurnLimitExceeded:
		return "turn_limit_exceeded"
	case ReasonRepeatedCallLoop:
		return "repeated_call_loop"
	default:
		return "unknown"
	}
}
