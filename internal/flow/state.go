package flow

// State is the captive-portal payment flow state.
type State string

const (
	StateSelectPlan State = "select-plan"
	StateEnterPhone State = "enter-phone"
	StateProcessing State = "processing"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

// allowedTransitions defines the valid state transitions. The key is the
// current state, the value the set of reachable target states.
var allowedTransitions = map[State][]State{
	StateSelectPlan: {
		StateEnterPhone,
	},
	StateEnterPhone: {
		StateSelectPlan,
		StateProcessing,
	},
	StateProcessing: {
		StateSuccess,
		StateFailed,
		StateSelectPlan, // user abandons the attempt
	},
	StateSuccess: {}, // terminal
	StateFailed: {
		StateSelectPlan, // retry
	},
}

// CanTransition checks if a transition from one state to another is allowed.
func CanTransition(from, to State) bool {
	allowed, exists := allowedTransitions[from]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}
