package component

import "github.com/looplab/fsm"

// BehaviorState is an agent's controller state.
type BehaviorState int

const (
	StateIdle BehaviorState = iota
	StatePatrol
	StateChase
	StateAttack
	StateDead
)

func (s BehaviorState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePatrol:
		return "patrol"
	case StateChase:
		return "chase"
	case StateAttack:
		return "attack"
	case StateDead:
		return "dead"
	}
	return "unknown"
}

// ParseBehaviorState is the inverse of String.
func ParseBehaviorState(s string) (BehaviorState, bool) {
	for st := StateIdle; st <= StateDead; st++ {
		if st.String() == s {
			return st, true
		}
	}
	return StateIdle, false
}

// AIState stores the agent's machine and the aggression flag pushed by the
// phase clock. Current mirrors Machine.Current().
type AIState struct {
	Machine    *fsm.FSM
	Current    BehaviorState
	Aggressive bool
}

var AIStateComponent = NewComponent[AIState]()
