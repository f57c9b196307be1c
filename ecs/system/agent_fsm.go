package system

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
	"github.com/milk9111/horde/ecs/component"
)

const (
	fsmEventRest   = "rest"
	fsmEventPatrol = "patrol"
	fsmEventChase  = "chase"
	fsmEventAttack = "attack"
	fsmEventKill   = "kill"
)

var liveStates = []string{
	component.StateIdle.String(),
	component.StatePatrol.String(),
	component.StateChase.String(),
	component.StateAttack.String(),
}

// NewBehaviorMachine builds the per-agent transition table. Every live
// state can reach every other live state and Dead; nothing leaves Dead.
func NewBehaviorMachine() *fsm.FSM {
	return fsm.NewFSM(
		component.StateIdle.String(),
		fsm.Events{
			{Name: fsmEventRest, Src: liveStates, Dst: component.StateIdle.String()},
			{Name: fsmEventPatrol, Src: liveStates, Dst: component.StatePatrol.String()},
			{Name: fsmEventChase, Src: liveStates, Dst: component.StateChase.String()},
			{Name: fsmEventAttack, Src: liveStates, Dst: component.StateAttack.String()},
			{Name: fsmEventKill, Src: liveStates, Dst: component.StateDead.String()},
		},
		fsm.Callbacks{},
	)
}

func eventFor(s component.BehaviorState) string {
	switch s {
	case component.StateIdle:
		return fsmEventRest
	case component.StatePatrol:
		return fsmEventPatrol
	case component.StateChase:
		return fsmEventChase
	case component.StateAttack:
		return fsmEventAttack
	}
	return fsmEventKill
}

// transition moves st to next through its machine. It reports whether the
// state changed; Dead never changes.
func transition(st *component.AIState, next component.BehaviorState) bool {
	if st == nil || st.Current == component.StateDead || st.Current == next {
		return false
	}
	if st.Machine == nil {
		st.Current = next
		return true
	}
	err := st.Machine.Event(context.Background(), eventFor(next))
	var noTransition fsm.NoTransitionError
	if err != nil && !errors.As(err, &noTransition) {
		return false
	}
	cur, ok := component.ParseBehaviorState(st.Machine.Current())
	if !ok {
		return false
	}
	changed := cur != st.Current
	st.Current = cur
	return changed
}
