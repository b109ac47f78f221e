package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
)

// ErrInvalidTransition is returned when an event is not allowed in the
// user's current state.
var ErrInvalidTransition = errors.New("invalid conversation transition")

// Event names a dialog transition.
type Event string

const (
	// EventRegister restarts onboarding from any state.
	EventRegister Event = "register"
	// EventChooseRegion accepts a timezone region.
	EventChooseRegion Event = "choose_region"
	// EventChooseTime accepts a daily time and ends onboarding.
	EventChooseTime Event = "choose_time"
	// EventBack leaves onboarding without changes.
	EventBack Event = "back"
	// EventChangeTime reopens the time choice from Idle.
	EventChangeTime Event = "change_time"
	// EventStartSession opens a daily session at question one.
	EventStartSession Event = "start_session"
	// EventAnswer moves from one question to the next.
	EventAnswer Event = "answer"
	// EventFinish closes a session after the last answer.
	EventFinish Event = "finish"
	// EventChain starts a deferred session right after the last answer.
	EventChain Event = "chain"
	// EventStop returns to Idle from anywhere.
	EventStop Event = "stop"
)

var allStates = func() []string {
	states := []string{string(Idle), string(AwaitingRegion), string(AwaitingTime)}
	for n := 1; n <= Steps; n++ {
		states = append(states, string(Step(n)))
	}
	return states
}()

var transitions = func() fsm.Events {
	events := fsm.Events{
		{Name: string(EventRegister), Src: allStates, Dst: string(AwaitingRegion)},
		{Name: string(EventChooseRegion), Src: []string{string(AwaitingRegion)}, Dst: string(AwaitingTime)},
		{Name: string(EventChooseTime), Src: []string{string(AwaitingTime)}, Dst: string(Idle)},
		{Name: string(EventBack), Src: []string{string(AwaitingRegion), string(AwaitingTime)}, Dst: string(Idle)},
		{Name: string(EventChangeTime), Src: []string{string(Idle)}, Dst: string(AwaitingTime)},
		{Name: string(EventStartSession), Src: []string{string(Idle)}, Dst: string(Step(1))},
		{Name: string(EventFinish), Src: []string{string(Step(Steps))}, Dst: string(Idle)},
		{Name: string(EventChain), Src: []string{string(Step(Steps))}, Dst: string(Step(1))},
		{Name: string(EventStop), Src: allStates, Dst: string(Idle)},
	}
	for n := 1; n < Steps; n++ {
		events = append(events, fsm.EventDesc{Name: string(EventAnswer), Src: []string{string(Step(n))}, Dst: string(Step(n + 1))})
	}
	return events
}()

// Next returns the state reached by applying ev in from. Events that keep
// the state unchanged (e.g. stop while Idle) succeed.
func Next(ctx context.Context, from State, ev Event) (State, error) {
	machine := fsm.NewFSM(string(from), transitions, nil)
	if err := machine.Event(ctx, string(ev)); err != nil {
		var noTransition fsm.NoTransitionError
		if errors.As(err, &noTransition) {
			return from, nil
		}
		return from, fmt.Errorf("%w: %s in %s: %v", ErrInvalidTransition, ev, from, err)
	}
	return State(machine.Current()), nil
}

// Can reports whether ev is allowed in from.
func Can(from State, ev Event) bool {
	return fsm.NewFSM(string(from), transitions, nil).Can(string(ev))
}
