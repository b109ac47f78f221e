// Package conversation keeps each user's dialog position and session data
// bag in durable storage, so a restarted process resumes every dialog
// exactly where it stopped.
package conversation

import (
	"fmt"
	"strconv"
	"strings"
)

// Steps is the number of questions in one daily session.
const Steps = 4

// State is the tagged dialog position of one user.
type State string

const (
	Idle           State = "idle"
	AwaitingRegion State = "awaiting_region"
	AwaitingTime   State = "awaiting_time"
)

const stepPrefix = "step_"

// Step returns the state of answering question n (1-based).
func Step(n int) State {
	return State(stepPrefix + strconv.Itoa(n))
}

// StepIndex returns n for Step(n), or false for every other state.
func (s State) StepIndex() (int, bool) {
	rest, ok := strings.CutPrefix(string(s), stepPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || n > Steps {
		return 0, false
	}
	return n, true
}

// InSession reports whether s is one of the question steps.
func (s State) InSession() bool {
	_, ok := s.StepIndex()
	return ok
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	switch s {
	case Idle, AwaitingRegion, AwaitingTime:
		return true
	}
	return s.InSession()
}

func (s State) String() string { return string(s) }

// ParseState converts a stored value back into a State.
func ParseState(v string) (State, error) {
	s := State(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown conversation state %q", v)
	}
	return s, nil
}

// Data bag keys.
const (
	KeySessionDate = "session_date"
	KeyPendingDate = "pending_date"
)

// Data is the session-scoped key/value bag attached to a state.
type Data map[string]string

// SessionDate returns the date the in-progress answers belong to.
func (d Data) SessionDate() string { return d[KeySessionDate] }

// PendingDate returns the date of a deferred session, if any.
func (d Data) PendingDate() string { return d[KeyPendingDate] }

// Clone returns an independent copy of d.
func (d Data) Clone() Data {
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
