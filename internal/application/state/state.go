package state

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownState is returned when a state name cannot be parsed
var ErrUnknownState = errors.New("unknown state")

// State represents the locomotion state of an agent
type State int

const (
	StateCarried State = iota
	StatePrepared
	StateReleased
	StateReturning
	StateIdle
	StateChasing
	StateAttacking
	StateDetached
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateCarried:
		return "Carried"
	case StatePrepared:
		return "Prepared"
	case StateReleased:
		return "Released"
	case StateReturning:
		return "Returning"
	case StateIdle:
		return "Idle"
	case StateChasing:
		return "Chasing"
	case StateAttacking:
		return "Attacking"
	case StateDetached:
		return "Detached"
	default:
		return "Unknown"
	}
}

// Parse returns the state named s, case-insensitively
func Parse(s string) (State, error) {
	for st := StateCarried; st <= StateDetached; st++ {
		if strings.EqualFold(st.String(), strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownState, s)
}

// OwnerRelative reports whether the state computes against the owner pose
func (s State) OwnerRelative() bool {
	switch s {
	case StateCarried, StatePrepared, StateReleased, StateReturning:
		return true
	default:
		return false
	}
}

// Transition table. A state is not listed as reachable from itself.
var reachable = map[State][]State{
	StateCarried:   {StatePrepared, StateDetached},
	StatePrepared:  {StateCarried, StateReleased, StateDetached},
	StateReleased:  {StateCarried, StateReturning, StateDetached},
	StateReturning: {StateCarried, StateDetached},
	StateIdle:      {StateChasing, StateAttacking},
	StateChasing:   {StateIdle, StateAttacking},
	StateAttacking: {StateIdle, StateChasing},
	StateDetached:  nil,
}

// CanTransition reports whether to is directly reachable from from
func CanTransition(from, to State) bool {
	for _, s := range reachable[from] {
		if s == to {
			return true
		}
	}
	return false
}
