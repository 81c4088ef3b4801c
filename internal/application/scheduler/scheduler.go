// Package scheduler holds deferred state transitions.
//
// Each agent owns at most one pending transition. Arming replaces the slot,
// firing or cancelling clears it. Time is simulation time in seconds; the
// scheduler never sleeps and is advanced only by being polled.
package scheduler

import (
	"errors"
	"fmt"

	"github.com/younwookim/agentloco/internal/application/state"
	"github.com/younwookim/agentloco/internal/domain/entity"
)

// ErrUnreachable is returned when arming a target the current state cannot
// transition to
var ErrUnreachable = errors.New("unreachable deferred target")

// Pending is a scheduled transition
type Pending struct {
	Target state.State
	FireAt float64
}

// Due reports whether the transition fires at time now
func (p Pending) Due(now float64) bool {
	return now >= p.FireAt
}

// Scheduler keeps one slot per agent
type Scheduler struct {
	slots map[entity.EntityID]Pending
}

// New creates an empty scheduler
func New() *Scheduler {
	return &Scheduler{slots: make(map[entity.EntityID]Pending)}
}

// Arm schedules target for id at now+delay, replacing any pending slot.
// The target must be reachable from the agent's current state from; the
// owner validates it again when the slot fires.
func (s *Scheduler) Arm(id entity.EntityID, from, target state.State, now, delay float64) (Pending, error) {
	if !state.CanTransition(from, target) {
		return Pending{}, fmt.Errorf("arm %d %s -> %s: %w", id, from, target, ErrUnreachable)
	}
	if delay < 0 {
		delay = 0
	}
	p := Pending{Target: target, FireAt: now + delay}
	s.slots[id] = p
	return p, nil
}

// Cancel clears the slot for id. Cancelling an empty slot is a no-op.
// Returns true if a pending transition was discarded.
func (s *Scheduler) Cancel(id entity.EntityID) bool {
	if _, ok := s.slots[id]; !ok {
		return false
	}
	delete(s.slots, id)
	return true
}

// Pending returns the slot for id
func (s *Scheduler) Pending(id entity.EntityID) (Pending, bool) {
	p, ok := s.slots[id]
	return p, ok
}

// Fire returns the target state and clears the slot when it is due at now
func (s *Scheduler) Fire(id entity.EntityID, now float64) (state.State, bool) {
	p, ok := s.slots[id]
	if !ok || !p.Due(now) {
		return 0, false
	}
	delete(s.slots, id)
	return p.Target, true
}

// Len returns the number of armed slots
func (s *Scheduler) Len() int {
	return len(s.slots)
}
