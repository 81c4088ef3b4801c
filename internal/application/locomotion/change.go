package locomotion

import (
	"github.com/younwookim/agentloco/internal/application/state"
	"github.com/younwookim/agentloco/internal/domain/entity"
)

// Cause tells listeners what triggered a transition
type Cause int

const (
	CauseSpawn Cause = iota
	CauseManual
	CauseEvent
	CauseDeferred
	CauseSensor
	CauseOwnerLost
)

// String returns the string representation of the cause
func (c Cause) String() string {
	switch c {
	case CauseSpawn:
		return "spawn"
	case CauseManual:
		return "manual"
	case CauseEvent:
		return "event"
	case CauseDeferred:
		return "deferred"
	case CauseSensor:
		return "sensor"
	case CauseOwnerLost:
		return "owner-lost"
	default:
		return "unknown"
	}
}

// Change is published after every transition, and once on the first tick
// with From == To and CauseSpawn.
type Change struct {
	Agent entity.EntityID
	Kind  entity.Kind
	From  state.State
	To    state.State
	Cause Cause
	At    float64
}

// Listener receives state changes. It must not block; the machine does not
// wait on it beyond the call itself.
type Listener func(Change)
