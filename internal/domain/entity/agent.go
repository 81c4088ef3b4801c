package entity

import "github.com/go-gl/mathgl/mgl64"

// Kind distinguishes the two agent families
type Kind int

const (
	KindCompanion Kind = iota
	KindPursuer
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindCompanion:
		return "Companion"
	case KindPursuer:
		return "Pursuer"
	default:
		return "Unknown"
	}
}

// Agent is an entity whose transform is governed by a locomotion machine.
//
// Velocity is meaningful only while physics owns the agent, Destination only
// while pathing does. The transform is written through SetTransform so each
// tick's writers can be audited.
type Agent struct {
	ID     EntityID
	Name   string
	Kind   Kind
	Radius float64

	// Physics-owned
	Velocity  mgl64.Vec3
	Kinematic bool

	// Pathing-owned
	Destination    mgl64.Vec3
	HasDestination bool

	transform Transform
	tick      uint64
	writers   []string
}

// NewAgent creates a kinematic agent at the given pose
func NewAgent(id EntityID, name string, kind Kind, t Transform) *Agent {
	return &Agent{
		ID:        id,
		Name:      name,
		Kind:      kind,
		Radius:    0.25,
		Kinematic: true,
		transform: t,
	}
}

// Transform returns the current pose
func (a *Agent) Transform() Transform {
	return a.transform
}

// Position returns the current position
func (a *Agent) Position() mgl64.Vec3 {
	return a.transform.Position
}

// SetTransform writes the pose on behalf of writer
func (a *Agent) SetTransform(writer string, t Transform) {
	a.transform = t
	for _, w := range a.writers {
		if w == writer {
			return
		}
	}
	a.writers = append(a.writers, writer)
}

// BeginTick starts a new write audit window
func (a *Agent) BeginTick(tick uint64) {
	a.tick = tick
	a.writers = a.writers[:0]
}

// Writers returns the distinct writers of the current tick
func (a *Agent) Writers() []string {
	out := make([]string, len(a.writers))
	copy(out, a.writers)
	return out
}

// Tick returns the tick number of the current audit window
func (a *Agent) Tick() uint64 {
	return a.tick
}
