// Package motion holds the motion authorities: the adapters that are allowed
// to move an agent while it is in a given locomotion state.
//
// Exactly one authority is active per agent. Kinematic authorities write the
// transform themselves; BallisticHandoff hands it to a Physics service and
// PathFollow to a Pathing service, which then become the only writers.
package motion

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/younwookim/agentloco/internal/domain/entity"
	"github.com/younwookim/agentloco/internal/domain/geom"
)

// ErrNoSurface is returned when no navigable point was found within the
// search radii. It is recoverable: the caller retries on a later tick.
var ErrNoSurface = errors.New("no navigable surface in range")

// Context is the per-tick input of an authority
type Context struct {
	Agent    *entity.Agent
	TargetID entity.EntityID
	Target   entity.Transform // Owner or pursuit target pose
	Aim      mgl64.Vec3       // Owner aim direction, zero if unknown
	Now      float64
	DT       float64
}

// AimDirection returns the aim, falling back to the target's forward axis
func (c *Context) AimDirection() mgl64.Vec3 {
	if c.Aim != (mgl64.Vec3{}) {
		return c.Aim
	}
	return geom.ForwardOf(c.Target.Orientation)
}

// Authority is a motion mode bound to one locomotion state.
// Exit must tolerate being called more than once.
type Authority interface {
	Name() string
	Enter(c *Context) error
	Tick(c *Context) error
	Exit(c *Context)
}

// Physics is the rigid-body collaborator
type Physics interface {
	ApplyImpulse(a *entity.Agent, velocity mgl64.Vec3)
	SetKinematic(a *entity.Agent, kinematic bool)
}

// Pathing is the navigation collaborator
type Pathing interface {
	TrySnapToSurface(point mgl64.Vec3, radius float64) (mgl64.Vec3, bool)
	Warp(a *entity.Agent, point mgl64.Vec3)
	SetDestination(a *entity.Agent, point mgl64.Vec3) error
	IsPathfindingActive(a *entity.Agent) bool
	Advance(a *entity.Agent, speed, dt float64)
	Stop(a *entity.Agent)
}

// DamageResolver looks up the Damageable capability of an entity
type DamageResolver interface {
	Damageable(id entity.EntityID) (entity.Damageable, bool)
}

// CarryPoint returns owner position plus offset expressed in owner space
func CarryPoint(owner entity.Transform, offset mgl64.Vec3) mgl64.Vec3 {
	return owner.Position.Add(owner.Orientation.Rotate(offset))
}
