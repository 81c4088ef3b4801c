package motion

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/younwookim/agentloco/internal/domain/entity"
	"github.com/younwookim/agentloco/internal/domain/geom"
)

// BallisticHandoff launches the agent and hands its transform to Physics
// until Exit reclaims it.
type BallisticHandoff struct {
	Force   float64
	UpForce float64
	Damage  int

	Physics     Physics
	Damageables DamageResolver

	launch mgl64.Vec3
	active bool
}

// LaunchVelocity returns normalize(aim)*force + up*upForce.
// A zero aim launches straight up.
func LaunchVelocity(aim mgl64.Vec3, force, upForce float64) mgl64.Vec3 {
	return geom.SafeNormalize(aim).Mul(force).Add(geom.Up.Mul(upForce))
}

func (b *BallisticHandoff) Name() string { return "ballistic" }

func (b *BallisticHandoff) Enter(c *Context) error {
	b.launch = LaunchVelocity(c.AimDirection(), b.Force, b.UpForce)
	b.Physics.SetKinematic(c.Agent, false)
	b.Physics.ApplyImpulse(c.Agent, b.launch)
	b.active = true
	return nil
}

// Tick never writes: physics owns the transform
func (b *BallisticHandoff) Tick(c *Context) error { return nil }

func (b *BallisticHandoff) Exit(c *Context) {
	if !b.active {
		return
	}
	b.active = false
	b.Physics.SetKinematic(c.Agent, true)
}

// Launch returns the velocity applied on the last Enter
func (b *BallisticHandoff) Launch() mgl64.Vec3 {
	return b.launch
}

// OnCollision damages other once if it is Damageable.
// Returns true when damage was dealt.
func (b *BallisticHandoff) OnCollision(other entity.EntityID) bool {
	if !b.active || b.Damageables == nil || b.Damage <= 0 {
		return false
	}
	d, ok := b.Damageables.Damageable(other)
	if !ok {
		return false
	}
	d.TakeDamage(b.Damage)
	return true
}
