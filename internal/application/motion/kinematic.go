package motion

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/younwookim/agentloco/internal/domain/entity"
	"github.com/younwookim/agentloco/internal/domain/geom"
)

// KinematicFollow places the agent at the owner's carry point.
// Speed 0 snaps; otherwise the agent moves toward the point at Speed.
type KinematicFollow struct {
	Offset mgl64.Vec3
	Speed  float64
}

func (k *KinematicFollow) Name() string { return "kinematic" }

func (k *KinematicFollow) Enter(c *Context) error { return nil }

func (k *KinematicFollow) Tick(c *Context) error {
	goal := CarryPoint(c.Target, k.Offset)
	c.Agent.SetTransform(k.Name(), entity.Transform{
		Position:    follow(c.Agent.Position(), goal, k.Speed, c.DT),
		Orientation: c.Target.Orientation,
	})
	return nil
}

func (k *KinematicFollow) Exit(c *Context) {}

// OscillatingFollow is KinematicFollow with a vertical bounce of
// |cos(phase)| * Amplitude on top of a base Drop below the carry point.
// Phase advances by Speed per second and resets only on Enter.
type OscillatingFollow struct {
	Offset      mgl64.Vec3
	Amplitude   float64
	Speed       float64
	Drop        float64
	FollowSpeed float64

	phase float64
}

// Bounce returns the bounce height for phase
func Bounce(phase, amplitude float64) float64 {
	return math.Abs(math.Cos(phase)) * amplitude
}

func (o *OscillatingFollow) Name() string { return "oscillating" }

func (o *OscillatingFollow) Enter(c *Context) error {
	o.phase = 0
	return nil
}

func (o *OscillatingFollow) Tick(c *Context) error {
	o.phase += math.Abs(o.Speed) * c.DT
	goal := CarryPoint(c.Target, o.Offset).Add(mgl64.Vec3{0, Bounce(o.phase, o.Amplitude) - o.Drop, 0})
	c.Agent.SetTransform(o.Name(), entity.Transform{
		Position:    follow(c.Agent.Position(), goal, o.FollowSpeed, c.DT),
		Orientation: c.Target.Orientation,
	})
	return nil
}

func (o *OscillatingFollow) Exit(c *Context) {}

// Phase returns the accumulated phase
func (o *OscillatingFollow) Phase() float64 {
	return o.phase
}

func follow(current, goal mgl64.Vec3, speed, dt float64) mgl64.Vec3 {
	if speed <= 0 {
		return goal
	}
	return geom.MoveTowards(current, goal, speed*dt)
}
