package motion

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/younwookim/agentloco/internal/domain/entity"
	"github.com/younwookim/agentloco/internal/domain/geom"
)

// HoverFollow flies to a point behind the target at a fixed height and turns
// to face it.
type HoverFollow struct {
	Speed          float64
	RotationSpeed  float64
	Height         float64
	FollowDistance float64
}

// HoverPoint returns the goal behind target at height above it
func HoverPoint(target entity.Transform, followDistance, height float64) mgl64.Vec3 {
	back := geom.SafeNormalize(geom.Flatten(geom.ForwardOf(target.Orientation))).Mul(followDistance)
	goal := target.Position.Sub(back)
	goal[1] = target.Position.Y() + height
	return goal
}

func (h *HoverFollow) Name() string { return "hover" }

func (h *HoverFollow) Enter(c *Context) error { return nil }

func (h *HoverFollow) Tick(c *Context) error {
	cur := c.Agent.Transform()
	pos := geom.MoveTowards(cur.Position, HoverPoint(c.Target, h.FollowDistance, h.Height), h.Speed*c.DT)
	c.Agent.SetTransform(h.Name(), entity.Transform{
		Position:    pos,
		Orientation: turnToward(cur.Orientation, c.Target.Position.Sub(pos), h.RotationSpeed*c.DT),
	})
	return nil
}

func (h *HoverFollow) Exit(c *Context) {}

// Hold keeps the agent in place. With FaceTarget it turns toward the target
// around the vertical axis; otherwise it does not write at all.
type Hold struct {
	FaceTarget    bool
	RotationSpeed float64
}

func (h *Hold) Name() string { return "hold" }

func (h *Hold) Enter(c *Context) error { return nil }

func (h *Hold) Tick(c *Context) error {
	if !h.FaceTarget {
		return nil
	}
	cur := c.Agent.Transform()
	dir := geom.Flatten(c.Target.Position.Sub(cur.Position))
	if geom.SafeNormalize(dir) == (mgl64.Vec3{}) {
		return nil
	}
	c.Agent.SetTransform(h.Name(), entity.Transform{
		Position:    cur.Position,
		Orientation: turnToward(cur.Orientation, dir, h.RotationSpeed*c.DT),
	})
	return nil
}

func (h *Hold) Exit(c *Context) {}

// turnToward slerps from toward the look rotation of dir.
// A zero dir keeps from.
func turnToward(from mgl64.Quat, dir mgl64.Vec3, amount float64) mgl64.Quat {
	if geom.SafeNormalize(dir) == (mgl64.Vec3{}) {
		return from
	}
	return geom.Slerp(from, geom.LookRotation(dir), amount)
}
