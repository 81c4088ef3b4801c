package motion

import "fmt"

// PathFollow hands the agent to a Pathing service that steers it toward the
// target. Attaching snaps the agent near its own position first, then, unless
// Teleport is off, warps it onto the surface near the target. The same warp
// is the last resort when the target cannot be reached by path.
type PathFollow struct {
	Pathing         Pathing
	Speed           float64
	SnapRadius      float64
	OuterSnapRadius float64
	Teleport        bool

	attached bool
}

func (p *PathFollow) Name() string { return "path" }

// Enter attaches the agent. ErrNoSurface means the caller should retry.
func (p *PathFollow) Enter(c *Context) error {
	p.attached = false
	return p.attach(c)
}

func (p *PathFollow) Tick(c *Context) error {
	if !p.attached {
		if err := p.attach(c); err != nil {
			return err
		}
	}
	if err := p.Pathing.SetDestination(c.Agent, c.Target.Position); err != nil {
		return p.reroute(c, err)
	}
	p.Pathing.Advance(c.Agent, p.Speed, c.DT)
	return nil
}

// reroute handles a target the agent has no path to. It heads for the surface
// point nearest the target instead; when that is unreachable too it warps
// there, unless Teleport is off. The destination is retried next tick.
func (p *PathFollow) reroute(c *Context, cause error) error {
	point, ok := p.Pathing.TrySnapToSurface(c.Target.Position, p.OuterSnapRadius)
	if !ok {
		return fmt.Errorf("set destination: %w: %w", ErrNoSurface, cause)
	}
	if err := p.Pathing.SetDestination(c.Agent, point); err == nil {
		p.Pathing.Advance(c.Agent, p.Speed, c.DT)
		return nil
	}
	if !p.Teleport {
		return fmt.Errorf("set destination: %w", cause)
	}
	p.Pathing.Warp(c.Agent, point)
	p.attached = true
	return nil
}

func (p *PathFollow) Exit(c *Context) {
	p.attached = false
	p.Pathing.Stop(c.Agent)
}

// Attached reports whether the agent is on the navigation surface
func (p *PathFollow) Attached() bool {
	return p.attached
}

func (p *PathFollow) attach(c *Context) error {
	if point, ok := p.Pathing.TrySnapToSurface(c.Agent.Position(), p.SnapRadius); ok {
		p.Pathing.Warp(c.Agent, point)
		p.attached = true
		return nil
	}
	if !p.Teleport {
		return ErrNoSurface
	}
	point, ok := p.Pathing.TrySnapToSurface(c.Target.Position, p.OuterSnapRadius)
	if !ok {
		return ErrNoSurface
	}
	p.Pathing.Warp(c.Agent, point)
	p.attached = true
	return nil
}
