package config

import (
	"errors"
	"fmt"

	"github.com/younwookim/agentloco/internal/domain/entity"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid config")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks ranges and cross references. All problems are joined.
func (c *SimConfig) Validate() error {
	var errs []error
	if c.World == nil || c.Agents == nil {
		return invalid("world and agents must both be loaded")
	}
	w := c.World

	if w.Physics.Gravity < 0 {
		errs = append(errs, invalid("physics.gravity must be >= 0, got %v", w.Physics.Gravity))
	}
	if w.Physics.Restitution < 0 || w.Physics.Restitution > 1 {
		errs = append(errs, invalid("physics.restitution must be in [0,1], got %v", w.Physics.Restitution))
	}
	if w.Physics.Friction < 0 || w.Physics.Friction > 1 {
		errs = append(errs, invalid("physics.friction must be in [0,1], got %v", w.Physics.Friction))
	}
	if w.Navigation.CellSize < 0 {
		errs = append(errs, invalid("navigation.cellSize must be >= 0, got %v", w.Navigation.CellSize))
	}
	for _, s := range w.Navigation.Surfaces {
		if s.MaxX <= s.MinX || s.MaxZ <= s.MinZ {
			errs = append(errs, invalid("surface %q has an empty area", s.Name))
		}
	}
	if w.Combat.Iframes < 0 {
		errs = append(errs, invalid("combat.iframes must be >= 0, got %v", w.Combat.Iframes))
	}
	if w.Owner.Radius < 0 || w.Owner.PickupRadius < 0 {
		errs = append(errs, invalid("owner radii must be >= 0"))
	}

	targets := make(map[string]bool, len(w.Targets))
	for _, t := range w.Targets {
		if t.Name == "" {
			errs = append(errs, invalid("target without a name"))
			continue
		}
		if targets[t.Name] {
			errs = append(errs, invalid("duplicate target %q", t.Name))
		}
		targets[t.Name] = true
	}

	for name, a := range c.Agents.Companions {
		if err := validateCompanion(name, a.Companion()); err != nil {
			errs = append(errs, err)
		}
	}
	for name, a := range c.Agents.Pursuers {
		if _, ok := entity.ParseMovementMode(a.Movement); !ok {
			errs = append(errs, invalid("pursuer %q: unknown movement %q", name, a.Movement))
		}
		if _, bad := ParseLayers(a.TargetLayers); bad != "" {
			errs = append(errs, invalid("pursuer %q: unknown layer %q", name, bad))
		}
		p := a.Pursuer()
		if p.AttackRange > p.SightRange {
			errs = append(errs, invalid("pursuer %q: attack range %v exceeds sight range %v", name, p.AttackRange, p.SightRange))
		}
		if p.Hysteresis < 0 {
			errs = append(errs, invalid("pursuer %q: hysteresis must be >= 0", name))
		}
		if a.AttackDamage < 0 {
			errs = append(errs, invalid("pursuer %q: attack damage must be >= 0", name))
		}
	}

	names := make(map[string]bool, len(w.Agents))
	for _, s := range w.Agents {
		if names[s.Name] {
			errs = append(errs, invalid("duplicate agent %q", s.Name))
		}
		names[s.Name] = true

		_, companion := c.Agents.Companions[s.Archetype]
		_, pursuer := c.Agents.Pursuers[s.Archetype]
		switch {
		case !companion && !pursuer:
			errs = append(errs, invalid("agent %q: unknown archetype %q", s.Name, s.Archetype))
		case companion && pursuer:
			errs = append(errs, invalid("agent %q: archetype %q is both companion and pursuer", s.Name, s.Archetype))
		}
		if s.Target != "" && !targets[s.Target] {
			errs = append(errs, invalid("agent %q: unknown target %q", s.Name, s.Target))
		}
	}

	return errors.Join(errs...)
}

func validateCompanion(name string, c entity.CompanionConfig) error {
	switch {
	case c.FollowSpeed < 0:
		return invalid("companion %q: follow speed must be >= 0", name)
	case c.ReleaseCooldown < 0:
		return invalid("companion %q: release cooldown must be >= 0", name)
	case c.ReturnDelay < 0:
		return invalid("companion %q: return delay must be >= 0", name)
	case c.OuterSnapRadius < c.SnapRadius:
		return invalid("companion %q: outer snap radius %v is below snap radius %v", name, c.OuterSnapRadius, c.SnapRadius)
	}
	return nil
}
