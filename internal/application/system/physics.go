package system

import (
	"maps"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/younwookim/agentloco/internal/application/locomotion"
	"github.com/younwookim/agentloco/internal/domain/entity"
	"github.com/younwookim/agentloco/internal/domain/geom"
	"github.com/younwookim/agentloco/internal/ecs"
	"github.com/younwookim/agentloco/internal/infrastructure/config"
	"github.com/younwookim/agentloco/internal/infrastructure/logging"
)

const (
	// PhysicsWriter is the transform writer name used while physics owns an agent
	PhysicsWriter = "physics"

	// GroundID is reported as the other entity of a ground plane contact
	GroundID entity.EntityID = 0

	contactSlop = 1e-3
	groundedNY  = 0.7 // Minimum normal Y for a contact to count as ground
)

// PhysicsSystem moves non-kinematic agents as spheres under gravity and
// reports contacts that began during the step.
type PhysicsSystem struct {
	config *config.PhysicsSettings
	world  *ecs.World
	log    logging.Logger

	bodies   map[entity.EntityID]*entity.Agent
	contacts map[entity.EntityID]map[entity.EntityID]bool

	// OnContact is called once for each contact that began this step,
	// in agent then other ID order.
	OnContact func(agent entity.EntityID, c locomotion.CollisionIntent)
}

// NewPhysicsSystem creates a new physics system
func NewPhysicsSystem(cfg *config.PhysicsSettings, world *ecs.World, logger logging.Logger) *PhysicsSystem {
	return &PhysicsSystem{
		config:   cfg,
		world:    world,
		log:      logging.OrNoOp(logger),
		bodies:   make(map[entity.EntityID]*entity.Agent),
		contacts: make(map[entity.EntityID]map[entity.EntityID]bool),
	}
}

// Register adds a to the simulated bodies
func (s *PhysicsSystem) Register(a *entity.Agent) {
	if _, ok := s.bodies[a.ID]; ok {
		return
	}
	s.bodies[a.ID] = a
	s.contacts[a.ID] = make(map[entity.EntityID]bool)
	s.log.Debug("physics body registered", "agent", a.ID, "kinematic", a.Kinematic)
}

// Unregister removes a body and forgets its contacts
func (s *PhysicsSystem) Unregister(id entity.EntityID) {
	delete(s.bodies, id)
	delete(s.contacts, id)
}

// ApplyImpulse adds velocity to a
func (s *PhysicsSystem) ApplyImpulse(a *entity.Agent, velocity mgl64.Vec3) {
	s.Register(a)
	a.Velocity = a.Velocity.Add(velocity)
}

// SetKinematic switches a between simulated and externally driven.
// Kinematic bodies lose their velocity.
func (s *PhysicsSystem) SetKinematic(a *entity.Agent, kinematic bool) {
	s.Register(a)
	a.Kinematic = kinematic
	if kinematic {
		a.Velocity = mgl64.Vec3{}
	}
}

// Update integrates every dynamic body, then reports new contacts
func (s *PhysicsSystem) Update(dt float64) {
	if dt <= 0 {
		return
	}
	substeps := max(1, s.config.Substeps)
	h := dt / float64(substeps)

	for _, id := range slices.Sorted(maps.Keys(s.bodies)) {
		a := s.bodies[id]
		touched := make(map[entity.EntityID]entity.Layer)
		if a.Kinematic {
			s.touching(a, a.Position(), touched)
			s.report(id, touched)
			continue
		}

		t := a.Transform()
		grounded := false
		for range substeps {
			grounded = s.step(a, &t, h)
			s.touching(a, t.Position, touched)
		}
		if grounded && a.Velocity.Len() < s.config.SleepSpeed {
			a.Velocity = mgl64.Vec3{}
		}
		a.SetTransform(PhysicsWriter, t)
		s.report(id, touched)
	}
}

// step advances one substep and returns whether the body rests on something
func (s *PhysicsSystem) step(a *entity.Agent, t *entity.Transform, h float64) bool {
	v := a.Velocity
	v[1] -= s.config.Gravity * h
	if s.config.MaxFallSpeed > 0 && v[1] < -s.config.MaxFallSpeed {
		v[1] = -s.config.MaxFallSpeed
	}
	pos := t.Position.Add(v.Mul(h))
	r := a.Radius
	grounded := false

	// Ground plane
	if floor := s.config.GroundHeight + r; pos[1] < floor {
		pos[1] = floor
		v = s.bounce(v, geom.Up)
		grounded = true
	}

	// Obstacles
	for _, id := range slices.Sorted(maps.Keys(s.world.Box)) {
		var n mgl64.Vec3
		var ok bool
		pos, n, ok = pushOutOfBox(s.world.Box[id], pos, r)
		if ok {
			v = s.bounce(v, n)
			grounded = grounded || n[1] > groundedNY
		}
	}

	// Solid volumes
	for _, id := range slices.Sorted(maps.Keys(s.world.Volume)) {
		vol := s.world.Volume[id]
		if !vol.Solid || id == a.ID || !s.world.Alive(id) {
			continue
		}
		other, _ := s.world.PoseOf(id)
		d := pos.Sub(other.Position)
		reach := vol.Radius + r
		if d.Len() >= reach {
			continue
		}
		n := geom.SafeNormalize(d)
		if n.Len() == 0 {
			n = geom.Up
		}
		pos = other.Position.Add(n.Mul(reach))
		v = s.bounce(v, n)
		grounded = grounded || n[1] > groundedNY
	}

	a.Velocity = v
	t.Position = pos
	return grounded
}

// bounce reflects the approaching part of v along n and applies friction
// to the tangential part
func (s *PhysicsSystem) bounce(v, n mgl64.Vec3) mgl64.Vec3 {
	vn := v.Dot(n)
	normal := n.Mul(vn)
	tangent := v.Sub(normal)
	if vn < 0 {
		normal = normal.Mul(-s.config.Restitution)
	}
	return normal.Add(tangent.Mul(1 - s.config.Friction))
}

// pushOutOfBox moves a sphere at pos with radius r out of b.
// Returns the new position and the contact normal.
func pushOutOfBox(b ecs.Box, pos mgl64.Vec3, r float64) (mgl64.Vec3, mgl64.Vec3, bool) {
	closest := b.ClosestPoint(pos)
	if closest != pos {
		d := pos.Sub(closest)
		dist := d.Len()
		if dist >= r {
			return pos, mgl64.Vec3{}, false
		}
		n := d.Mul(1 / dist)
		return closest.Add(n.Mul(r)), n, true
	}

	// Center inside: leave through the nearest face
	best, axis, sign := math.Inf(1), 0, 1.0
	for i := range 3 {
		if d := pos[i] - b.Min[i]; d < best {
			best, axis, sign = d, i, -1
		}
		if d := b.Max[i] - pos[i]; d < best {
			best, axis, sign = d, i, 1
		}
	}
	var n mgl64.Vec3
	n[axis] = sign
	if sign > 0 {
		pos[axis] = b.Max[axis] + r
	} else {
		pos[axis] = b.Min[axis] - r
	}
	return pos, n, true
}

// report diffs a body's touching set against the previous step.
// Kinematic bodies are tracked too, so a launch from inside a volume does
// not count as a new contact.
func (s *PhysicsSystem) report(id entity.EntityID, touched map[entity.EntityID]entity.Layer) {
	prev := s.contacts[id]
	next := make(map[entity.EntityID]bool, len(touched))
	for _, other := range slices.Sorted(maps.Keys(touched)) {
		next[other] = true
		if prev[other] {
			continue
		}
		intent := locomotion.CollisionIntent{Other: other, Layer: touched[other]}
		if p, ok := s.world.Pickup[other]; ok {
			intent.PickupOwner = p.Owner
		}
		s.log.Debug("contact began", "agent", id, "other", other, "layer", intent.Layer)
		if s.OnContact != nil {
			s.OnContact(id, intent)
		}
	}
	s.contacts[id] = next
}

// touching adds what a sphere of a's radius at pos overlaps
func (s *PhysicsSystem) touching(a *entity.Agent, pos mgl64.Vec3, into map[entity.EntityID]entity.Layer) {
	r := a.Radius + contactSlop

	if pos[1]-r <= s.config.GroundHeight {
		into[GroundID] = entity.LayerSurface
	}
	for id, b := range s.world.Box {
		if geom.Distance(pos, b.ClosestPoint(pos)) <= r {
			into[id] = entity.LayerSurface
		}
	}
	s.world.EachBody(entity.LayerTarget|entity.LayerPickup, func(id entity.EntityID, p mgl64.Vec3) {
		if id == a.ID {
			return
		}
		if vol := s.world.Volume[id]; geom.Distance(pos, p) <= r+vol.Radius {
			into[id] = vol.Layer
		}
	})
}
