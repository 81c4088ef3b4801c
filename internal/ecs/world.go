package ecs

import (
	"maps"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/younwookim/agentloco/internal/domain/entity"
	"github.com/younwookim/agentloco/internal/domain/geom"
)

// World holds all component maps and the next entity ID
type World struct {
	nextID entity.EntityID

	// Components
	Name   map[entity.EntityID]string
	Pose   map[entity.EntityID]entity.Transform
	Volume map[entity.EntityID]Volume
	Box    map[entity.EntityID]Box
	Health map[entity.EntityID]Health
	Pickup map[entity.EntityID]Pickup
	Walker map[entity.EntityID]Walker
	Agent  map[entity.EntityID]*entity.Agent // Agents own their pose

	// Tags
	IsOwner  map[entity.EntityID]struct{}
	IsTarget map[entity.EntityID]struct{}

	// Singleton references
	OwnerID entity.EntityID
}

// NewWorld creates a new empty world
func NewWorld() *World {
	return &World{
		nextID:   1, // 0 is "nil"
		Name:     make(map[entity.EntityID]string),
		Pose:     make(map[entity.EntityID]entity.Transform),
		Volume:   make(map[entity.EntityID]Volume),
		Box:      make(map[entity.EntityID]Box),
		Health:   make(map[entity.EntityID]Health),
		Pickup:   make(map[entity.EntityID]Pickup),
		Walker:   make(map[entity.EntityID]Walker),
		Agent:    make(map[entity.EntityID]*entity.Agent),
		IsOwner:  make(map[entity.EntityID]struct{}),
		IsTarget: make(map[entity.EntityID]struct{}),
	}
}

// NewEntity returns a new unique entity ID
func (w *World) NewEntity() entity.EntityID {
	id := w.nextID
	w.nextID++
	return id
}

// DestroyEntity removes all components for an entity
func (w *World) DestroyEntity(id entity.EntityID) {
	delete(w.Name, id)
	delete(w.Pose, id)
	delete(w.Volume, id)
	delete(w.Box, id)
	delete(w.Health, id)
	delete(w.Pickup, id)
	delete(w.Walker, id)
	delete(w.Agent, id)
	delete(w.IsOwner, id)
	delete(w.IsTarget, id)
}

// Exists checks if an entity has a pose
func (w *World) Exists(id entity.EntityID) bool {
	if _, ok := w.Agent[id]; ok {
		return true
	}
	_, ok := w.Pose[id]
	return ok
}

// Alive reports whether id exists and, if it has health, has some left
func (w *World) Alive(id entity.EntityID) bool {
	if !w.Exists(id) {
		return false
	}
	h, ok := w.Health[id]
	return !ok || h.IsAlive()
}

// PoseOf returns the pose of id
func (w *World) PoseOf(id entity.EntityID) (entity.Transform, bool) {
	if a, ok := w.Agent[id]; ok {
		return a.Transform(), true
	}
	t, ok := w.Pose[id]
	return t, ok
}

// Find returns the entity with the given name
func (w *World) Find(name string) (entity.EntityID, bool) {
	for _, id := range sortedKeys(w.Name) {
		if w.Name[id] == name {
			return id, true
		}
	}
	return 0, false
}

// OwnerSpec configures CreateOwner
type OwnerSpec struct {
	Radius       float64
	PickupRadius float64
	MoveSpeed    float64
	TurnSpeed    float64 // Radians per second
	MaxHealth    int
}

// CreateOwner creates the owner and its pickup volume
func (w *World) CreateOwner(name string, t entity.Transform, spec OwnerSpec) (owner, pickup entity.EntityID) {
	owner = w.NewEntity()
	w.Name[owner] = name
	w.Pose[owner] = t
	w.Volume[owner] = Volume{Radius: spec.Radius, Layer: entity.LayerOwner}
	if spec.MaxHealth > 0 {
		w.Health[owner] = Health{Current: spec.MaxHealth, Max: spec.MaxHealth}
	}
	w.Walker[owner] = Walker{Speed: spec.MoveSpeed, TurnSpeed: spec.TurnSpeed}
	w.IsOwner[owner] = struct{}{}
	w.OwnerID = owner

	pickup = w.NewEntity()
	w.Name[pickup] = name + ".pickup"
	w.Pose[pickup] = t
	w.Volume[pickup] = Volume{Radius: spec.PickupRadius, Layer: entity.LayerPickup}
	w.Pickup[pickup] = Pickup{Owner: owner}
	return owner, pickup
}

// CreateTarget creates a solid damageable dummy
func (w *World) CreateTarget(name string, pos mgl64.Vec3, radius float64, maxHealth int) entity.EntityID {
	id := w.NewEntity()
	w.Name[id] = name
	w.Pose[id] = entity.NewTransform(pos)
	w.Volume[id] = Volume{Radius: radius, Layer: entity.LayerTarget, Solid: true}
	w.Health[id] = Health{Current: maxHealth, Max: maxHealth}
	w.IsTarget[id] = struct{}{}
	return id
}

// CreateObstacle creates a solid box
func (w *World) CreateObstacle(name string, b Box) entity.EntityID {
	id := w.NewEntity()
	w.Name[id] = name
	w.Pose[id] = entity.NewTransform(b.Center())
	w.Box[id] = b
	return id
}

// SpawnAgent creates an agent entity at t
func (w *World) SpawnAgent(name string, kind entity.Kind, t entity.Transform) *entity.Agent {
	id := w.NewEntity()
	a := entity.NewAgent(id, name, kind, t)
	w.Name[id] = name
	w.Agent[id] = a
	w.Volume[id] = Volume{Radius: a.Radius, Layer: entity.LayerAgent}
	return a
}

// EachBody calls fn for every living volume on a layer in mask, in ID order.
// Agents are reported with their current transform.
func (w *World) EachBody(mask entity.Layer, fn func(id entity.EntityID, pos mgl64.Vec3)) {
	for _, id := range sortedKeys(w.Volume) {
		if !w.Volume[id].Layer.Has(mask) || !w.Alive(id) {
			continue
		}
		t, _ := w.PoseOf(id)
		fn(id, t.Position)
	}
}

// Targets returns the target entities in ID order
func (w *World) Targets() []entity.EntityID {
	return sortedKeys(w.IsTarget)
}

// Obstacles returns the entities with a box in ID order
func (w *World) Obstacles() []entity.EntityID {
	return sortedKeys(w.Box)
}

// Damageable returns a handle that applies damage to id's health
func (w *World) Damageable(id entity.EntityID) (entity.Damageable, bool) {
	if _, ok := w.Health[id]; !ok {
		return nil, false
	}
	return healthHandle{w: w, id: id}, true
}

type healthHandle struct {
	w  *World
	id entity.EntityID
}

func (h healthHandle) TakeDamage(amount int) bool {
	hp, ok := h.w.Health[h.id]
	if !ok {
		return false
	}
	dead := hp.TakeDamage(amount)
	h.w.Health[h.id] = hp
	return dead
}

// Ref returns a weak reference to id
func (w *World) Ref(id entity.EntityID) Ref {
	return Ref{w: w, id: id}
}

// Ref is a weak entity reference; it reads through to the world every call
type Ref struct {
	w  *World
	id entity.EntityID
}

func (r Ref) ID() entity.EntityID { return r.id }

func (r Ref) Pose() entity.Transform {
	t, _ := r.w.PoseOf(r.id)
	return t
}

func (r Ref) Alive() bool { return r.w.Alive(r.id) }

// AimDirection returns the facing of a walker, zero otherwise
func (r Ref) AimDirection() mgl64.Vec3 {
	if _, ok := r.w.Walker[r.id]; !ok {
		return mgl64.Vec3{}
	}
	return geom.ForwardOf(r.Pose().Orientation)
}

func sortedKeys[V any](m map[entity.EntityID]V) []entity.EntityID {
	return slices.Sorted(maps.Keys(m))
}
