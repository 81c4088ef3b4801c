package entity

import "github.com/go-gl/mathgl/mgl64"

// EntityID is a unique identifier for an entity
type EntityID uint32

// Transform is a world-space pose
type Transform struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// NewTransform creates a transform at pos with identity orientation
func NewTransform(pos mgl64.Vec3) Transform {
	return Transform{Position: pos, Orientation: mgl64.QuatIdent()}
}

// Layer is a bitmask used by sensor and collision filters
type Layer uint32

const (
	LayerOwner Layer = 1 << iota
	LayerTarget
	LayerAgent
	LayerPickup
	LayerSurface
)

const (
	LayerNone Layer = 0
	LayerAll  Layer = ^Layer(0)
)

// Has reports whether l shares any bit with mask
func (l Layer) Has(mask Layer) bool {
	return l&mask != 0
}

// Target is a weak reference to an entity an agent follows or pursues.
// The agent only reads its pose and never keeps it alive.
type Target interface {
	ID() EntityID
	Pose() Transform
	Alive() bool
}

// Aimer is implemented by targets that aim independently of their body
// orientation (a first-person camera, for example).
type Aimer interface {
	AimDirection() mgl64.Vec3
}

// Damageable is the capability of taking damage from an impact.
// TakeDamage returns true when the damage was lethal.
type Damageable interface {
	TakeDamage(amount int) bool
}
