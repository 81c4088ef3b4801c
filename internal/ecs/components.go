package ecs

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/younwookim/agentloco/internal/domain/entity"
)

// Volume is a sphere used by sensors and contact detection
type Volume struct {
	Radius float64
	Layer  entity.Layer
	Solid  bool // Bodies bounce off solid volumes; others are triggers
}

// Box is a solid axis-aligned box
type Box struct {
	Min, Max mgl64.Vec3
}

// ClosestPoint returns the point of b nearest to p
func (b Box) ClosestPoint(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		math.Max(b.Min[0], math.Min(p[0], b.Max[0])),
		math.Max(b.Min[1], math.Min(p[1], b.Max[1])),
		math.Max(b.Min[2], math.Min(p[2], b.Max[2])),
	}
}

// Contains reports whether p is inside b, faces included
func (b Box) Contains(p mgl64.Vec3) bool {
	return p == b.ClosestPoint(p)
}

// Center returns the middle of b
func (b Box) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Health represents entity health with invulnerability time
type Health struct {
	Current int
	Max     int
	Iframe  float64 // Seconds left during which hits are ignored
}

// TakeDamage applies damage if not invulnerable, returns true if dead
func (h *Health) TakeDamage(amount int) bool {
	if h.Iframe > 0 {
		return false
	}
	h.Current -= amount
	return h.Current <= 0
}

// IsAlive returns true if health > 0
func (h *Health) IsAlive() bool {
	return h.Current > 0
}

// Heal restores health up to max
func (h *Health) Heal(amount int) {
	h.Current += amount
	if h.Current > h.Max {
		h.Current = h.Max
	}
}

// Pickup is a trigger volume that catches thrown companions of Owner
type Pickup struct {
	Owner entity.EntityID
}

// Walker is a directly controlled body such as the owner
type Walker struct {
	Speed     float64 // Units per second
	TurnSpeed float64 // Radians per second

	// Input for the next update
	Move mgl64.Vec3 // Local space, each axis in [-1,1]; +Z forward
	Turn float64    // -1 left .. 1 right
}
