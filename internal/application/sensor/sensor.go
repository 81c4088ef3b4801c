// Package sensor answers range and volume queries against the world.
//
// Queries are recomputed on every call. Nothing is cached between ticks, so a
// target that moved since the last tick is always seen where it is now.
package sensor

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/younwookim/agentloco/internal/domain/entity"
	"github.com/younwookim/agentloco/internal/domain/geom"
)

// Source enumerates sensable bodies whose layer matches mask
type Source interface {
	EachBody(mask entity.Layer, fn func(id entity.EntityID, pos mgl64.Vec3))
}

// Perception is the classification of a target relative to sight/attack volumes
type Perception int

const (
	Unseen Perception = iota
	InSight
	InAttack
)

// String returns the string representation of the perception
func (p Perception) String() string {
	switch p {
	case Unseen:
		return "Unseen"
	case InSight:
		return "InSight"
	case InAttack:
		return "InAttack"
	default:
		return "Unknown"
	}
}

// Ranges configures a sight/attack classification.
// Hysteresis widens a volume the target is already inside; 0 disables it.
type Ranges struct {
	Sight      float64
	Attack     float64
	Hysteresis float64
}

// Distance returns the distance between a and b
func Distance(a, b mgl64.Vec3) float64 {
	return geom.Distance(a, b)
}

// Inside reports whether dist is inside a volume of the given range.
// The boundary is exclusive: dist == r is outside.
func Inside(dist, r float64) bool {
	return dist < r
}

// Classify classifies a distance with no hysteresis.
// Outside sight wins over everything; inside attack wins over sight.
func Classify(dist, sight, attack float64) Perception {
	return Ranges{Sight: sight, Attack: attack}.Classify(dist, Unseen)
}

// Widen returns the sight and attack ranges in effect after prev: a volume
// the target is already inside grows by Hysteresis.
func (r Ranges) Widen(prev Perception) (sight, attack float64) {
	sight, attack = r.Sight, r.Attack
	if prev >= InSight {
		sight += r.Hysteresis
	}
	if prev == InAttack {
		attack += r.Hysteresis
	}
	return sight, attack
}

// Classify classifies dist given the previous perception
func (r Ranges) Classify(dist float64, prev Perception) Perception {
	sight, attack := r.Widen(prev)
	if !Inside(dist, sight) {
		return Unseen
	}
	if Inside(dist, attack) {
		return InAttack
	}
	return InSight
}

// Service runs volume queries against a Source
type Service struct {
	src Source
}

// NewService creates a sensor service over src
func NewService(src Source) *Service {
	return &Service{src: src}
}

// WithinSphere returns the bodies in mask whose position lies strictly
// inside the sphere
func (s *Service) WithinSphere(point mgl64.Vec3, radius float64, mask entity.Layer) []entity.EntityID {
	var hits []entity.EntityID
	s.src.EachBody(mask, func(id entity.EntityID, pos mgl64.Vec3) {
		if Inside(Distance(point, pos), radius) {
			hits = append(hits, id)
		}
	})
	return hits
}

// Contains reports whether body id in mask lies strictly inside the sphere
func (s *Service) Contains(point mgl64.Vec3, radius float64, mask entity.Layer, id entity.EntityID) bool {
	for _, hit := range s.WithinSphere(point, radius, mask) {
		if hit == id {
			return true
		}
	}
	return false
}

// Perceive classifies target id seen from point
func (s *Service) Perceive(point mgl64.Vec3, id entity.EntityID, mask entity.Layer, r Ranges, prev Perception) Perception {
	sight, attack := r.Widen(prev)
	if !s.Contains(point, sight, mask, id) {
		return Unseen
	}
	if s.Contains(point, attack, mask, id) {
		return InAttack
	}
	return InSight
}
