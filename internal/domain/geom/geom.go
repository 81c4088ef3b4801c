// Package geom provides the small set of vector and rotation helpers the
// locomotion code needs on top of mgl64.
//
// World axes: +Y is up, +Z is forward, +X is right.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the length below which a direction is treated as zero.
const Epsilon = 1e-9

var (
	// Up is the world up axis.
	Up = mgl64.Vec3{0, 1, 0}
	// Forward is the local forward axis.
	Forward = mgl64.Vec3{0, 0, 1}
	// Right is the local right axis.
	Right = mgl64.Vec3{1, 0, 0}
)

// Distance returns the euclidean distance between a and b.
func Distance(a, b mgl64.Vec3) float64 {
	return b.Sub(a).Len()
}

// SafeNormalize returns v scaled to unit length, or the zero vector when v
// is too short to carry a direction.
func SafeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < Epsilon || math.IsNaN(l) || math.IsInf(l, 0) {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// MoveTowards moves current toward target by at most maxDelta and never
// overshoots. A non-positive maxDelta leaves current unchanged.
func MoveTowards(current, target mgl64.Vec3, maxDelta float64) mgl64.Vec3 {
	if maxDelta <= 0 {
		return current
	}
	delta := target.Sub(current)
	dist := delta.Len()
	if dist <= maxDelta {
		return target
	}
	return current.Add(delta.Mul(maxDelta / dist))
}

// ForwardOf returns the forward axis rotated by q.
func ForwardOf(q mgl64.Quat) mgl64.Vec3 {
	return q.Rotate(Forward)
}

// LookRotation returns the orientation whose forward axis points along dir
// with no roll. A zero dir yields the identity rotation.
func LookRotation(dir mgl64.Vec3) mgl64.Quat {
	d := SafeNormalize(dir)
	if d.Len() == 0 {
		return mgl64.QuatIdent()
	}
	yaw := math.Atan2(d.X(), d.Z())
	pitch := -math.Asin(clamp(d.Y(), -1, 1))
	return mgl64.QuatRotate(yaw, Up).Mul(mgl64.QuatRotate(pitch, Right)).Normalize()
}

// YawRotation returns a rotation of angle radians around the up axis.
func YawRotation(angle float64) mgl64.Quat {
	return mgl64.QuatRotate(angle, Up)
}

// Slerp interpolates from a to b, with t clamped to [0, 1].
func Slerp(a, b mgl64.Quat, t float64) mgl64.Quat {
	t = clamp(t, 0, 1)
	if t == 0 {
		return a
	}
	if t == 1 {
		return b
	}
	return mgl64.QuatSlerp(a, b, t).Normalize()
}

// Flatten drops the vertical component of v.
func Flatten(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X(), 0, v.Z()}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
