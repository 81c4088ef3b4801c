package ecs

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/younwookim/agentloco/internal/domain/entity"
	"github.com/younwookim/agentloco/internal/domain/geom"
)

// UpdateTimers counts down invulnerability
func UpdateTimers(w *World, dt float64) {
	for id, h := range w.Health {
		if h.Iframe > 0 {
			h.Iframe -= dt
			if h.Iframe < 0 {
				h.Iframe = 0
			}
			w.Health[id] = h
		}
	}
}

// UpdateWalkers applies walker input: turn first, then move in the new
// facing. Walkers with no health left do not move.
func UpdateWalkers(w *World, dt float64) {
	for _, id := range sortedKeys(w.Walker) {
		wk := w.Walker[id]
		t, ok := w.Pose[id]
		if !ok || !w.Alive(id) {
			continue
		}

		if wk.Turn != 0 {
			t.Orientation = geom.YawRotation(wk.Turn * wk.TurnSpeed * dt).Mul(t.Orientation).Normalize()
		}
		if move := clampInput(wk.Move); move != (mgl64.Vec3{}) {
			step := t.Orientation.Rotate(move).Mul(wk.Speed * dt)
			t.Position = t.Position.Add(geom.Flatten(step))
		}
		w.Pose[id] = t
	}
}

// clampInput keeps diagonal input from being faster than straight input
func clampInput(v mgl64.Vec3) mgl64.Vec3 {
	v[1] = 0
	if v.Len() > 1 {
		return v.Normalize()
	}
	return v
}

// SyncPickups moves pickup volumes onto their owners
func SyncPickups(w *World) {
	for id, p := range w.Pickup {
		if t, ok := w.PoseOf(p.Owner); ok {
			w.Pose[id] = t
		}
	}
}

// RemoveDead destroys targets with no health left and returns their IDs.
// Owners are kept so that their dependents can observe the loss.
func RemoveDead(w *World) []entity.EntityID {
	var dead []entity.EntityID
	for _, id := range sortedKeys(w.IsTarget) {
		if h, ok := w.Health[id]; ok && !h.IsAlive() {
			dead = append(dead, id)
		}
	}
	for _, id := range dead {
		w.DestroyEntity(id)
	}
	return dead
}

// Kill drops id's health to zero; entities without health are destroyed
func Kill(w *World, id entity.EntityID) {
	if h, ok := w.Health[id]; ok {
		h.Current = 0
		w.Health[id] = h
		return
	}
	w.DestroyEntity(id)
}
