package locomotion

import "github.com/younwookim/agentloco/internal/domain/entity"

// Intent is a request queued for the next tick boundary
type Intent interface {
	isIntent()
}

// HoldIntent sets the level of the hold input
type HoldIntent struct {
	Held bool
}

func (HoldIntent) isIntent() {}

// ReleaseIntent is a release edge (the button went down this frame)
type ReleaseIntent struct{}

func (ReleaseIntent) isIntent() {}

// RecallIntent asks a free companion to come back to the owner at once
type RecallIntent struct{}

func (RecallIntent) isIntent() {}

// CollisionIntent reports a contact that began during the last physics step
type CollisionIntent struct {
	Other       entity.EntityID
	Layer       entity.Layer    // Layer of Other
	PickupOwner entity.EntityID // Owner of Other when it is a pickup volume
}

func (CollisionIntent) isIntent() {}

// IsPickupOf reports whether the contact is with owner's pickup volume
func (c CollisionIntent) IsPickupOf(owner entity.EntityID) bool {
	return c.Layer.Has(entity.LayerPickup) && c.PickupOwner == owner
}
