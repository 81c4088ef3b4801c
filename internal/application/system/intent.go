package system

// Intent represents an owner control request produced from input
type Intent interface {
	isIntent()
}

// MoveIntent moves the owner in its local frame
type MoveIntent struct {
	Forward float64 // -1 back .. 1 forward
	Strafe  float64 // -1 left .. 1 right
}

func (MoveIntent) isIntent() {}

// TurnIntent turns the owner around the up axis
type TurnIntent struct {
	Amount float64 // -1 left .. 1 right
}

func (TurnIntent) isIntent() {}

// HoldIntent carries the level of the hold control
type HoldIntent struct {
	Held bool
}

func (HoldIntent) isIntent() {}

// ReleaseIntent is a release edge
type ReleaseIntent struct{}

func (ReleaseIntent) isIntent() {}

// RecallIntent calls free companions back
type RecallIntent struct{}

func (RecallIntent) isIntent() {}
