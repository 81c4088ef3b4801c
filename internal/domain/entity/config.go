package entity

import "github.com/go-gl/mathgl/mgl64"

// CompanionConfig tunes a carried/thrown companion agent.
// Distances are in world units, speeds in units per second, delays in seconds.
type CompanionConfig struct {
	CarryOffset mgl64.Vec3 // Relative to the owner, in owner space
	FollowSpeed float64    // 0 snaps to the carry point

	DribbleHeight float64 // Bounce amplitude
	DribbleSpeed  float64 // Phase advance per second
	DribbleDrop   float64 // Bounce base below the carry point

	ThrowForce      float64
	ThrowUpForce    float64
	ReleaseCooldown float64

	ReturnDelay     float64 // After the first impact
	ReturnThreshold float64
	ReturnSpeed     float64
	SnapRadius      float64
	OuterSnapRadius float64
	DisableTeleport bool // Skip the owner-side warp when no surface is near the agent

	ImpactDamage int
	Radius       float64
}

// DefaultCompanionConfig returns the tuning of the stock companion
func DefaultCompanionConfig() CompanionConfig {
	return CompanionConfig{
		CarryOffset:     mgl64.Vec3{0, 0, 1},
		FollowSpeed:     0,
		DribbleHeight:   1,
		DribbleSpeed:    5,
		DribbleDrop:     1,
		ThrowForce:      15,
		ThrowUpForce:    5,
		ReleaseCooldown: 0.25,
		ReturnDelay:     1,
		ReturnThreshold: 1.5,
		ReturnSpeed:     3.5,
		SnapRadius:      2,
		OuterSnapRadius: 10,
		ImpactDamage:    10,
		Radius:          0.25,
	}
}

// WithDefaults fills zero fields from DefaultCompanionConfig.
// FollowSpeed and DisableTeleport keep their zero meaning.
func (c CompanionConfig) WithDefaults() CompanionConfig {
	d := DefaultCompanionConfig()
	if c.CarryOffset == (mgl64.Vec3{}) {
		c.CarryOffset = d.CarryOffset
	}
	if c.DribbleHeight == 0 {
		c.DribbleHeight = d.DribbleHeight
	}
	if c.DribbleSpeed == 0 {
		c.DribbleSpeed = d.DribbleSpeed
	}
	if c.DribbleDrop == 0 {
		c.DribbleDrop = d.DribbleDrop
	}
	if c.ThrowForce == 0 {
		c.ThrowForce = d.ThrowForce
	}
	if c.ThrowUpForce == 0 {
		c.ThrowUpForce = d.ThrowUpForce
	}
	if c.ReleaseCooldown == 0 {
		c.ReleaseCooldown = d.ReleaseCooldown
	}
	if c.ReturnDelay == 0 {
		c.ReturnDelay = d.ReturnDelay
	}
	if c.ReturnThreshold == 0 {
		c.ReturnThreshold = d.ReturnThreshold
	}
	if c.ReturnSpeed == 0 {
		c.ReturnSpeed = d.ReturnSpeed
	}
	if c.SnapRadius == 0 {
		c.SnapRadius = d.SnapRadius
	}
	if c.OuterSnapRadius == 0 {
		c.OuterSnapRadius = d.OuterSnapRadius
	}
	if c.ImpactDamage == 0 {
		c.ImpactDamage = d.ImpactDamage
	}
	if c.Radius == 0 {
		c.Radius = d.Radius
	}
	return c
}

// MovementMode selects how a pursuer closes distance
type MovementMode int

const (
	MovementGround MovementMode = iota // Navigation mesh
	MovementFlying                     // Direct hover
)

// String returns the string representation of the movement mode
func (m MovementMode) String() string {
	switch m {
	case MovementGround:
		return "ground"
	case MovementFlying:
		return "flying"
	default:
		return "unknown"
	}
}

// ParseMovementMode parses "ground" or "flying"
func ParseMovementMode(s string) (MovementMode, bool) {
	switch s {
	case "ground", "":
		return MovementGround, true
	case "flying":
		return MovementFlying, true
	default:
		return MovementGround, false
	}
}

// PursuerConfig tunes a sight/attack pursuer
type PursuerConfig struct {
	Movement    MovementMode
	SightRange  float64
	AttackRange float64
	Hysteresis  float64 // Extra distance before leaving a volume; 0 disables
	TargetMask  Layer

	MoveSpeed      float64
	RotationSpeed  float64
	FlyingHeight   float64
	FollowDistance float64
	SnapRadius     float64
	Radius         float64
}

// DefaultPursuerConfig returns the tuning of the stock pursuer
func DefaultPursuerConfig() PursuerConfig {
	return PursuerConfig{
		Movement:       MovementGround,
		SightRange:     10,
		AttackRange:    2,
		TargetMask:     LayerOwner,
		MoveSpeed:      5,
		RotationSpeed:  5,
		FlyingHeight:   3,
		FollowDistance: 2.5,
		SnapRadius:     2,
		Radius:         0.5,
	}
}

// WithDefaults fills zero fields from DefaultPursuerConfig
func (c PursuerConfig) WithDefaults() PursuerConfig {
	d := DefaultPursuerConfig()
	if c.SightRange == 0 {
		c.SightRange = d.SightRange
	}
	if c.AttackRange == 0 {
		c.AttackRange = d.AttackRange
	}
	if c.TargetMask == LayerNone {
		c.TargetMask = d.TargetMask
	}
	if c.MoveSpeed == 0 {
		c.MoveSpeed = d.MoveSpeed
	}
	if c.RotationSpeed == 0 {
		c.RotationSpeed = d.RotationSpeed
	}
	if c.FlyingHeight == 0 {
		c.FlyingHeight = d.FlyingHeight
	}
	if c.FollowDistance == 0 {
		c.FollowDistance = d.FollowDistance
	}
	if c.SnapRadius == 0 {
		c.SnapRadius = d.SnapRadius
	}
	if c.Radius == 0 {
		c.Radius = d.Radius
	}
	return c
}
